package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	apiv1 "github.com/GabrielVictorica/rutina/server/router/api/v1"
	"github.com/GabrielVictorica/rutina/store"
	"github.com/GabrielVictorica/rutina/tracker"
)

// Scheduler runs the periodic background jobs: fixed-time habit reminders
// and a nightly warm-up of the analytics derivations.
type Scheduler struct {
	api  *apiv1.APIV1Service
	cron *cron.Cron
}

func NewScheduler(api *apiv1.APIV1Service) *Scheduler {
	c := cron.New()
	s := &Scheduler{api: api, cron: c}

	// Reminders fire on the minute so a "HH:MM" fixed time is hit exactly once.
	_, err := c.AddFunc("* * * * *", s.remindFixedHabits)
	if err != nil {
		slog.Error("failed to schedule reminders", "error", err)
	}
	_, err = c.AddFunc("30 3 * * *", s.warmAnalytics)
	if err != nil {
		slog.Error("failed to schedule analytics warm-up", "error", err)
	}
	return s
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// remindFixedHabits notifies each loaded ledger about fixed-time habits due
// this minute that are still pending today.
func (s *Scheduler) remindFixedHabits() {
	now := time.Now()
	clock := now.Format("15:04")
	date := now.Format(store.DateLayout)

	for _, ledger := range s.api.Ledgers() {
		for _, habit := range ledger.Habits() {
			if !habit.Active || habit.ScheduleMode != store.ScheduleFixed || habit.FixedTime == nil {
				continue
			}
			if *habit.FixedTime != clock || !habit.IsScheduledOn(now.Weekday()) {
				continue
			}
			if ledger.IsCompleted(habit.ID, date) {
				continue
			}
			ledger.Notify(tracker.Notice{
				Message:  fmt.Sprintf("Es hora de %s", habit.Name),
				Severity: tracker.SeverityInfo,
			})
		}
	}
}

// warmAnalytics recomputes the derivations for every loaded engine so the
// first request of the day hits warm memos.
func (s *Scheduler) warmAnalytics() {
	start := time.Now()
	for _, engine := range s.api.Engines() {
		engine.CategoryMastery()
		engine.PerformanceMetrics()
		engine.QualitativeInsights()
	}
	slog.Info("analytics warm-up finished", "duration", time.Since(start))
}
