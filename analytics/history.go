package analytics

import (
	"time"

	"github.com/GabrielVictorica/rutina/store"
)

// DayState classifies one day of a habit's trailing year.
type DayState string

const (
	// DayBlank predates the habit's creation.
	DayBlank DayState = "BLANK"
	// DayCompleted was scheduled and done.
	DayCompleted DayState = "COMPLETED"
	// DayMissed was scheduled and not done.
	DayMissed DayState = "MISSED"
	// DayNeutral was not scheduled.
	DayNeutral DayState = "NEUTRAL"
)

// YearDay is one cell of the year grid.
type YearDay struct {
	Date  string   `json:"date"`
	State DayState `json:"state"`
}

// YearHistory is a habit's trailing-365-day completion record.
type YearHistory struct {
	HabitID        int32     `json:"habitId"`
	Days           []YearDay `json:"days"`
	ScheduledTotal int       `json:"scheduledTotal"`
	CompletedTotal int       `json:"completedTotal"`
	// Adherence is round(100 * completed / scheduled), 0 when nothing was
	// scheduled.
	Adherence int `json:"adherence"`
}

// HabitYearHistory walks the trailing 365 days of one habit, memoized per
// habit until the next mutation.
func (e *Engine) HabitYearHistory(habitID int32) *YearHistory {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	if history, ok := e.histories[habitID]; ok {
		e.metrics.CountCacheHit("history")
		return history
	}
	e.metrics.CountCacheMiss("history")

	habit := habitByID(e.src.Habits(), habitID)
	if habit == nil {
		return nil
	}

	done := make(map[string]bool)
	for _, c := range e.completions() {
		if c.HabitID == habitID {
			done[c.Date] = true
		}
	}

	end := truncateDay(e.now())
	start := end.AddDate(0, 0, -364)
	created := truncateDay(time.Unix(habit.CreatedTs, 0).In(end.Location()))

	history := &YearHistory{HabitID: habitID, Days: make([]YearDay, 0, 365)}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(store.DateLayout)
		state := DayNeutral
		switch {
		case day.Before(created):
			state = DayBlank
		case habit.IsScheduledOn(day.Weekday()):
			history.ScheduledTotal++
			if done[date] {
				history.CompletedTotal++
				state = DayCompleted
			} else {
				state = DayMissed
			}
		}
		history.Days = append(history.Days, YearDay{Date: date, State: state})
	}
	history.Adherence = roundRatio(history.CompletedTotal, history.ScheduledTotal)

	e.histories[habitID] = history
	return history
}
