// Package analytics derives statistics from the completion ledger and daily
// logs. Results are memoized against a dependency generation tuple; any
// change invalidates all derivations at once. The coarse invalidation is
// deliberate: the derivations share sub-computations and the data scale is at
// most a year of daily facts, so per-key bookkeeping would cost more than the
// redundant recomputation it saves.
package analytics

import (
	"sync"
	"time"

	"github.com/GabrielVictorica/rutina/internal/metrics"
	"github.com/GabrielVictorica/rutina/store"
	"github.com/GabrielVictorica/rutina/tracker"
)

// Source is the read-only view of ledger state the engine consumes.
type Source interface {
	Habits() []*store.Habit
	TodayCompletions() []*store.HabitCompletion
	HistoricalCompletions() []*store.HabitCompletion
	DailyLogs() []*store.DailyLog
	Generations() tracker.Generations
}

// Engine computes and caches the four derivation families.
type Engine struct {
	src       Source
	rangeDays int
	now       func() time.Time
	metrics   *metrics.Metrics

	mu            sync.Mutex
	valid         bool
	lastGens      tracker.Generations
	lastRangeDays int

	mastery   []*CategoryMastery
	perf      *PerformanceMetrics
	insights  *Insights
	histories map[int32]*YearHistory
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock substitutes the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an analytics engine over the given source. rangeDays is
// the trailing analysis window.
func NewEngine(src Source, rangeDays int, opts ...Option) *Engine {
	if rangeDays <= 0 {
		rangeDays = 30
	}
	e := &Engine{
		src:       src,
		rangeDays: rangeDays,
		now:       time.Now,
		metrics:   metrics.Default,
		histories: make(map[int32]*YearHistory),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRangeDays changes the analysis window. The window length is itself a
// cache dependency, so the next derivation recomputes.
func (e *Engine) SetRangeDays(days int) {
	if days <= 0 {
		return
	}
	e.mu.Lock()
	e.rangeDays = days
	e.mu.Unlock()
}

// refreshLocked compares the dependency tuple against the one captured at the
// last cache fill and drops every memo when anything moved.
func (e *Engine) refreshLocked() {
	gens := e.src.Generations()
	if e.valid && gens == e.lastGens && e.rangeDays == e.lastRangeDays {
		return
	}
	e.mastery = nil
	e.perf = nil
	e.insights = nil
	e.histories = make(map[int32]*YearHistory)
	e.lastGens = gens
	e.lastRangeDays = e.rangeDays
	e.valid = true
}

// window returns the trailing analysis window [start, end], both inclusive.
func (e *Engine) window() (time.Time, time.Time) {
	end := truncateDay(e.now())
	start := end.AddDate(0, 0, -(e.rangeDays - 1))
	return start, end
}

// completions returns the historical and today facts merged, deduplicated on
// (habit, date).
func (e *Engine) completions() []*store.HabitCompletion {
	seen := make(map[completionKey]bool)
	var out []*store.HabitCompletion
	for _, c := range e.src.HistoricalCompletions() {
		key := completionKey{HabitID: c.HabitID, Date: c.Date}
		if !seen[key] {
			seen[key] = true
			out = append(out, c)
		}
	}
	for _, c := range e.src.TodayCompletions() {
		key := completionKey{HabitID: c.HabitID, Date: c.Date}
		if !seen[key] {
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

type completionKey struct {
	HabitID int32
	Date    string
}

func habitByID(habits []*store.Habit, id int32) *store.Habit {
	for _, h := range habits {
		if h.ID == id {
			return h
		}
	}
	return nil
}

func inWindow(date string, start, end time.Time) bool {
	d, err := time.ParseInLocation(store.DateLayout, date, start.Location())
	if err != nil {
		return false
	}
	return !d.Before(start) && !d.After(end)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func roundRatio(numerator, denominator int) int {
	if denominator == 0 {
		return 0
	}
	ratio := 100 * float64(numerator) / float64(denominator)
	return int(ratio + 0.5)
}
