// Package tracker implements the habit completion ledger: the authoritative
// in-process view of which habits were done on which days, with optimistic
// mutations rolled back when the durable write fails.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/GabrielVictorica/rutina/calendar"
	"github.com/GabrielVictorica/rutina/internal/metrics"
	"github.com/GabrielVictorica/rutina/store"
)

// Store is the slice of the persistence layer the ledger needs. *store.Store
// satisfies it; tests substitute a fake.
type Store interface {
	ListActiveHabits(ctx context.Context, ownerID int32) ([]*store.Habit, error)
	GetHabit(ctx context.Context, find *store.FindHabit) (*store.Habit, error)
	CreateHabit(ctx context.Context, create *store.Habit) (*store.Habit, error)
	UpdateHabit(ctx context.Context, update *store.UpdateHabit) (*store.Habit, error)

	ListDailyLogs(ctx context.Context, find *store.FindDailyLog) ([]*store.DailyLog, error)
	UpsertDailyLog(ctx context.Context, upsert *store.UpsertDailyLog) (*store.DailyLog, error)
	ResolveDailyLog(ctx context.Context, ownerID int32, date string) (*store.DailyLog, error)

	ListHabitCompletions(ctx context.Context, find *store.FindHabitCompletion) ([]*store.HabitCompletion, error)
	ToggleHabitCompletion(ctx context.Context, toggle *store.ToggleHabitCompletion) (*store.ToggleResult, error)

	ListEventCompletions(ctx context.Context, find *store.FindEventCompletion) ([]*store.EventCompletion, error)
	CreateEventCompletion(ctx context.Context, create *store.EventCompletion) (*store.EventCompletion, error)
	DeleteEventCompletion(ctx context.Context, del *store.DeleteEventCompletion) error
}

// Severity classifies a user-facing notice.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeveritySuccess Severity = "SUCCESS"
	SeverityError   Severity = "ERROR"
)

// Notice is a user-facing (message, severity) tuple. Presentation is the
// caller's concern.
type Notice struct {
	Message  string
	Severity Severity
}

// ToggleEvent is emitted after every successful habit toggle.
type ToggleEvent struct {
	HabitID   int32
	Completed bool
	Date      string
}

// EventToggle is emitted after every successful generic-event toggle.
type EventToggle struct {
	EventID   string
	Completed bool
	Date      string
}

// Generations tracks a counter per analytics dependency. A mutating operation
// bumps the counters for the collections it touched; derivation layers compare
// the whole tuple to decide whether their memos are stale.
type Generations struct {
	Habits  uint64
	Today   uint64
	History uint64
	Logs    uint64
}

type completionKey struct {
	HabitID int32
	Date    string
}

type eventKey struct {
	EventID string
	Date    string
}

// Ledger owns all mutable completion state for a single owner. External
// collaborators read snapshots and invoke the documented operations; nothing
// else mutates the internals.
type Ledger struct {
	mu sync.Mutex

	store    Store
	calendar calendar.Service
	ownerID  int32
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics

	selectedDate string
	habits       []*store.Habit
	today        map[int32]*store.HabitCompletion
	window       map[completionKey]*store.HabitCompletion
	history      map[completionKey]*store.HabitCompletion
	logs         map[string]*store.DailyLog
	events       map[eventKey]*store.EventCompletion

	gens Generations

	fetchBusy atomic.Bool

	toggleListeners []func(ToggleEvent)
	eventListeners  []func(EventToggle)
	noticeSinks     []func(Notice)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock substitutes the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithCalendar sets the remote calendar service used for best-effort sync.
func WithCalendar(svc calendar.Service) Option {
	return func(l *Ledger) { l.calendar = svc }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// NewLedger creates a ledger for one owner. Call Load before use.
func NewLedger(st Store, ownerID int32, opts ...Option) *Ledger {
	l := &Ledger{
		store:    st,
		calendar: calendar.NoOp{},
		ownerID:  ownerID,
		now:      time.Now,
		logger:   slog.With("component", "tracker", "owner", ownerID),
		metrics:  metrics.Default,
		today:    make(map[int32]*store.HabitCompletion),
		window:   make(map[completionKey]*store.HabitCompletion),
		history:  make(map[completionKey]*store.HabitCompletion),
		logs:     make(map[string]*store.DailyLog),
		events:   make(map[eventKey]*store.EventCompletion),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnToggle registers a listener for habit toggle signals.
func (l *Ledger) OnToggle(fn func(ToggleEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.toggleListeners = append(l.toggleListeners, fn)
}

// OnEventToggle registers a listener for generic-event toggle signals.
func (l *Ledger) OnEventToggle(fn func(EventToggle)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eventListeners = append(l.eventListeners, fn)
}

// OnNotice registers a sink for user-facing notices.
func (l *Ledger) OnNotice(fn func(Notice)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.noticeSinks = append(l.noticeSinks, fn)
}

func (l *Ledger) emitToggle(ev ToggleEvent) {
	for _, fn := range l.toggleListeners {
		fn(ev)
	}
}

func (l *Ledger) emitEventToggle(ev EventToggle) {
	for _, fn := range l.eventListeners {
		fn(ev)
	}
}

func (l *Ledger) notify(n Notice) {
	for _, fn := range l.noticeSinks {
		fn(n)
	}
}

// Notify delivers a notice to every registered sink. Exposed for callers
// outside the ledger, such as scheduled reminders.
func (l *Ledger) Notify(n Notice) {
	l.notify(n)
}

// OwnerID returns the owner this ledger is scoped to.
func (l *Ledger) OwnerID() int32 {
	return l.ownerID
}

// SelectedDate returns the currently selected date.
func (l *Ledger) SelectedDate() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selectedDate
}

// Load populates the ledger for the given selected date: active habits, the
// day's completions, and the trailing year of completions and daily logs.
func (l *Ledger) Load(ctx context.Context, selectedDate string) error {
	if selectedDate == "" {
		selectedDate = l.now().Format(store.DateLayout)
	}
	yearAgo := mustDate(selectedDate).AddDate(0, 0, -365).Format(store.DateLayout)

	habits, err := l.store.ListActiveHabits(ctx, l.ownerID)
	if err != nil {
		return errors.Wrap(err, "failed to load habits")
	}

	completions, err := l.store.ListHabitCompletions(ctx, &store.FindHabitCompletion{
		OwnerID: &l.ownerID,
		MinDate: &yearAgo,
		MaxDate: &selectedDate,
	})
	if err != nil {
		return errors.Wrap(err, "failed to load completions")
	}

	logs, err := l.store.ListDailyLogs(ctx, &store.FindDailyLog{
		OwnerID: &l.ownerID,
		MinDate: &yearAgo,
		MaxDate: &selectedDate,
	})
	if err != nil {
		return errors.Wrap(err, "failed to load daily logs")
	}

	eventCompletions, err := l.store.ListEventCompletions(ctx, &store.FindEventCompletion{
		OwnerID: &l.ownerID,
		MinDate: &yearAgo,
		MaxDate: &selectedDate,
	})
	if err != nil {
		return errors.Wrap(err, "failed to load event completions")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.selectedDate = selectedDate
	l.habits = habits
	l.today = make(map[int32]*store.HabitCompletion)
	l.window = make(map[completionKey]*store.HabitCompletion)
	l.history = make(map[completionKey]*store.HabitCompletion)
	for _, c := range completions {
		key := completionKey{HabitID: c.HabitID, Date: c.Date}
		l.history[key] = c
		l.window[key] = c
		if c.Date == selectedDate {
			l.today[c.HabitID] = c
		}
	}
	l.logs = make(map[string]*store.DailyLog)
	for _, log := range logs {
		l.logs[log.Date] = log
	}
	l.events = make(map[eventKey]*store.EventCompletion)
	for _, e := range eventCompletions {
		l.events[eventKey{EventID: e.EventID, Date: e.Date}] = e
	}
	l.gens.Habits++
	l.gens.Today++
	l.gens.History++
	l.gens.Logs++
	return nil
}

// FetchRange merges completions and daily logs for [minDate, maxDate] into
// the held collections, upserting on (date, habit) and preserving facts
// outside the window. A call made while another fetch is in flight is a
// no-op.
func (l *Ledger) FetchRange(ctx context.Context, minDate, maxDate string) error {
	if !l.fetchBusy.CompareAndSwap(false, true) {
		l.metrics.CountRangeFetch("coalesced")
		return nil
	}
	defer l.fetchBusy.Store(false)

	var completions []*store.HabitCompletion
	var logs []*store.DailyLog

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		completions, err = l.store.ListHabitCompletions(gctx, &store.FindHabitCompletion{
			OwnerID: &l.ownerID,
			MinDate: &minDate,
			MaxDate: &maxDate,
		})
		return errors.Wrap(err, "failed to fetch completions")
	})
	g.Go(func() error {
		var err error
		logs, err = l.store.ListDailyLogs(gctx, &store.FindDailyLog{
			OwnerID: &l.ownerID,
			MinDate: &minDate,
			MaxDate: &maxDate,
		})
		return errors.Wrap(err, "failed to fetch daily logs")
	})
	if err := g.Wait(); err != nil {
		l.metrics.CountRangeFetch("error")
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range completions {
		key := completionKey{HabitID: c.HabitID, Date: c.Date}
		l.window[key] = c
		l.history[key] = c
		if c.Date == l.selectedDate {
			l.today[c.HabitID] = c
		}
	}
	for _, log := range logs {
		l.logs[log.Date] = log
	}
	l.gens.History++
	l.gens.Logs++
	l.metrics.CountRangeFetch("fetched")
	return nil
}

// Habits returns a snapshot of the habit list. Entries are copies, so later
// toggles never show through and holders are free to read them concurrently.
func (l *Ledger) Habits() []*store.Habit {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*store.Habit, len(l.habits))
	for i, h := range l.habits {
		clone := *h
		out[i] = &clone
	}
	return out
}

// TodayCompletions returns the completions of the selected date.
func (l *Ledger) TodayCompletions() []*store.HabitCompletion {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*store.HabitCompletion, 0, len(l.today))
	for _, c := range l.today {
		out = append(out, c)
	}
	return out
}

// HistoricalCompletions returns the trailing-year completion facts.
func (l *Ledger) HistoricalCompletions() []*store.HabitCompletion {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*store.HabitCompletion, 0, len(l.history))
	for _, c := range l.history {
		out = append(out, c)
	}
	return out
}

// DailyLogs returns the held daily logs.
func (l *Ledger) DailyLogs() []*store.DailyLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*store.DailyLog, 0, len(l.logs))
	for _, log := range l.logs {
		out = append(out, log)
	}
	return out
}

// Generations returns the current dependency generation tuple.
func (l *Ledger) Generations() Generations {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens
}

// IsCompleted reports whether (habit, date) currently holds a completion.
func (l *Ledger) IsCompleted(habitID int32, date string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookupLocked(habitID, date) != nil
}

func (l *Ledger) lookupLocked(habitID int32, date string) *store.HabitCompletion {
	if date == l.selectedDate {
		if c, ok := l.today[habitID]; ok {
			return c
		}
		return nil
	}
	return l.window[completionKey{HabitID: habitID, Date: date}]
}

func (l *Ledger) habitLocked(habitID int32) *store.Habit {
	for _, h := range l.habits {
		if h.ID == habitID {
			return h
		}
	}
	return nil
}

func mustDate(date string) time.Time {
	t, err := time.Parse(store.DateLayout, date)
	if err != nil {
		return time.Time{}
	}
	return t
}
