package tracker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielVictorica/rutina/store"
)

// mockStore is an in-memory Store with error injection for failure paths.
type mockStore struct {
	mu sync.Mutex

	habits      map[int32]*store.Habit
	completions map[string]*store.HabitCompletion // habitID|date
	logs        map[string]*store.DailyLog        // ownerID|date
	events      map[string]*store.EventCompletion // eventID|date
	nextID      int32

	toggleErr  error
	resolveErr error
	createErr  error
	eventErr   error

	// Fired once at the start of the next matching write, before error
	// injection. Lets a test commit another mutation mid-flight.
	beforeToggle      func()
	beforeCreateEvent func()
}

func newMockStore() *mockStore {
	return &mockStore{
		habits:      make(map[int32]*store.Habit),
		completions: make(map[string]*store.HabitCompletion),
		logs:        make(map[string]*store.DailyLog),
		events:      make(map[string]*store.EventCompletion),
		nextID:      1,
	}
}

func completionMapKey(habitID int32, date string) string {
	return fmt.Sprintf("%d|%s", habitID, date)
}

func (m *mockStore) addHabit(h *store.Habit) *store.Habit {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == 0 {
		h.ID = m.nextID
		m.nextID++
	}
	m.habits[h.ID] = h
	return h
}

func (m *mockStore) addCompletion(habitID int32, date string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.completions[completionMapKey(habitID, date)] = &store.HabitCompletion{
		ID:      id,
		UID:     fmt.Sprintf("c-%d", id),
		HabitID: habitID,
		Date:    date,
	}
}

func (m *mockStore) completionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.completions)
}

func (m *mockStore) ListActiveHabits(_ context.Context, ownerID int32) ([]*store.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.Habit{}
	for _, h := range m.habits {
		if h.OwnerID == ownerID && h.Active {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockStore) GetHabit(_ context.Context, find *store.FindHabit) (*store.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.habits {
		if find.ID != nil && h.ID == *find.ID {
			return h, nil
		}
		if find.UID != nil && h.UID == *find.UID {
			return h, nil
		}
	}
	return nil, fmt.Errorf("habit not found")
}

func (m *mockStore) CreateHabit(_ context.Context, create *store.Habit) (*store.Habit, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	clone := *create
	return m.addHabit(&clone), nil
}

func (m *mockStore) UpdateHabit(_ context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[update.ID]
	if !ok {
		return nil, fmt.Errorf("habit %d not found", update.ID)
	}
	if update.Name != nil {
		h.Name = *update.Name
	}
	if update.Active != nil {
		h.Active = *update.Active
	}
	if update.CalendarEventID != nil {
		h.CalendarEventID = update.CalendarEventID
	}
	return h, nil
}

func (m *mockStore) ListDailyLogs(_ context.Context, find *store.FindDailyLog) ([]*store.DailyLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.DailyLog{}
	for _, l := range m.logs {
		if find.OwnerID != nil && l.OwnerID != *find.OwnerID {
			continue
		}
		if find.MinDate != nil && l.Date < *find.MinDate {
			continue
		}
		if find.MaxDate != nil && l.Date > *find.MaxDate {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *mockStore) UpsertDailyLog(_ context.Context, upsert *store.UpsertDailyLog) (*store.DailyLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d|%s", upsert.OwnerID, upsert.Date)
	log, ok := m.logs[key]
	if !ok {
		log = &store.DailyLog{ID: m.nextID, OwnerID: upsert.OwnerID, Date: upsert.Date}
		m.nextID++
		m.logs[key] = log
	}
	log.Mood = upsert.Mood
	log.Energy = upsert.Energy
	log.Notes = upsert.Notes
	log.Tags = upsert.Tags
	return log, nil
}

func (m *mockStore) ResolveDailyLog(_ context.Context, ownerID int32, date string) (*store.DailyLog, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d|%s", ownerID, date)
	if log, ok := m.logs[key]; ok {
		return log, nil
	}
	log := &store.DailyLog{ID: m.nextID, OwnerID: ownerID, Date: date, Mood: 3, Energy: 5}
	m.nextID++
	m.logs[key] = log
	return log, nil
}

func (m *mockStore) ListHabitCompletions(_ context.Context, find *store.FindHabitCompletion) ([]*store.HabitCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.HabitCompletion{}
	for _, c := range m.completions {
		if find.HabitID != nil && c.HabitID != *find.HabitID {
			continue
		}
		if find.MinDate != nil && c.Date < *find.MinDate {
			continue
		}
		if find.MaxDate != nil && c.Date > *find.MaxDate {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockStore) ToggleHabitCompletion(_ context.Context, toggle *store.ToggleHabitCompletion) (*store.ToggleResult, error) {
	if hook := m.beforeToggle; hook != nil {
		m.beforeToggle = nil
		hook()
	}
	if m.toggleErr != nil {
		return nil, m.toggleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	habit, ok := m.habits[toggle.HabitID]
	if !ok {
		return nil, fmt.Errorf("habit %d not found", toggle.HabitID)
	}

	key := completionMapKey(toggle.HabitID, toggle.Date)
	result := &store.ToggleResult{}
	if _, exists := m.completions[key]; exists {
		delete(m.completions, key)
	} else {
		completion := &store.HabitCompletion{
			ID:         m.nextID,
			UID:        fmt.Sprintf("c-%d", m.nextID),
			HabitID:    toggle.HabitID,
			DailyLogID: toggle.DailyLogID,
			Date:       toggle.Date,
		}
		m.nextID++
		m.completions[key] = completion
		result.Completion = completion
		result.Completed = true
	}

	history := []*store.HabitCompletion{}
	for _, c := range m.completions {
		if c.HabitID == toggle.HabitID {
			history = append(history, c)
		}
	}
	reference, err := time.Parse(store.DateLayout, toggle.Date)
	if err != nil {
		return nil, err
	}
	current, longest := store.RecalculateStreaks(habit, history, reference)
	habit.CurrentStreak = current
	habit.LongestStreak = longest
	result.CurrentStreak = current
	result.LongestStreak = longest
	return result, nil
}

func (m *mockStore) ListEventCompletions(_ context.Context, find *store.FindEventCompletion) ([]*store.EventCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*store.EventCompletion{}
	for _, e := range m.events {
		if find.OwnerID != nil && e.OwnerID != *find.OwnerID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockStore) CreateEventCompletion(_ context.Context, create *store.EventCompletion) (*store.EventCompletion, error) {
	if hook := m.beforeCreateEvent; hook != nil {
		m.beforeCreateEvent = nil
		hook()
	}
	if m.eventErr != nil {
		return nil, m.eventErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *create
	clone.ID = m.nextID
	m.nextID++
	m.events[clone.EventID+"|"+clone.Date] = &clone
	return &clone, nil
}

func (m *mockStore) DeleteEventCompletion(_ context.Context, del *store.DeleteEventCompletion) error {
	if m.eventErr != nil {
		return m.eventErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, del.EventID+"|"+del.Date)
	return nil
}

const (
	testOwnerID = int32(7)
	// A Wednesday.
	testToday = "2024-05-15"
)

func testClock() time.Time {
	return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
}

func newTestLedger(t *testing.T, st *mockStore) *Ledger {
	t.Helper()
	ledger := NewLedger(st, testOwnerID, WithClock(testClock))
	require.NoError(t, ledger.Load(context.Background(), testToday))
	return ledger
}

func dailyHabit(id int32, name string) *store.Habit {
	return &store.Habit{
		ID:         id,
		UID:        fmt.Sprintf("h-%d", id),
		OwnerID:    testOwnerID,
		Name:       name,
		CategoryID: 1,
		Active:     true,
		CreatedTs:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).Unix(),
	}
}

func TestToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("complete then uncomplete restores the original state", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		require.NoError(t, ledger.Toggle(ctx, 1, testToday))
		assert.True(t, ledger.IsCompleted(1, testToday))
		assert.Equal(t, 1, st.completionCount())

		require.NoError(t, ledger.Toggle(ctx, 1, testToday))
		assert.False(t, ledger.IsCompleted(1, testToday))
		assert.Equal(t, 0, st.completionCount())
		assert.Equal(t, int32(0), ledger.Habits()[0].CurrentStreak)
	})

	t.Run("at most one completion per habit and day", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		require.NoError(t, ledger.Toggle(ctx, 1, testToday))
		require.NoError(t, ledger.Toggle(ctx, 1, testToday))
		require.NoError(t, ledger.Toggle(ctx, 1, testToday))
		assert.Equal(t, 1, st.completionCount())
		assert.Len(t, ledger.TodayCompletions(), 1)
	})

	t.Run("adopts server streaks after a successful write", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		st.addCompletion(1, "2024-05-13")
		st.addCompletion(1, "2024-05-14")
		ledger := newTestLedger(t, st)

		require.NoError(t, ledger.Toggle(ctx, 1, testToday))

		habit := ledger.Habits()[0]
		assert.Equal(t, int32(3), habit.CurrentStreak)
		assert.Equal(t, int32(3), habit.LongestStreak)
	})

	t.Run("rolls back on write failure", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		st.addCompletion(1, "2024-05-14")
		ledger := newTestLedger(t, st)

		var notices []Notice
		ledger.OnNotice(func(n Notice) { notices = append(notices, n) })

		before := ledger.Generations()
		streakBefore := ledger.Habits()[0].CurrentStreak

		st.toggleErr = fmt.Errorf("disk full")
		err := ledger.Toggle(ctx, 1, testToday)
		require.Error(t, err)

		assert.False(t, ledger.IsCompleted(1, testToday))
		assert.True(t, ledger.IsCompleted(1, "2024-05-14"))
		assert.Equal(t, streakBefore, ledger.Habits()[0].CurrentStreak)
		assert.Equal(t, 1, st.completionCount())

		require.Len(t, notices, 1)
		assert.Equal(t, SeverityError, notices[0].Severity)

		// Generations must still move so derivation layers re-derive from
		// the restored state.
		assert.NotEqual(t, before, ledger.Generations())
	})

	t.Run("rollback keeps a toggle of another habit that committed mid-flight", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		st.addHabit(dailyHabit(2, "Meditar"))
		ledger := newTestLedger(t, st)

		// While habit 1's write is in flight, habit 2's toggle commits.
		// Habit 1's write then fails; its rollback must not revert habit 2.
		st.beforeToggle = func() {
			require.NoError(t, ledger.Toggle(ctx, 2, testToday))
			st.toggleErr = fmt.Errorf("disk full")
		}
		require.Error(t, ledger.Toggle(ctx, 1, testToday))

		assert.False(t, ledger.IsCompleted(1, testToday))
		assert.True(t, ledger.IsCompleted(2, testToday))
		for _, h := range ledger.Habits() {
			switch h.ID {
			case 1:
				assert.Equal(t, int32(0), h.CurrentStreak)
			case 2:
				assert.Equal(t, int32(1), h.CurrentStreak)
			}
		}
	})

	t.Run("rolls back when the daily log cannot be resolved", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		st.resolveErr = fmt.Errorf("connection reset")
		require.Error(t, ledger.Toggle(ctx, 1, testToday))
		assert.False(t, ledger.IsCompleted(1, testToday))
		assert.Equal(t, 0, st.completionCount())
	})

	t.Run("unknown habit is rejected before any mutation", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		before := ledger.Generations()
		require.Error(t, ledger.Toggle(ctx, 99, testToday))
		assert.Equal(t, before, ledger.Generations())
	})

	t.Run("emits a toggle signal on success", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		var got []ToggleEvent
		ledger.OnToggle(func(ev ToggleEvent) { got = append(got, ev) })

		require.NoError(t, ledger.Toggle(ctx, 1, testToday))
		require.Len(t, got, 1)
		assert.Equal(t, ToggleEvent{HabitID: 1, Completed: true, Date: testToday}, got[0])
	})
}

func TestHabitsSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot is isolated from later toggles", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		snap := ledger.Habits()[0]
		require.NoError(t, ledger.Toggle(ctx, 1, testToday))

		assert.Equal(t, int32(0), snap.CurrentStreak)
		assert.Equal(t, int32(1), ledger.Habits()[0].CurrentStreak)
	})

	t.Run("concurrent readers never observe in-flight streak writes", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 100; i++ {
				for _, h := range ledger.Habits() {
					_ = h.CurrentStreak + h.LongestStreak
				}
			}
		}()
		for i := 0; i < 50; i++ {
			require.NoError(t, ledger.Toggle(ctx, 1, testToday))
		}
		<-done
	})
}

func TestToggleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("complete and uncomplete", func(t *testing.T) {
		st := newMockStore()
		ledger := newTestLedger(t, st)

		require.NoError(t, ledger.ToggleEvent(ctx, "evt-1", testToday))
		assert.True(t, ledger.IsEventCompleted("evt-1", testToday))

		require.NoError(t, ledger.ToggleEvent(ctx, "evt-1", testToday))
		assert.False(t, ledger.IsEventCompleted("evt-1", testToday))
	})

	t.Run("does not touch habit state or streaks", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		ledger := newTestLedger(t, st)

		before := ledger.Generations()
		require.NoError(t, ledger.ToggleEvent(ctx, "evt-1", testToday))

		after := ledger.Generations()
		assert.Equal(t, before.Habits, after.Habits)
		assert.Equal(t, before.Today, after.Today)
		assert.Equal(t, int32(0), ledger.Habits()[0].CurrentStreak)
	})

	t.Run("rolls back on write failure", func(t *testing.T) {
		st := newMockStore()
		ledger := newTestLedger(t, st)

		st.eventErr = fmt.Errorf("disk full")
		require.Error(t, ledger.ToggleEvent(ctx, "evt-1", testToday))
		assert.False(t, ledger.IsEventCompleted("evt-1", testToday))
	})

	t.Run("rollback keeps another event that committed mid-flight", func(t *testing.T) {
		st := newMockStore()
		ledger := newTestLedger(t, st)

		st.beforeCreateEvent = func() {
			require.NoError(t, ledger.ToggleEvent(ctx, "evt-other", testToday))
			st.eventErr = fmt.Errorf("disk full")
		}
		require.Error(t, ledger.ToggleEvent(ctx, "evt-1", testToday))

		assert.False(t, ledger.IsEventCompleted("evt-1", testToday))
		assert.True(t, ledger.IsEventCompleted("evt-other", testToday))
	})

	t.Run("rejects an empty event id", func(t *testing.T) {
		st := newMockStore()
		ledger := newTestLedger(t, st)
		require.Error(t, ledger.ToggleEvent(ctx, "", testToday))
	})
}

func TestToggleCalendarEntry(t *testing.T) {
	ctx := context.Background()

	st := newMockStore()
	st.addHabit(dailyHabit(1, "Meditar"))
	ledger := newTestLedger(t, st)

	t.Run("matching title routes to the habit ledger", func(t *testing.T) {
		require.NoError(t, ledger.ToggleCalendarEntry(ctx, "🧘 Meditar!", "evt-cal-1", testToday))
		assert.True(t, ledger.IsCompleted(1, testToday))
		assert.False(t, ledger.IsEventCompleted("evt-cal-1", testToday))
	})

	t.Run("unmatched title lands in the event ledger", func(t *testing.T) {
		require.NoError(t, ledger.ToggleCalendarEntry(ctx, "Dentista", "evt-cal-2", testToday))
		assert.True(t, ledger.IsEventCompleted("evt-cal-2", testToday))
	})
}

func TestFetchRange(t *testing.T) {
	ctx := context.Background()

	t.Run("merges without discarding facts outside the window", func(t *testing.T) {
		st := newMockStore()
		st.addHabit(dailyHabit(1, "Leer"))
		st.addCompletion(1, "2024-05-10")
		ledger := newTestLedger(t, st)

		st.addCompletion(1, "2024-03-01")
		require.NoError(t, ledger.FetchRange(ctx, "2024-03-01", "2024-03-31"))

		assert.True(t, ledger.IsCompleted(1, "2024-03-01"))
		// The previously loaded fact survives the merge.
		assert.True(t, ledger.IsCompleted(1, "2024-05-10"))
	})

	t.Run("bumps history and log generations", func(t *testing.T) {
		st := newMockStore()
		ledger := newTestLedger(t, st)

		before := ledger.Generations()
		require.NoError(t, ledger.FetchRange(ctx, "2024-03-01", "2024-03-31"))
		after := ledger.Generations()

		assert.Greater(t, after.History, before.History)
		assert.Greater(t, after.Logs, before.Logs)
		assert.Equal(t, before.Habits, after.Habits)
	})
}

func TestMatch(t *testing.T) {
	st := newMockStore()
	st.addHabit(dailyHabit(1, "Meditar"))
	st.addHabit(dailyHabit(2, "Leer 30 minutos"))
	ledger := newTestLedger(t, st)

	tests := []struct {
		title   string
		habitID int32
		ok      bool
	}{
		{"Meditar", 1, true},
		{"🧘 MEDITAR (mañana)", 1, true},
		{"Leer", 2, true},
		{"Sesión: leer 30 minutos y tomar notas", 2, true},
		{"Dentista", 0, false},
		{"", 0, false},
		{"🎉🎉", 0, false},
	}
	for _, tt := range tests {
		habit, ok := ledger.Match(tt.title)
		assert.Equal(t, tt.ok, ok, "title %q", tt.title)
		if tt.ok {
			require.NotNil(t, habit)
			assert.Equal(t, tt.habitID, habit.ID, "title %q", tt.title)
		}
	}
}

func TestPotentialForHabit(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse(store.DateLayout, s)
		require.NoError(t, err)
		return d
	}

	t.Run("creation date bounds the range", func(t *testing.T) {
		// Scheduled Mon/Wed/Fri, created Wednesday 2024-05-08. Over
		// 2024-05-06..2024-05-12 only Wed 8th and Fri 10th count, plus
		// nothing before creation.
		habit := &store.Habit{
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			Active:    true,
			CreatedTs: day("2024-05-08").Unix(),
		}
		got := PotentialForHabit(habit, day("2024-05-06"), day("2024-05-12"))
		assert.Equal(t, 2, got)
	})

	t.Run("seven day window starting Wednesday holds three of mon wed fri", func(t *testing.T) {
		habit := &store.Habit{
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			Active:    true,
			CreatedTs: day("2024-01-01").Unix(),
		}
		// Wed 2024-05-15 through Tue 2024-05-21: Wed 15, Fri 17, Mon 20.
		got := PotentialForHabit(habit, day("2024-05-15"), day("2024-05-21"))
		assert.Equal(t, 3, got)
	})

	t.Run("both range ends are inclusive", func(t *testing.T) {
		habit := &store.Habit{
			Weekdays:  []time.Weekday{time.Monday, time.Friday},
			Active:    true,
			CreatedTs: day("2024-01-01").Unix(),
		}
		// Mon 6th through Fri 10th: Mon and Fri both land inside.
		got := PotentialForHabit(habit, day("2024-05-06"), day("2024-05-10"))
		assert.Equal(t, 2, got)
	})

	t.Run("empty pattern means every day", func(t *testing.T) {
		habit := &store.Habit{Active: true, CreatedTs: day("2024-01-01").Unix()}
		got := PotentialForHabit(habit, day("2024-05-06"), day("2024-05-12"))
		assert.Equal(t, 7, got)
	})

	t.Run("widening the range never lowers the potential", func(t *testing.T) {
		habit := &store.Habit{
			Weekdays:  []time.Weekday{time.Tuesday, time.Thursday},
			Active:    true,
			CreatedTs: day("2024-03-15").Unix(),
		}
		end := day("2024-05-12")
		prev := 0
		for days := 1; days <= 90; days += 7 {
			got := PotentialForHabit(habit, end.AddDate(0, 0, -days), end)
			assert.GreaterOrEqual(t, got, prev)
			prev = got
		}
	})

	t.Run("range entirely before creation is zero", func(t *testing.T) {
		habit := &store.Habit{Active: true, CreatedTs: day("2024-06-01").Unix()}
		got := PotentialForHabit(habit, day("2024-05-06"), day("2024-05-12"))
		assert.Equal(t, 0, got)
	})
}

func TestPotentialOccurrences(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse(store.DateLayout, s)
		require.NoError(t, err)
		return d
	}

	active := dailyHabit(1, "Leer")
	archived := dailyHabit(2, "Correr")
	archived.Active = false
	other := dailyHabit(3, "Ahorrar")
	other.CategoryID = 2

	got := PotentialOccurrences([]*store.Habit{active, archived, other}, day("2024-05-06"), day("2024-05-12"))
	// Archived habits do not contribute, so category 1 holds only the
	// active habit's seven days.
	assert.Equal(t, map[int32]int{1: 7, 2: 7}, got)
}
