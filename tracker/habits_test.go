package tracker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielVictorica/rutina/calendar"
	"github.com/GabrielVictorica/rutina/store"
)

// fakeCalendar records calls and optionally fails them.
type fakeCalendar struct {
	created []calendar.EventDescriptor
	updated []string
	deleted []string
	fail    bool
}

func (f *fakeCalendar) CreateRecurringEvent(_ context.Context, desc *calendar.EventDescriptor) (string, error) {
	if f.fail {
		return "", fmt.Errorf("calendar unreachable")
	}
	f.created = append(f.created, *desc)
	return fmt.Sprintf("cal-%d", len(f.created)), nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, eventID string, _ *calendar.EventDescriptor) error {
	if f.fail {
		return fmt.Errorf("calendar unreachable")
	}
	f.updated = append(f.updated, eventID)
	return nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, eventID string) error {
	if f.fail {
		return fmt.Errorf("calendar unreachable")
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

func TestCreateHabit(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and links a calendar event", func(t *testing.T) {
		st := newMockStore()
		cal := &fakeCalendar{}
		ledger := NewLedger(st, testOwnerID, WithClock(testClock), WithCalendar(cal))
		require.NoError(t, ledger.Load(ctx, testToday))

		habit, err := ledger.CreateHabit(ctx, &store.Habit{
			Name:       "Meditar",
			CategoryID: 1,
			Active:     true,
		})
		require.NoError(t, err)
		require.NotNil(t, habit.CalendarEventID)
		assert.Equal(t, "cal-1", *habit.CalendarEventID)
		assert.Len(t, ledger.Habits(), 1)
	})

	t.Run("calendar failure does not fail the create", func(t *testing.T) {
		st := newMockStore()
		cal := &fakeCalendar{fail: true}
		ledger := NewLedger(st, testOwnerID, WithClock(testClock), WithCalendar(cal))
		require.NoError(t, ledger.Load(ctx, testToday))

		habit, err := ledger.CreateHabit(ctx, &store.Habit{
			Name:       "Meditar",
			CategoryID: 1,
			Active:     true,
		})
		require.NoError(t, err)
		assert.Nil(t, habit.CalendarEventID)
	})

	t.Run("rejects missing name or category", func(t *testing.T) {
		st := newMockStore()
		ledger := newTestLedger(t, st)

		_, err := ledger.CreateHabit(ctx, &store.Habit{CategoryID: 1})
		require.Error(t, err)
		_, err = ledger.CreateHabit(ctx, &store.Habit{Name: "Meditar"})
		require.Error(t, err)
		assert.Empty(t, ledger.Habits())
	})
}

func TestArchiveHabit(t *testing.T) {
	ctx := context.Background()

	st := newMockStore()
	eventID := "cal-9"
	habit := dailyHabit(1, "Leer")
	habit.CalendarEventID = &eventID
	st.addHabit(habit)
	st.addCompletion(1, "2024-05-10")

	cal := &fakeCalendar{}
	ledger := NewLedger(st, testOwnerID, WithClock(testClock), WithCalendar(cal))
	require.NoError(t, ledger.Load(ctx, testToday))

	require.NoError(t, ledger.ArchiveHabit(ctx, 1))

	assert.Empty(t, ledger.Habits())
	assert.Equal(t, []string{"cal-9"}, cal.deleted)
	// The soft delete keeps historical completions in place.
	assert.Equal(t, 1, st.completionCount())
	assert.False(t, st.habits[1].Active)
}

func TestSavePulse(t *testing.T) {
	ctx := context.Background()

	st := newMockStore()
	ledger := newTestLedger(t, st)

	before := ledger.Generations()
	log, err := ledger.SavePulse(ctx, testToday, 4, 8, "buen día", []string{"viaje"})
	require.NoError(t, err)

	assert.Equal(t, int32(4), log.Mood)
	assert.Equal(t, int32(8), log.Energy)
	assert.Greater(t, ledger.Generations().Logs, before.Logs)
}
