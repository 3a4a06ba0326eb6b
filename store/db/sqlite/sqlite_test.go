package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielVictorica/rutina/internal/profile"
	"github.com/GabrielVictorica/rutina/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()
	p := &profile.Profile{
		Mode:    "dev",
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "rutina_test.db"),
		Version: "0.1.0",
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() { _ = driver.Close() })
	return driver
}

func createTestHabit(t *testing.T, driver store.Driver, ownerID int32, name string) *store.Habit {
	t.Helper()
	habit, err := driver.CreateHabit(context.Background(), &store.Habit{
		OwnerID:    ownerID,
		Name:       name,
		CategoryID: 1,
	})
	require.NoError(t, err)
	return habit
}

func TestMigrate(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	initialized, err := driver.IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, initialized)

	// Migrating twice is a no-op.
	require.NoError(t, driver.Migrate(ctx))

	categories, err := driver.ListHabitCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)
	assert.Equal(t, "Salud", categories[0].Name)
}

func TestHabitCRUD(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	habit := createTestHabit(t, driver, 1, "Leer")
	assert.NotZero(t, habit.ID)
	assert.NotEmpty(t, habit.UID)
	assert.True(t, habit.Active)
	assert.Equal(t, store.ScheduleFlexible, habit.ScheduleMode)
	assert.Equal(t, store.CognitiveLoadMedium, habit.CognitiveLoad)

	t.Run("find by owner and active flag", func(t *testing.T) {
		createTestHabit(t, driver, 2, "Correr")

		ownerID, active := int32(1), true
		habits, err := driver.ListHabits(ctx, &store.FindHabit{OwnerID: &ownerID, Active: &active})
		require.NoError(t, err)
		require.Len(t, habits, 1)
		assert.Equal(t, "Leer", habits[0].Name)
	})

	t.Run("partial update only touches named fields", func(t *testing.T) {
		name := "Leer 30 minutos"
		weekdays := []time.Weekday{time.Monday, time.Friday}
		updated, err := driver.UpdateHabit(ctx, &store.UpdateHabit{
			ID:       habit.ID,
			Name:     &name,
			Weekdays: &weekdays,
		})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.Equal(t, weekdays, updated.Weekdays)
		assert.Equal(t, habit.CategoryID, updated.CategoryID)
		assert.True(t, updated.Active)
	})

	t.Run("archive flips active only", func(t *testing.T) {
		active := false
		archived, err := driver.UpdateHabit(ctx, &store.UpdateHabit{ID: habit.ID, Active: &active})
		require.NoError(t, err)
		assert.False(t, archived.Active)

		all, err := driver.ListHabits(ctx, &store.FindHabit{ID: &habit.ID})
		require.NoError(t, err)
		require.Len(t, all, 1)
	})
}

func TestDailyLogUpsert(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	log, err := driver.UpsertDailyLog(ctx, &store.UpsertDailyLog{
		OwnerID: 1,
		Date:    "2024-05-15",
		Mood:    4,
		Energy:  7,
		Notes:   "buen día",
		Tags:    []string{"viaje", "familia"},
	})
	require.NoError(t, err)
	assert.NotZero(t, log.ID)
	assert.Equal(t, []string{"viaje", "familia"}, log.Tags)

	// A second upsert for (owner, date) updates the same row.
	again, err := driver.UpsertDailyLog(ctx, &store.UpsertDailyLog{
		OwnerID: 1,
		Date:    "2024-05-15",
		Mood:    2,
		Energy:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, log.ID, again.ID)
	assert.Equal(t, int32(2), again.Mood)

	ownerID := int32(1)
	logs, err := driver.ListDailyLogs(ctx, &store.FindDailyLog{OwnerID: &ownerID})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestToggleHabitCompletion(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()
	today := time.Now().Format(store.DateLayout)

	habit := createTestHabit(t, driver, 1, "Leer")
	log, err := driver.UpsertDailyLog(ctx, &store.UpsertDailyLog{
		OwnerID: 1, Date: today, Mood: 3, Energy: 5,
	})
	require.NoError(t, err)

	toggle := &store.ToggleHabitCompletion{HabitID: habit.ID, DailyLogID: log.ID, Date: today}

	result, err := driver.ToggleHabitCompletion(ctx, toggle)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	require.NotNil(t, result.Completion)
	assert.Equal(t, int32(1), result.CurrentStreak)
	assert.Equal(t, int32(1), result.LongestStreak)

	// Streaks land on the habit row too.
	fresh, err := driver.ListHabits(ctx, &store.FindHabit{ID: &habit.ID})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int32(1), fresh[0].CurrentStreak)

	// The second toggle removes the fact and resets the current streak.
	result, err = driver.ToggleHabitCompletion(ctx, toggle)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Nil(t, result.Completion)
	assert.Equal(t, int32(0), result.CurrentStreak)
	// The longest streak is a high-water mark and survives the removal.
	assert.Equal(t, int32(1), result.LongestStreak)

	completions, err := driver.ListHabitCompletions(ctx, &store.FindHabitCompletion{HabitID: &habit.ID})
	require.NoError(t, err)
	assert.Empty(t, completions)
}

func TestListHabitCompletionFilters(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	habit := createTestHabit(t, driver, 1, "Leer")
	other := createTestHabit(t, driver, 2, "Correr")

	for _, date := range []string{"2024-05-13", "2024-05-14", "2024-05-15"} {
		log, err := driver.UpsertDailyLog(ctx, &store.UpsertDailyLog{OwnerID: 1, Date: date, Mood: 3, Energy: 5})
		require.NoError(t, err)
		_, err = driver.ToggleHabitCompletion(ctx, &store.ToggleHabitCompletion{
			HabitID: habit.ID, DailyLogID: log.ID, Date: date,
		})
		require.NoError(t, err)
	}
	otherLog, err := driver.UpsertDailyLog(ctx, &store.UpsertDailyLog{OwnerID: 2, Date: "2024-05-14", Mood: 3, Energy: 5})
	require.NoError(t, err)
	_, err = driver.ToggleHabitCompletion(ctx, &store.ToggleHabitCompletion{
		HabitID: other.ID, DailyLogID: otherLog.ID, Date: "2024-05-14",
	})
	require.NoError(t, err)

	t.Run("date range is inclusive on both ends", func(t *testing.T) {
		minDate, maxDate := "2024-05-13", "2024-05-14"
		completions, err := driver.ListHabitCompletions(ctx, &store.FindHabitCompletion{
			HabitID: &habit.ID, MinDate: &minDate, MaxDate: &maxDate,
		})
		require.NoError(t, err)
		assert.Len(t, completions, 2)
	})

	t.Run("owner filter joins through the habit", func(t *testing.T) {
		ownerID := int32(2)
		completions, err := driver.ListHabitCompletions(ctx, &store.FindHabitCompletion{OwnerID: &ownerID})
		require.NoError(t, err)
		require.Len(t, completions, 1)
		assert.Equal(t, other.ID, completions[0].HabitID)
	})
}

func TestEventCompletions(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	created, err := driver.CreateEventCompletion(ctx, &store.EventCompletion{
		OwnerID: 1,
		EventID: "cal-evt-1",
		Date:    "2024-05-15",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	ownerID := int32(1)
	list, err := driver.ListEventCompletions(ctx, &store.FindEventCompletion{OwnerID: &ownerID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, driver.DeleteEventCompletion(ctx, &store.DeleteEventCompletion{
		OwnerID: 1,
		EventID: "cal-evt-1",
		Date:    "2024-05-15",
	}))

	list, err = driver.ListEventCompletions(ctx, &store.FindEventCompletion{OwnerID: &ownerID})
	require.NoError(t, err)
	assert.Empty(t, list)
}
