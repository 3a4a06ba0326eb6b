package store

import (
	"context"
	"sort"
	"time"
)

// DateLayout is the canonical calendar-date form used across the engine.
const DateLayout = "2006-01-02"

// HabitCompletion is a single completion fact: the habit was performed on the
// target date. At most one exists per (habit, date); the unique index
// enforces it.
type HabitCompletion struct {
	ID  int32
	UID string

	HabitID    int32
	DailyLogID int32
	// Date is the target calendar date in "2006-01-02" form.
	Date string
	// CompletedTs is the moment the completion was recorded.
	CompletedTs int64

	// Value is an optional measured quantity (reps, pages, minutes).
	Value *float64
}

// FindHabitCompletion is the find condition for habit completions.
type FindHabitCompletion struct {
	ID         *int32
	HabitID    *int32
	DailyLogID *int32
	Date       *string
	// MinDate and MaxDate bound the target date range, inclusive on both ends.
	MinDate *string
	MaxDate *string
	// OwnerID filters through the owning habit.
	OwnerID *int32
}

// ToggleHabitCompletion flips the completion fact for (habit, date) inside a
// single transaction and recomputes the authoritative streak counters.
type ToggleHabitCompletion struct {
	HabitID    int32
	DailyLogID int32
	Date       string
	UID        string
	Value      *float64
}

// ToggleResult reports the durable outcome of a toggle: the stored row when
// the fact now exists (nil when it was removed) and the recomputed streaks.
type ToggleResult struct {
	Completion    *HabitCompletion
	Completed     bool
	CurrentStreak int32
	LongestStreak int32
}

func (s *Store) ListHabitCompletions(ctx context.Context, find *FindHabitCompletion) ([]*HabitCompletion, error) {
	return s.driver.ListHabitCompletions(ctx, find)
}

func (s *Store) GetHabitCompletion(ctx context.Context, habitID int32, date string) (*HabitCompletion, error) {
	list, err := s.driver.ListHabitCompletions(ctx, &FindHabitCompletion{HabitID: &habitID, Date: &date})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ToggleHabitCompletion(ctx context.Context, toggle *ToggleHabitCompletion) (*ToggleResult, error) {
	result, err := s.driver.ToggleHabitCompletion(ctx, toggle)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecalculateStreaks derives the authoritative streak counters for a habit
// from its full completion history. Drivers call it inside the toggle
// transaction so local optimistic estimates can be overwritten with these
// values.
//
// The current streak counts consecutive scheduled days with a completion,
// walking backward from the reference date. A missing completion on the
// reference day itself does not break the streak (the day is still in
// progress); any earlier gap does. The longest streak is the maximum
// consecutive scheduled run anywhere in history, floored at the stored
// high-water mark.
func RecalculateStreaks(habit *Habit, completions []*HabitCompletion, reference time.Time) (current, longest int32) {
	done := make(map[string]bool, len(completions))
	dates := make([]string, 0, len(completions))
	for _, c := range completions {
		if !done[c.Date] {
			done[c.Date] = true
			dates = append(dates, c.Date)
		}
	}
	sort.Strings(dates)

	created := time.Unix(habit.CreatedTs, 0)
	createdDate := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, reference.Location())
	refDate := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, reference.Location())

	// Current streak: walk scheduled days backward from the reference date.
	for day := refDate; !day.Before(createdDate); day = day.AddDate(0, 0, -1) {
		if !habit.IsScheduledOn(day.Weekday()) {
			continue
		}
		if done[day.Format(DateLayout)] {
			current++
		} else if day.Equal(refDate) {
			// The reference day may simply not have happened yet. Earlier
			// scheduled days are already over; missing one breaks the streak.
		} else {
			break
		}
	}

	// Longest streak: longest consecutive scheduled run over all history.
	var run int32
	var prev time.Time
	havePrev := false
	for _, d := range dates {
		day, err := time.ParseInLocation(DateLayout, d, reference.Location())
		if err != nil {
			continue
		}
		if havePrev && consecutiveScheduled(habit, prev, day) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
		havePrev = true
	}

	if current > longest {
		longest = current
	}
	if habit.LongestStreak > longest {
		longest = habit.LongestStreak
	}
	return current, longest
}

// consecutiveScheduled reports whether b is the next scheduled day after a,
// i.e. no scheduled day lies strictly between them.
func consecutiveScheduled(habit *Habit, a, b time.Time) bool {
	for day := a.AddDate(0, 0, 1); day.Before(b); day = day.AddDate(0, 0, 1) {
		if habit.IsScheduledOn(day.Weekday()) {
			return false
		}
	}
	return true
}
