package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ScheduleMode tells whether a habit is tied to a fixed time of day.
type ScheduleMode string

const (
	// ScheduleFlexible means the habit can be done at any time of day.
	ScheduleFlexible ScheduleMode = "FLEXIBLE"
	// ScheduleFixed means the habit has a preferred time of day.
	ScheduleFixed ScheduleMode = "FIXED"
)

// CognitiveLoad classifies how mentally demanding a habit is.
type CognitiveLoad string

const (
	CognitiveLoadLow    CognitiveLoad = "LOW"
	CognitiveLoadMedium CognitiveLoad = "MEDIUM"
	CognitiveLoadHigh   CognitiveLoad = "HIGH"
)

// Habit represents a recurring practice tracked for a single owner.
type Habit struct {
	ID      int32
	UID     string
	OwnerID int32

	Name       string
	CategoryID int32

	// Weekdays is the weekly recurrence pattern. An empty pattern means the
	// habit is scheduled every day.
	Weekdays []time.Weekday

	ScheduleMode ScheduleMode
	// FixedTime is a "HH:MM" clock time, only meaningful for ScheduleFixed.
	FixedTime *string

	EstimatedMinutes int32
	CognitiveLoad    CognitiveLoad

	// Active is the soft-delete marker. Archived habits are kept while
	// historical completions reference them.
	Active bool

	// CurrentStreak and LongestStreak are maintained by the toggle
	// transaction. LongestStreak is a historical high-water mark.
	CurrentStreak int32
	LongestStreak int32

	// CalendarEventID links the habit to a remote calendar event.
	CalendarEventID *string

	CreatedTs int64
	UpdatedTs int64
}

// IsScheduledOn reports whether the habit's recurrence pattern covers the
// given weekday. An empty pattern schedules every day.
func (h *Habit) IsScheduledOn(day time.Weekday) bool {
	if len(h.Weekdays) == 0 {
		return true
	}
	for _, d := range h.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// FindHabit is the find condition for habits.
type FindHabit struct {
	ID         *int32
	UID        *string
	OwnerID    *int32
	CategoryID *int32
	Active     *bool
}

// UpdateHabit is the partial-update condition for a habit.
type UpdateHabit struct {
	ID int32

	Name             *string
	CategoryID       *int32
	Weekdays         *[]time.Weekday
	ScheduleMode     *ScheduleMode
	FixedTime        *string
	EstimatedMinutes *int32
	CognitiveLoad    *CognitiveLoad
	Active           *bool
	CurrentStreak    *int32
	LongestStreak    *int32
	CalendarEventID  *string
}

func (s *Store) CreateHabit(ctx context.Context, create *Habit) (*Habit, error) {
	if create.OwnerID == 0 {
		return nil, errors.New("habit owner required")
	}
	if create.Name == "" {
		return nil, errors.New("habit name required")
	}
	if create.CategoryID == 0 {
		return nil, errors.New("habit category required")
	}
	habit, err := s.driver.CreateHabit(ctx, create)
	if err != nil {
		return nil, err
	}
	s.habitCache.Delete(habitCacheKey(create.OwnerID))
	return habit, nil
}

func (s *Store) ListHabits(ctx context.Context, find *FindHabit) ([]*Habit, error) {
	return s.driver.ListHabits(ctx, find)
}

// ListActiveHabits lists the active habits for an owner, served from the
// store-level cache when warm.
func (s *Store) ListActiveHabits(ctx context.Context, ownerID int32) ([]*Habit, error) {
	if cached, ok := s.habitCache.Get(habitCacheKey(ownerID)); ok {
		return cached.([]*Habit), nil
	}
	active := true
	habits, err := s.driver.ListHabits(ctx, &FindHabit{OwnerID: &ownerID, Active: &active})
	if err != nil {
		return nil, err
	}
	s.habitCache.Set(habitCacheKey(ownerID), habits)
	return habits, nil
}

func (s *Store) GetHabit(ctx context.Context, find *FindHabit) (*Habit, error) {
	list, err := s.driver.ListHabits(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateHabit(ctx context.Context, update *UpdateHabit) (*Habit, error) {
	habit, err := s.driver.UpdateHabit(ctx, update)
	if err != nil {
		return nil, err
	}
	if habit != nil {
		s.habitCache.Delete(habitCacheKey(habit.OwnerID))
	}
	return habit, nil
}

func habitCacheKey(ownerID int32) string {
	return "habits/" + strconv.FormatInt(int64(ownerID), 10)
}

// WeekdaysToCSV serializes a recurrence pattern for storage ("1,3,5").
func WeekdaysToCSV(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

// WeekdaysFromCSV parses a stored recurrence pattern.
func WeekdaysFromCSV(csv string) []time.Weekday {
	if csv == "" {
		return nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
