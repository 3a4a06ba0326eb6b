package store

import "context"

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() interface{}
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// Habit model related methods.
	CreateHabit(ctx context.Context, create *Habit) (*Habit, error)
	ListHabits(ctx context.Context, find *FindHabit) ([]*Habit, error)
	UpdateHabit(ctx context.Context, update *UpdateHabit) (*Habit, error)

	// DailyLog model related methods.
	ListDailyLogs(ctx context.Context, find *FindDailyLog) ([]*DailyLog, error)
	UpsertDailyLog(ctx context.Context, upsert *UpsertDailyLog) (*DailyLog, error)

	// HabitCompletion model related methods.
	ListHabitCompletions(ctx context.Context, find *FindHabitCompletion) ([]*HabitCompletion, error)
	ToggleHabitCompletion(ctx context.Context, toggle *ToggleHabitCompletion) (*ToggleResult, error)

	// EventCompletion model related methods.
	ListEventCompletions(ctx context.Context, find *FindEventCompletion) ([]*EventCompletion, error)
	CreateEventCompletion(ctx context.Context, create *EventCompletion) (*EventCompletion, error)
	DeleteEventCompletion(ctx context.Context, del *DeleteEventCompletion) error

	// HabitCategory model related methods.
	ListHabitCategories(ctx context.Context) ([]*HabitCategory, error)
}
