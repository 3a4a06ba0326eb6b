package store

import (
	"context"

	"github.com/pkg/errors"
)

// EventCompletion marks an arbitrary calendar-derived event as done on a
// date. It is an independent ledger from HabitCompletion: no owning daily
// log and no streak interaction. At most one exists per (owner, event, date).
type EventCompletion struct {
	ID      int32
	OwnerID int32
	// EventID is the opaque id of the remote calendar entry.
	EventID string
	// Date is the target calendar date in "2006-01-02" form.
	Date string

	CreatedTs int64
}

// FindEventCompletion is the find condition for event completions.
type FindEventCompletion struct {
	OwnerID *int32
	EventID *string
	Date    *string
	MinDate *string
	MaxDate *string
}

// DeleteEventCompletion identifies the row to remove.
type DeleteEventCompletion struct {
	OwnerID int32
	EventID string
	Date    string
}

func (s *Store) ListEventCompletions(ctx context.Context, find *FindEventCompletion) ([]*EventCompletion, error) {
	return s.driver.ListEventCompletions(ctx, find)
}

func (s *Store) CreateEventCompletion(ctx context.Context, create *EventCompletion) (*EventCompletion, error) {
	if create.OwnerID == 0 {
		return nil, errors.New("event completion owner required")
	}
	if create.EventID == "" {
		return nil, errors.New("event completion event id required")
	}
	if create.Date == "" {
		return nil, errors.New("event completion date required")
	}
	return s.driver.CreateEventCompletion(ctx, create)
}

func (s *Store) DeleteEventCompletion(ctx context.Context, del *DeleteEventCompletion) error {
	return s.driver.DeleteEventCompletion(ctx, del)
}
