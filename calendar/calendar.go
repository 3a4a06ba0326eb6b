// Package calendar defines the boundary to the remote calendar service. The
// engine persists opaque event ids and never interprets calendar payloads.
package calendar

import (
	"context"
	"time"
)

// EventDescriptor carries the fields the engine pushes to the calendar.
type EventDescriptor struct {
	Title           string         `json:"title"`
	Weekdays        []time.Weekday `json:"weekdays,omitempty"`
	StartTime       string         `json:"startTime,omitempty"`
	DurationMinutes int32          `json:"durationMinutes,omitempty"`
}

// Service is the remote calendar contract.
type Service interface {
	// CreateRecurringEvent creates a recurring event and returns its opaque id.
	CreateRecurringEvent(ctx context.Context, desc *EventDescriptor) (string, error)
	// UpdateEvent pushes new fields to an existing event.
	UpdateEvent(ctx context.Context, eventID string, desc *EventDescriptor) error
	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, eventID string) error
}

// NoOp is the Service used when no calendar endpoint is configured.
type NoOp struct{}

func (NoOp) CreateRecurringEvent(context.Context, *EventDescriptor) (string, error) {
	return "", nil
}

func (NoOp) UpdateEvent(context.Context, string, *EventDescriptor) error {
	return nil
}

func (NoOp) DeleteEvent(context.Context, string) error {
	return nil
}
