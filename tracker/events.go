package tracker

import (
	"context"

	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/store"
)

// ToggleCalendarEntry flips the done state of a calendar entry. When the
// entry's title matches a known habit the fact belongs to the habit ledger;
// otherwise it lands in the generic event ledger keyed by the opaque event id.
func (l *Ledger) ToggleCalendarEntry(ctx context.Context, title, eventID, date string) error {
	if habit, ok := l.Match(title); ok {
		return l.Toggle(ctx, habit.ID, date)
	}
	return l.ToggleEvent(ctx, eventID, date)
}

// ToggleEvent flips a generic event completion with the same
// optimistic-mutate, write, rollback-on-failure discipline as habit toggles.
// No daily log, no streaks, no category contribution.
func (l *Ledger) ToggleEvent(ctx context.Context, eventID, date string) error {
	if eventID == "" {
		return errors.New("event id required")
	}
	if date == "" {
		date = l.SelectedDate()
	}
	key := eventKey{EventID: eventID, Date: date}

	l.mu.Lock()
	prior := l.events[key]
	existing := prior
	completed := existing == nil
	if completed {
		l.events[key] = &store.EventCompletion{
			OwnerID:   l.ownerID,
			EventID:   eventID,
			Date:      date,
			CreatedTs: l.now().Unix(),
		}
	} else {
		delete(l.events, key)
	}
	l.mu.Unlock()

	var err error
	if completed {
		var created *store.EventCompletion
		created, err = l.store.CreateEventCompletion(ctx, &store.EventCompletion{
			OwnerID: l.ownerID,
			EventID: eventID,
			Date:    date,
		})
		if err == nil {
			l.mu.Lock()
			l.events[key] = created
			l.mu.Unlock()
		}
	} else {
		err = l.store.DeleteEventCompletion(ctx, &store.DeleteEventCompletion{
			OwnerID: l.ownerID,
			EventID: eventID,
			Date:    date,
		})
	}

	if err != nil {
		// Restore only the touched key; other events toggled while this
		// write was in flight keep their outcome.
		l.mu.Lock()
		if prior == nil {
			delete(l.events, key)
		} else {
			l.events[key] = prior
		}
		l.mu.Unlock()
		l.metrics.CountRollback("event")
		l.metrics.CountToggle("event", "error")
		l.logger.Error("event toggle write failed, rolled back", "event", eventID, "date", date, "error", err)
		l.notify(Notice{Message: "No se pudo guardar el cambio, intentá de nuevo", Severity: SeverityError})
		return err
	}

	l.metrics.CountToggle("event", "ok")
	l.emitEventToggle(EventToggle{EventID: eventID, Completed: completed, Date: date})
	return nil
}

// IsEventCompleted reports whether (event, date) holds a completion.
func (l *Ledger) IsEventCompleted(eventID, date string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[eventKey{EventID: eventID, Date: date}] != nil
}
