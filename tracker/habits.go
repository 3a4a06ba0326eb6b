package tracker

import (
	"context"

	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/calendar"
	"github.com/GabrielVictorica/rutina/store"
)

// CreateHabit validates and persists a new habit, then links it to a remote
// calendar event on a best-effort basis: a calendar failure is logged but
// never fails the create.
func (l *Ledger) CreateHabit(ctx context.Context, create *store.Habit) (*store.Habit, error) {
	if create.Name == "" {
		return nil, errors.New("habit name required")
	}
	if create.CategoryID == 0 {
		return nil, errors.New("habit category required")
	}
	create.OwnerID = l.ownerID

	habit, err := l.store.CreateHabit(ctx, create)
	if err != nil {
		l.notify(Notice{Message: "No se pudo crear el hábito", Severity: SeverityError})
		return nil, err
	}

	if eventID, err := l.calendar.CreateRecurringEvent(ctx, descriptorFor(habit)); err != nil {
		l.metrics.CountCalendarError("create")
		l.logger.Warn("calendar event creation failed, linkage left empty", "habit", habit.ID, "error", err)
	} else if eventID != "" {
		if updated, err := l.store.UpdateHabit(ctx, &store.UpdateHabit{ID: habit.ID, CalendarEventID: &eventID}); err != nil {
			l.logger.Warn("failed to persist calendar linkage", "habit", habit.ID, "error", err)
		} else {
			habit = updated
		}
	}

	l.mu.Lock()
	l.habits = append(l.habits, habit)
	l.gens.Habits++
	l.mu.Unlock()

	l.notify(Notice{Message: "Hábito creado", Severity: SeveritySuccess})
	return habit, nil
}

// UpdateHabit applies a partial update and pushes the new shape to the linked
// calendar event when one exists.
func (l *Ledger) UpdateHabit(ctx context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	habit, err := l.store.UpdateHabit(ctx, update)
	if err != nil {
		l.notify(Notice{Message: "No se pudo actualizar el hábito", Severity: SeverityError})
		return nil, err
	}

	if habit.CalendarEventID != nil {
		if err := l.calendar.UpdateEvent(ctx, *habit.CalendarEventID, descriptorFor(habit)); err != nil {
			l.metrics.CountCalendarError("update")
			l.logger.Warn("calendar event update failed, linkage left stale", "habit", habit.ID, "error", err)
		}
	}

	l.replaceHabit(habit)
	return habit, nil
}

// ArchiveHabit soft-deletes a habit. Historical completions keep referencing
// it; only the active flag flips. The linked calendar event is deleted on a
// best-effort basis.
func (l *Ledger) ArchiveHabit(ctx context.Context, habitID int32) error {
	active := false
	habit, err := l.store.UpdateHabit(ctx, &store.UpdateHabit{ID: habitID, Active: &active})
	if err != nil {
		l.notify(Notice{Message: "No se pudo archivar el hábito", Severity: SeverityError})
		return err
	}

	if habit.CalendarEventID != nil {
		if err := l.calendar.DeleteEvent(ctx, *habit.CalendarEventID); err != nil {
			l.metrics.CountCalendarError("delete")
			l.logger.Warn("calendar event deletion failed", "habit", habit.ID, "error", err)
		}
	}

	l.mu.Lock()
	kept := l.habits[:0]
	for _, h := range l.habits {
		if h.ID != habitID {
			kept = append(kept, h)
		}
	}
	l.habits = kept
	l.gens.Habits++
	l.mu.Unlock()

	l.notify(Notice{Message: "Hábito archivado", Severity: SeveritySuccess})
	return nil
}

// SavePulse records the daily mood/energy log for a date, creating it lazily.
func (l *Ledger) SavePulse(ctx context.Context, date string, mood, energy int32, notes string, tags []string) (*store.DailyLog, error) {
	if date == "" {
		date = l.SelectedDate()
	}
	log, err := l.store.UpsertDailyLog(ctx, &store.UpsertDailyLog{
		OwnerID: l.ownerID,
		Date:    date,
		Mood:    mood,
		Energy:  energy,
		Notes:   notes,
		Tags:    tags,
	})
	if err != nil {
		l.notify(Notice{Message: "No se pudo guardar el pulso diario", Severity: SeverityError})
		return nil, err
	}

	l.mu.Lock()
	l.logs[date] = log
	l.gens.Logs++
	l.mu.Unlock()
	return log, nil
}

func (l *Ledger) replaceHabit(habit *store.Habit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, h := range l.habits {
		if h.ID == habit.ID {
			l.habits[i] = habit
			break
		}
	}
	l.gens.Habits++
}

func descriptorFor(habit *store.Habit) *calendar.EventDescriptor {
	desc := &calendar.EventDescriptor{
		Title:           habit.Name,
		Weekdays:        habit.Weekdays,
		DurationMinutes: habit.EstimatedMinutes,
	}
	if habit.FixedTime != nil {
		desc.StartTime = *habit.FixedTime
	}
	return desc
}
