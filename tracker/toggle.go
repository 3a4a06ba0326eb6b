package tracker

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/store"
)

// snapshot captures the pre-mutation state of the one (habit, date) a toggle
// touches, so a failed durable write rolls back only that key. Toggles of
// other habits that commit while this write is in flight stay intact.
type snapshot struct {
	key           completionKey
	currentStreak int32
	longestStreak int32
	today         *store.HabitCompletion
	window        *store.HabitCompletion
	history       *store.HabitCompletion
}

func (l *Ledger) captureLocked(habit *store.Habit, key completionKey) *snapshot {
	return &snapshot{
		key:           key,
		currentStreak: habit.CurrentStreak,
		longestStreak: habit.LongestStreak,
		today:         l.today[habit.ID],
		window:        l.window[key],
		history:       l.history[key],
	}
}

func (l *Ledger) restoreLocked(s *snapshot) {
	if h := l.habitLocked(s.key.HabitID); h != nil {
		h.CurrentStreak = s.currentStreak
		h.LongestStreak = s.longestStreak
	}
	restoreEntry(l.window, s.key, s.window)
	restoreEntry(l.history, s.key, s.history)
	if s.key.Date == l.selectedDate {
		restoreEntry(l.today, s.key.HabitID, s.today)
	}
	l.gens.Habits++
	l.gens.Today++
	l.gens.History++
}

func restoreEntry[K comparable](m map[K]*store.HabitCompletion, key K, prior *store.HabitCompletion) {
	if prior == nil {
		delete(m, key)
		return
	}
	m[key] = prior
}

// Toggle flips the completion fact for (habit, date). The local mutation is
// optimistic: collections and streak counters change immediately, the durable
// write follows, and on write failure the touched entry and the habit's
// streaks are restored to the captured snapshot. On success the
// server-recomputed streak counters overwrite the local estimate and a toggle
// signal is emitted.
func (l *Ledger) Toggle(ctx context.Context, habitID int32, date string) error {
	l.mu.Lock()
	habit := l.habitLocked(habitID)
	if habit == nil {
		l.mu.Unlock()
		return errors.Errorf("unknown habit %d", habitID)
	}
	if date == "" {
		date = l.selectedDate
	}

	key := completionKey{HabitID: habitID, Date: date}
	snap := l.captureLocked(habit, key)
	existing := l.lookupLocked(habitID, date)

	completed := existing == nil
	if completed {
		provisional := &store.HabitCompletion{
			UID:         "tmp-" + shortuuid.New(),
			HabitID:     habitID,
			Date:        date,
			CompletedTs: l.now().Unix(),
		}
		l.window[key] = provisional
		l.history[key] = provisional
		if date == l.selectedDate {
			l.today[habitID] = provisional
		}
		habit.CurrentStreak++
	} else {
		delete(l.window, key)
		delete(l.history, key)
		if date == l.selectedDate {
			delete(l.today, habitID)
		}
		if habit.CurrentStreak > 0 {
			habit.CurrentStreak--
		}
	}
	// The local estimate is display-only; the durable write returns the
	// authoritative counters.
	if habit.CurrentStreak > habit.LongestStreak {
		habit.LongestStreak = habit.CurrentStreak
	}
	l.gens.Today++
	l.gens.History++
	l.mu.Unlock()

	result, err := l.writeToggle(ctx, habitID, date)
	if err != nil {
		l.mu.Lock()
		l.restoreLocked(snap)
		l.mu.Unlock()
		l.metrics.CountRollback("habit")
		l.metrics.CountToggle("habit", "error")
		l.logger.Error("toggle write failed, rolled back", "habit", habitID, "date", date, "error", err)
		l.notify(Notice{Message: "No se pudo guardar el cambio, intentá de nuevo", Severity: SeverityError})
		return err
	}

	l.mu.Lock()
	if h := l.habitLocked(habitID); h != nil {
		h.CurrentStreak = result.CurrentStreak
		h.LongestStreak = result.LongestStreak
	}
	if result.Completed && result.Completion != nil {
		l.window[key] = result.Completion
		l.history[key] = result.Completion
		if date == l.selectedDate {
			l.today[habitID] = result.Completion
		}
	}
	l.gens.Habits++
	l.gens.Today++
	l.gens.History++
	l.mu.Unlock()

	l.metrics.CountToggle("habit", "ok")
	l.emitToggle(ToggleEvent{HabitID: habitID, Completed: result.Completed, Date: date})
	return nil
}

// writeToggle performs the durable part of a toggle: resolve or create the
// owning daily log, then flip the completion row transactionally.
func (l *Ledger) writeToggle(ctx context.Context, habitID int32, date string) (*store.ToggleResult, error) {
	log, err := l.store.ResolveDailyLog(ctx, l.ownerID, date)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve daily log")
	}

	l.mu.Lock()
	if _, ok := l.logs[date]; !ok {
		l.logs[date] = log
		l.gens.Logs++
	}
	l.mu.Unlock()

	result, err := l.store.ToggleHabitCompletion(ctx, &store.ToggleHabitCompletion{
		HabitID:    habitID,
		DailyLogID: log.ID,
		Date:       date,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to toggle completion")
	}
	return result, nil
}
