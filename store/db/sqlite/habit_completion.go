package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/store"
)

func (d *DB) ListHabitCompletions(ctx context.Context, find *store.FindHabitCompletion) ([]*store.HabitCompletion, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "habit_completion.id = ?"), append(args, *find.ID)
	}
	if find.HabitID != nil {
		where, args = append(where, "habit_completion.habit_id = ?"), append(args, *find.HabitID)
	}
	if find.DailyLogID != nil {
		where, args = append(where, "habit_completion.daily_log_id = ?"), append(args, *find.DailyLogID)
	}
	if find.Date != nil {
		where, args = append(where, "habit_completion.date = ?"), append(args, *find.Date)
	}
	if find.MinDate != nil {
		where, args = append(where, "habit_completion.date >= ?"), append(args, *find.MinDate)
	}
	if find.MaxDate != nil {
		where, args = append(where, "habit_completion.date <= ?"), append(args, *find.MaxDate)
	}

	query := `
		SELECT habit_completion.id, habit_completion.uid, habit_completion.habit_id,
			habit_completion.daily_log_id, habit_completion.date,
			habit_completion.completed_ts, habit_completion.value
		FROM habit_completion`
	if find.OwnerID != nil {
		query += " JOIN habit ON habit.id = habit_completion.habit_id"
		where, args = append(where, "habit.owner_id = ?"), append(args, *find.OwnerID)
	}
	query += `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY habit_completion.date ASC, habit_completion.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habit completions")
	}
	defer rows.Close()

	var completions []*store.HabitCompletion
	for rows.Next() {
		completion, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, completion)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate habit completions")
	}
	return completions, nil
}

// ToggleHabitCompletion flips the (habit, date) fact and recomputes the
// authoritative streak counters, all inside one transaction. The unique index
// on (habit_id, date) guarantees at most one completion ever exists per pair.
func (d *DB) ToggleHabitCompletion(ctx context.Context, toggle *store.ToggleHabitCompletion) (*store.ToggleResult, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result := &store.ToggleResult{}

	existing, err := scanCompletionRow(tx.QueryRowContext(ctx, `
		SELECT id, uid, habit_id, daily_log_id, date, completed_ts, value
		FROM habit_completion
		WHERE habit_id = ? AND date = ?`,
		toggle.HabitID, toggle.Date,
	))
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM habit_completion WHERE id = ?", existing.ID); err != nil {
			return nil, errors.Wrap(err, "failed to delete habit completion")
		}
		result.Completed = false
	} else {
		uid := toggle.UID
		if uid == "" {
			uid = uuid.NewString()
		}
		completion := &store.HabitCompletion{
			UID:         uid,
			HabitID:     toggle.HabitID,
			DailyLogID:  toggle.DailyLogID,
			Date:        toggle.Date,
			CompletedTs: time.Now().Unix(),
			Value:       toggle.Value,
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO habit_completion (uid, habit_id, daily_log_id, date, completed_ts, value)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			completion.UID, completion.HabitID, completion.DailyLogID,
			completion.Date, completion.CompletedTs, completion.Value,
		).Scan(&completion.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to insert habit completion")
		}
		result.Completion = completion
		result.Completed = true
	}

	habit, err := scanHabit(tx.QueryRowContext(ctx, `
		SELECT id, uid, owner_id, name, category_id, weekdays, schedule_mode, fixed_time,
			estimated_minutes, cognitive_load, active, current_streak, longest_streak,
			calendar_event_id, created_ts, updated_ts
		FROM habit WHERE id = ?`,
		toggle.HabitID,
	))
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, uid, habit_id, daily_log_id, date, completed_ts, value FROM habit_completion WHERE habit_id = ?",
		toggle.HabitID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list completions for streaks")
	}
	var history []*store.HabitCompletion
	for rows.Next() {
		completion, err := scanCompletion(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		history = append(history, completion)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.Wrap(err, "failed to iterate completions for streaks")
	}
	rows.Close()

	current, longest := store.RecalculateStreaks(habit, history, time.Now())
	if _, err := tx.ExecContext(ctx,
		"UPDATE habit SET current_streak = ?, longest_streak = ?, updated_ts = ? WHERE id = ?",
		current, longest, time.Now().Unix(), toggle.HabitID,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update streaks")
	}
	result.CurrentStreak = current
	result.LongestStreak = longest

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return result, nil
}

func scanCompletion(row rowScanner) (*store.HabitCompletion, error) {
	var completion store.HabitCompletion
	var value sql.NullFloat64
	if err := row.Scan(
		&completion.ID,
		&completion.UID,
		&completion.HabitID,
		&completion.DailyLogID,
		&completion.Date,
		&completion.CompletedTs,
		&value,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan habit completion")
	}
	if value.Valid {
		completion.Value = &value.Float64
	}
	return &completion, nil
}

// scanCompletionRow is scanCompletion for a single-row query where no row is
// not an error.
func scanCompletionRow(row *sql.Row) (*store.HabitCompletion, error) {
	completion, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return completion, nil
}
