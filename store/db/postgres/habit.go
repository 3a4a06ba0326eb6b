package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GabrielVictorica/rutina/store"
)

func (db *DB) CreateHabit(ctx context.Context, create *store.Habit) (*store.Habit, error) {
	if create.UID == "" {
		create.UID = uuid.NewString()
	}
	if create.ScheduleMode == "" {
		create.ScheduleMode = store.ScheduleFlexible
	}
	if create.CognitiveLoad == "" {
		create.CognitiveLoad = store.CognitiveLoadMedium
	}

	query := `
		INSERT INTO habit (
			uid, owner_id, name, category_id, weekdays, schedule_mode, fixed_time,
			estimated_minutes, cognitive_load, active, calendar_event_id, created_ts, updated_ts
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $11, $12)
		RETURNING id, created_ts, updated_ts
	`
	now := time.Now().Unix()
	if create.CreatedTs != 0 {
		now = create.CreatedTs
	}
	err := db.db.QueryRowContext(ctx, query,
		create.UID,
		create.OwnerID,
		create.Name,
		create.CategoryID,
		store.WeekdaysToCSV(create.Weekdays),
		create.ScheduleMode,
		create.FixedTime,
		create.EstimatedMinutes,
		create.CognitiveLoad,
		create.CalendarEventID,
		now,
		now,
	).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}
	create.Active = true
	return create, nil
}

func (db *DB) ListHabits(ctx context.Context, find *store.FindHabit) ([]*store.Habit, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if find.CategoryID != nil {
		where, args = append(where, "category_id = "+placeholder(len(args)+1)), append(args, *find.CategoryID)
	}
	if find.Active != nil {
		where, args = append(where, "active = "+placeholder(len(args)+1)), append(args, *find.Active)
	}

	query := `
		SELECT id, uid, owner_id, name, category_id, weekdays, schedule_mode, fixed_time,
			estimated_minutes, cognitive_load, active, current_streak, longest_streak,
			calendar_event_id, created_ts, updated_ts
		FROM habit
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []*store.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}
	return habits, nil
}

func (db *DB) UpdateHabit(ctx context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.CategoryID != nil {
		set, args = append(set, "category_id = "+placeholder(len(args)+1)), append(args, *update.CategoryID)
	}
	if update.Weekdays != nil {
		set, args = append(set, "weekdays = "+placeholder(len(args)+1)), append(args, store.WeekdaysToCSV(*update.Weekdays))
	}
	if update.ScheduleMode != nil {
		set, args = append(set, "schedule_mode = "+placeholder(len(args)+1)), append(args, *update.ScheduleMode)
	}
	if update.FixedTime != nil {
		set, args = append(set, "fixed_time = "+placeholder(len(args)+1)), append(args, *update.FixedTime)
	}
	if update.EstimatedMinutes != nil {
		set, args = append(set, "estimated_minutes = "+placeholder(len(args)+1)), append(args, *update.EstimatedMinutes)
	}
	if update.CognitiveLoad != nil {
		set, args = append(set, "cognitive_load = "+placeholder(len(args)+1)), append(args, *update.CognitiveLoad)
	}
	if update.Active != nil {
		set, args = append(set, "active = "+placeholder(len(args)+1)), append(args, *update.Active)
	}
	if update.CurrentStreak != nil {
		set, args = append(set, "current_streak = "+placeholder(len(args)+1)), append(args, *update.CurrentStreak)
	}
	if update.LongestStreak != nil {
		set, args = append(set, "longest_streak = "+placeholder(len(args)+1)), append(args, *update.LongestStreak)
	}
	if update.CalendarEventID != nil {
		set, args = append(set, "calendar_event_id = "+placeholder(len(args)+1)), append(args, *update.CalendarEventID)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	query := `
		UPDATE habit SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, owner_id, name, category_id, weekdays, schedule_mode, fixed_time,
			estimated_minutes, cognitive_load, active, current_streak, longest_streak,
			calendar_event_id, created_ts, updated_ts`

	habit, err := scanHabit(db.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}
	return habit, nil
}

func scanHabit(row rowScanner) (*store.Habit, error) {
	var habit store.Habit
	var weekdays string
	var fixedTime, calendarEventID sql.NullString
	if err := row.Scan(
		&habit.ID,
		&habit.UID,
		&habit.OwnerID,
		&habit.Name,
		&habit.CategoryID,
		&weekdays,
		&habit.ScheduleMode,
		&fixedTime,
		&habit.EstimatedMinutes,
		&habit.CognitiveLoad,
		&habit.Active,
		&habit.CurrentStreak,
		&habit.LongestStreak,
		&calendarEventID,
		&habit.CreatedTs,
		&habit.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to scan habit: %w", err)
	}
	habit.Weekdays = store.WeekdaysFromCSV(weekdays)
	if fixedTime.Valid {
		habit.FixedTime = &fixedTime.String
	}
	if calendarEventID.Valid {
		habit.CalendarEventID = &calendarEventID.String
	}
	return &habit, nil
}
