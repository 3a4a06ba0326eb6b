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

func (d *DB) CreateHabit(ctx context.Context, create *store.Habit) (*store.Habit, error) {
	if create.UID == "" {
		create.UID = uuid.NewString()
	}
	if create.ScheduleMode == "" {
		create.ScheduleMode = store.ScheduleFlexible
	}
	if create.CognitiveLoad == "" {
		create.CognitiveLoad = store.CognitiveLoadMedium
	}

	stmt := `
		INSERT INTO habit (
			uid, owner_id, name, category_id, weekdays, schedule_mode, fixed_time,
			estimated_minutes, cognitive_load, active, current_streak, longest_streak,
			calendar_event_id, created_ts, updated_ts
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0, 0, ?, ?, ?)
		RETURNING id, created_ts, updated_ts
	`
	now := time.Now().Unix()
	if create.CreatedTs != 0 {
		now = create.CreatedTs
	}
	err := d.db.QueryRowContext(ctx, stmt,
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
		return nil, errors.Wrap(err, "failed to create habit")
	}
	create.Active = true
	return create, nil
}

func (d *DB) ListHabits(ctx context.Context, find *store.FindHabit) ([]*store.Habit, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = ?"), append(args, *find.OwnerID)
	}
	if find.CategoryID != nil {
		where, args = append(where, "category_id = ?"), append(args, *find.CategoryID)
	}
	if find.Active != nil {
		where, args = append(where, "active = ?"), append(args, boolToInt(*find.Active))
	}

	query := `
		SELECT id, uid, owner_id, name, category_id, weekdays, schedule_mode, fixed_time,
			estimated_minutes, cognitive_load, active, current_streak, longest_streak,
			calendar_event_id, created_ts, updated_ts
		FROM habit
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habits")
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
		return nil, errors.Wrap(err, "failed to iterate habits")
	}
	return habits, nil
}

func (d *DB) UpdateHabit(ctx context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.CategoryID != nil {
		set, args = append(set, "category_id = ?"), append(args, *update.CategoryID)
	}
	if update.Weekdays != nil {
		set, args = append(set, "weekdays = ?"), append(args, store.WeekdaysToCSV(*update.Weekdays))
	}
	if update.ScheduleMode != nil {
		set, args = append(set, "schedule_mode = ?"), append(args, *update.ScheduleMode)
	}
	if update.FixedTime != nil {
		set, args = append(set, "fixed_time = ?"), append(args, *update.FixedTime)
	}
	if update.EstimatedMinutes != nil {
		set, args = append(set, "estimated_minutes = ?"), append(args, *update.EstimatedMinutes)
	}
	if update.CognitiveLoad != nil {
		set, args = append(set, "cognitive_load = ?"), append(args, *update.CognitiveLoad)
	}
	if update.Active != nil {
		set, args = append(set, "active = ?"), append(args, boolToInt(*update.Active))
	}
	if update.CurrentStreak != nil {
		set, args = append(set, "current_streak = ?"), append(args, *update.CurrentStreak)
	}
	if update.LongestStreak != nil {
		set, args = append(set, "longest_streak = ?"), append(args, *update.LongestStreak)
	}
	if update.CalendarEventID != nil {
		set, args = append(set, "calendar_event_id = ?"), append(args, *update.CalendarEventID)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `
		UPDATE habit SET ` + strings.Join(set, ", ") + `
		WHERE id = ?
		RETURNING id, uid, owner_id, name, category_id, weekdays, schedule_mode, fixed_time,
			estimated_minutes, cognitive_load, active, current_streak, longest_streak,
			calendar_event_id, created_ts, updated_ts`

	habit, err := scanHabit(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update habit")
	}
	return habit, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (*store.Habit, error) {
	var habit store.Habit
	var weekdays string
	var active int
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
		&active,
		&habit.CurrentStreak,
		&habit.LongestStreak,
		&calendarEventID,
		&habit.CreatedTs,
		&habit.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan habit")
	}
	habit.Weekdays = store.WeekdaysFromCSV(weekdays)
	habit.Active = active != 0
	if fixedTime.Valid {
		habit.FixedTime = &fixedTime.String
	}
	if calendarEventID.Valid {
		habit.CalendarEventID = &calendarEventID.String
	}
	return &habit, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
