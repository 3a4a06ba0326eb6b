package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GabrielVictorica/rutina/store"
)

func (db *DB) ListDailyLogs(ctx context.Context, find *store.FindDailyLog) ([]*store.DailyLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if find.Date != nil {
		where, args = append(where, "date = "+placeholder(len(args)+1)), append(args, *find.Date)
	}
	if find.MinDate != nil {
		where, args = append(where, "date >= "+placeholder(len(args)+1)), append(args, *find.MinDate)
	}
	if find.MaxDate != nil {
		where, args = append(where, "date <= "+placeholder(len(args)+1)), append(args, *find.MaxDate)
	}

	query := `
		SELECT id, owner_id, date, mood, energy, notes, tags, created_ts, updated_ts
		FROM daily_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date ASC`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	defer rows.Close()

	var logs []*store.DailyLog
	for rows.Next() {
		var log store.DailyLog
		var tags string
		if err := rows.Scan(
			&log.ID,
			&log.OwnerID,
			&log.Date,
			&log.Mood,
			&log.Energy,
			&log.Notes,
			&tags,
			&log.CreatedTs,
			&log.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		log.Tags = store.TagsFromCSV(tags)
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily logs: %w", err)
	}
	return logs, nil
}

func (db *DB) UpsertDailyLog(ctx context.Context, upsert *store.UpsertDailyLog) (*store.DailyLog, error) {
	query := `
		INSERT INTO daily_log (owner_id, date, mood, energy, notes, tags, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, date) DO UPDATE SET
			mood = EXCLUDED.mood,
			energy = EXCLUDED.energy,
			notes = EXCLUDED.notes,
			tags = EXCLUDED.tags,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, owner_id, date, mood, energy, notes, tags, created_ts, updated_ts
	`
	now := time.Now().Unix()
	var log store.DailyLog
	var tags string
	err := db.db.QueryRowContext(ctx, query,
		upsert.OwnerID,
		upsert.Date,
		upsert.Mood,
		upsert.Energy,
		upsert.Notes,
		store.TagsToCSV(upsert.Tags),
		now,
		now,
	).Scan(
		&log.ID,
		&log.OwnerID,
		&log.Date,
		&log.Mood,
		&log.Energy,
		&log.Notes,
		&tags,
		&log.CreatedTs,
		&log.UpdatedTs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily log: %w", err)
	}
	log.Tags = store.TagsFromCSV(tags)
	return &log, nil
}
