package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/store"
)

func (d *DB) ListDailyLogs(ctx context.Context, find *store.FindDailyLog) ([]*store.DailyLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = ?"), append(args, *find.OwnerID)
	}
	if find.Date != nil {
		where, args = append(where, "date = ?"), append(args, *find.Date)
	}
	if find.MinDate != nil {
		where, args = append(where, "date >= ?"), append(args, *find.MinDate)
	}
	if find.MaxDate != nil {
		where, args = append(where, "date <= ?"), append(args, *find.MaxDate)
	}

	query := `
		SELECT id, owner_id, date, mood, energy, notes, tags, created_ts, updated_ts
		FROM daily_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list daily logs")
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
			return nil, errors.Wrap(err, "failed to scan daily log")
		}
		log.Tags = store.TagsFromCSV(tags)
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate daily logs")
	}
	return logs, nil
}

func (d *DB) UpsertDailyLog(ctx context.Context, upsert *store.UpsertDailyLog) (*store.DailyLog, error) {
	stmt := `
		INSERT INTO daily_log (owner_id, date, mood, energy, notes, tags, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, date) DO UPDATE SET
			mood = excluded.mood,
			energy = excluded.energy,
			notes = excluded.notes,
			tags = excluded.tags,
			updated_ts = excluded.updated_ts
		RETURNING id, owner_id, date, mood, energy, notes, tags, created_ts, updated_ts
	`
	now := time.Now().Unix()
	var log store.DailyLog
	var tags string
	err := d.db.QueryRowContext(ctx, stmt,
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
		return nil, errors.Wrap(err, "failed to upsert daily log")
	}
	log.Tags = store.TagsFromCSV(tags)
	return &log, nil
}
