package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/store"
)

func (d *DB) ListEventCompletions(ctx context.Context, find *store.FindEventCompletion) ([]*store.EventCompletion, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.OwnerID != nil {
		where, args = append(where, "owner_id = ?"), append(args, *find.OwnerID)
	}
	if find.EventID != nil {
		where, args = append(where, "event_id = ?"), append(args, *find.EventID)
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
		SELECT id, owner_id, event_id, date, created_ts
		FROM event_completion
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list event completions")
	}
	defer rows.Close()

	var completions []*store.EventCompletion
	for rows.Next() {
		var completion store.EventCompletion
		if err := rows.Scan(
			&completion.ID,
			&completion.OwnerID,
			&completion.EventID,
			&completion.Date,
			&completion.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan event completion")
		}
		completions = append(completions, &completion)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate event completions")
	}
	return completions, nil
}

func (d *DB) CreateEventCompletion(ctx context.Context, create *store.EventCompletion) (*store.EventCompletion, error) {
	stmt := `
		INSERT INTO event_completion (owner_id, event_id, date, created_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id, event_id, date) DO NOTHING
		RETURNING id, created_ts
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.OwnerID,
		create.EventID,
		create.Date,
		time.Now().Unix(),
	).Scan(&create.ID, &create.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create event completion")
	}
	return create, nil
}

func (d *DB) DeleteEventCompletion(ctx context.Context, del *store.DeleteEventCompletion) error {
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM event_completion WHERE owner_id = ? AND event_id = ? AND date = ?",
		del.OwnerID, del.EventID, del.Date,
	); err != nil {
		return errors.Wrap(err, "failed to delete event completion")
	}
	return nil
}
