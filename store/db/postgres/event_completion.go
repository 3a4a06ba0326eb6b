package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GabrielVictorica/rutina/store"
)

func (db *DB) ListEventCompletions(ctx context.Context, find *store.FindEventCompletion) ([]*store.EventCompletion, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if find.EventID != nil {
		where, args = append(where, "event_id = "+placeholder(len(args)+1)), append(args, *find.EventID)
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
		SELECT id, owner_id, event_id, date, created_ts
		FROM event_completion
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date ASC, id ASC`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list event completions: %w", err)
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
			return nil, fmt.Errorf("failed to scan event completion: %w", err)
		}
		completions = append(completions, &completion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event completions: %w", err)
	}
	return completions, nil
}

func (db *DB) CreateEventCompletion(ctx context.Context, create *store.EventCompletion) (*store.EventCompletion, error) {
	query := `
		INSERT INTO event_completion (owner_id, event_id, date, created_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, event_id, date) DO NOTHING
		RETURNING id, created_ts
	`
	err := db.db.QueryRowContext(ctx, query,
		create.OwnerID,
		create.EventID,
		create.Date,
		time.Now().Unix(),
	).Scan(&create.ID, &create.CreatedTs)
	if err != nil {
		return nil, fmt.Errorf("failed to create event completion: %w", err)
	}
	return create, nil
}

func (db *DB) DeleteEventCompletion(ctx context.Context, del *store.DeleteEventCompletion) error {
	if _, err := db.db.ExecContext(ctx,
		"DELETE FROM event_completion WHERE owner_id = $1 AND event_id = $2 AND date = $3",
		del.OwnerID, del.EventID, del.Date,
	); err != nil {
		return fmt.Errorf("failed to delete event completion: %w", err)
	}
	return nil
}
