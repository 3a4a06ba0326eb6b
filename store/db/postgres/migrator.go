package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/GabrielVictorica/rutina/internal/version"
)

var latestSchema = `
CREATE TABLE IF NOT EXISTS schema_migration (
	version TEXT NOT NULL PRIMARY KEY,
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
);

CREATE TABLE IF NOT EXISTS habit_category (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL DEFAULT '',
	emoji TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS habit (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	owner_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	category_id INTEGER NOT NULL,
	weekdays TEXT NOT NULL DEFAULT '',
	schedule_mode TEXT NOT NULL DEFAULT 'FLEXIBLE',
	fixed_time TEXT,
	estimated_minutes INTEGER NOT NULL DEFAULT 0,
	cognitive_load TEXT NOT NULL DEFAULT 'MEDIUM',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	current_streak INTEGER NOT NULL DEFAULT 0,
	longest_streak INTEGER NOT NULL DEFAULT 0,
	calendar_event_id TEXT,
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
);
CREATE INDEX IF NOT EXISTS idx_habit_owner_id ON habit (owner_id);

CREATE TABLE IF NOT EXISTS daily_log (
	id SERIAL PRIMARY KEY,
	owner_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	mood INTEGER NOT NULL DEFAULT 3,
	energy INTEGER NOT NULL DEFAULT 5,
	notes TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	UNIQUE (owner_id, date)
);

CREATE TABLE IF NOT EXISTS habit_completion (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	habit_id INTEGER NOT NULL,
	daily_log_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	completed_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	value DOUBLE PRECISION,
	UNIQUE (habit_id, date)
);
CREATE INDEX IF NOT EXISTS idx_habit_completion_date ON habit_completion (date);

CREATE TABLE IF NOT EXISTS event_completion (
	id SERIAL PRIMARY KEY,
	owner_id INTEGER NOT NULL,
	event_id TEXT NOT NULL,
	date TEXT NOT NULL,
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	UNIQUE (owner_id, event_id, date)
);
`

var seedCategories = `
INSERT INTO habit_category (name, color, emoji) VALUES
	('Salud', '#34d399', '💪'),
	('Mente', '#818cf8', '🧠'),
	('Trabajo', '#fbbf24', '💼'),
	('Relaciones', '#f472b6', '❤️'),
	('Finanzas', '#60a5fa', '💰')
ON CONFLICT (name) DO NOTHING;
`

var incrementalMigrations = map[string][]string{}

// Migrate brings the database schema up to the current version.
func (db *DB) Migrate(ctx context.Context) error {
	initialized, err := db.IsInitialized(ctx)
	if err != nil {
		return fmt.Errorf("failed to check initialization: %w", err)
	}

	if !initialized {
		if _, err := db.db.ExecContext(ctx, latestSchema); err != nil {
			return fmt.Errorf("failed to apply latest schema: %w", err)
		}
		if _, err := db.db.ExecContext(ctx, seedCategories); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		return db.recordVersion(ctx, version.GetSchemaVersion(db.profile.Version))
	}

	if _, err := db.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migration (
		version TEXT NOT NULL PRIMARY KEY,
		created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migration table: %w", err)
	}

	current, err := db.currentVersion(ctx)
	if err != nil {
		return err
	}

	versions := make([]string, 0, len(incrementalMigrations))
	for v := range incrementalMigrations {
		versions = append(versions, v)
	}
	sort.Sort(version.SortVersion(versions))

	for _, v := range versions {
		if current != "" && !version.IsVersionGreaterThan(v, current) {
			continue
		}
		for _, stmt := range incrementalMigrations[v] {
			if _, err := db.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", v, err)
			}
		}
		if err := db.recordVersion(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) currentVersion(ctx context.Context) (string, error) {
	rows, err := db.db.QueryContext(ctx, "SELECT version FROM schema_migration")
	if err != nil {
		return "", fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", fmt.Errorf("failed to scan migration version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to iterate migrations: %w", err)
	}
	if len(versions) == 0 {
		return "", nil
	}
	sort.Sort(version.SortVersion(versions))
	return versions[len(versions)-1], nil
}

func (db *DB) recordVersion(ctx context.Context, v string) error {
	if v == "" {
		v = "0.0"
	}
	if _, err := db.db.ExecContext(ctx,
		"INSERT INTO schema_migration (version) VALUES ($1) ON CONFLICT (version) DO NOTHING", v,
	); err != nil {
		return fmt.Errorf("failed to record schema version %s: %w", v, err)
	}
	return nil
}
