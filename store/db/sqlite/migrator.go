package sqlite

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/internal/version"
)

var latestSchema = `
CREATE TABLE IF NOT EXISTS schema_migration (
	version TEXT NOT NULL PRIMARY KEY,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE TABLE IF NOT EXISTS habit_category (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL DEFAULT '',
	emoji TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS habit (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	owner_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	category_id INTEGER NOT NULL,
	weekdays TEXT NOT NULL DEFAULT '',
	schedule_mode TEXT NOT NULL DEFAULT 'FLEXIBLE',
	fixed_time TEXT,
	estimated_minutes INTEGER NOT NULL DEFAULT 0,
	cognitive_load TEXT NOT NULL DEFAULT 'MEDIUM',
	active INTEGER NOT NULL DEFAULT 1,
	current_streak INTEGER NOT NULL DEFAULT 0,
	longest_streak INTEGER NOT NULL DEFAULT 0,
	calendar_event_id TEXT,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_habit_owner_id ON habit (owner_id);

CREATE TABLE IF NOT EXISTS daily_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	mood INTEGER NOT NULL DEFAULT 3,
	energy INTEGER NOT NULL DEFAULT 5,
	notes TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	UNIQUE(owner_id, date)
);

CREATE TABLE IF NOT EXISTS habit_completion (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	habit_id INTEGER NOT NULL,
	daily_log_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	completed_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	value REAL,
	UNIQUE(habit_id, date)
);
CREATE INDEX IF NOT EXISTS idx_habit_completion_date ON habit_completion (date);

CREATE TABLE IF NOT EXISTS event_completion (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id INTEGER NOT NULL,
	event_id TEXT NOT NULL,
	date TEXT NOT NULL,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	UNIQUE(owner_id, event_id, date)
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

// incrementalMigrations maps a schema version to the statements that bring an
// older database up to it. Versions are applied in semver order.
var incrementalMigrations = map[string][]string{}

// Migrate brings the database schema up to the current version.
func (d *DB) Migrate(ctx context.Context) error {
	initialized, err := d.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check initialization")
	}

	if !initialized {
		if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if _, err := d.db.ExecContext(ctx, seedCategories); err != nil {
			return errors.Wrap(err, "failed to seed categories")
		}
		return d.recordVersion(ctx, version.GetSchemaVersion(d.profile.Version))
	}

	// Existing database: ensure the migration bookkeeping table is present
	// before applying anything incremental.
	if _, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migration (
		version TEXT NOT NULL PRIMARY KEY,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`); err != nil {
		return errors.Wrap(err, "failed to create schema_migration table")
	}

	current, err := d.currentVersion(ctx)
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
			if _, err := d.db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "failed to apply migration %s", v)
			}
		}
		if err := d.recordVersion(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) currentVersion(ctx context.Context) (string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT version FROM schema_migration")
	if err != nil {
		return "", errors.Wrap(err, "failed to list applied migrations")
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", errors.Wrap(err, "failed to scan migration version")
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, "failed to iterate migrations")
	}
	if len(versions) == 0 {
		return "", nil
	}
	sort.Sort(version.SortVersion(versions))
	return versions[len(versions)-1], nil
}

func (d *DB) recordVersion(ctx context.Context, v string) error {
	if v == "" {
		v = "0.0"
	}
	if _, err := d.db.ExecContext(ctx, "INSERT INTO schema_migration (version) VALUES (?) ON CONFLICT (version) DO NOTHING", v); err != nil {
		return errors.Wrapf(err, "failed to record schema version %s", v)
	}
	return nil
}
