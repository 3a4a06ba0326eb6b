package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/GabrielVictorica/rutina/store"
)

func (d *DB) ListHabitCategories(ctx context.Context) ([]*store.HabitCategory, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, name, color, emoji FROM habit_category ORDER BY id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habit categories")
	}
	defer rows.Close()

	var categories []*store.HabitCategory
	for rows.Next() {
		var category store.HabitCategory
		if err := rows.Scan(&category.ID, &category.Name, &category.Color, &category.Emoji); err != nil {
			return nil, errors.Wrap(err, "failed to scan habit category")
		}
		categories = append(categories, &category)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate habit categories")
	}
	return categories, nil
}
