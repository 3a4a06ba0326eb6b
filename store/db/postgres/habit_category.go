package postgres

import (
	"context"
	"fmt"

	"github.com/GabrielVictorica/rutina/store"
)

func (db *DB) ListHabitCategories(ctx context.Context) ([]*store.HabitCategory, error) {
	rows, err := db.db.QueryContext(ctx, "SELECT id, name, color, emoji FROM habit_category ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list habit categories: %w", err)
	}
	defer rows.Close()

	var categories []*store.HabitCategory
	for rows.Next() {
		var category store.HabitCategory
		if err := rows.Scan(&category.ID, &category.Name, &category.Color, &category.Emoji); err != nil {
			return nil, fmt.Errorf("failed to scan habit category: %w", err)
		}
		categories = append(categories, &category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habit categories: %w", err)
	}
	return categories, nil
}
