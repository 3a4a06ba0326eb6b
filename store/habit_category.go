package store

import "context"

// HabitCategory is static reference data seeded by the migrator. Read-only
// from the engine's perspective.
type HabitCategory struct {
	ID    int32
	Name  string
	Color string
	Emoji string
}

const categoryCacheKey = "categories"

func (s *Store) ListHabitCategories(ctx context.Context) ([]*HabitCategory, error) {
	if cached, ok := s.categoryCache.Get(categoryCacheKey); ok {
		return cached.([]*HabitCategory), nil
	}
	categories, err := s.driver.ListHabitCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.categoryCache.Set(categoryCacheKey, categories)
	return categories, nil
}

func (s *Store) GetHabitCategory(ctx context.Context, id int32) (*HabitCategory, error) {
	categories, err := s.ListHabitCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}
