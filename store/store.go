package store

import (
	"context"
	"time"

	"github.com/GabrielVictorica/rutina/internal/profile"
	"github.com/GabrielVictorica/rutina/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Caches
	habitCache    *cache.Cache // active habits per owner
	categoryCache *cache.Cache // static category reference data
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}

	return &Store{
		driver:        driver,
		profile:       profile,
		habitCache:    cache.New(cacheConfig),
		categoryCache: cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.habitCache.Close()
	s.categoryCache.Close()
	return s.driver.Close()
}
