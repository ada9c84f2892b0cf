package testsupport

import (
	"testing"

	"subtrans/internal/cache"
	"subtrans/internal/config"
)

// MustOpenCache opens the config's translation cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
