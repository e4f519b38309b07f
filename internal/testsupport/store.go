package testsupport

import (
	"testing"

	"quotereel/internal/config"
	"quotereel/internal/jobstore"
)

// MustOpenStore opens the configured job store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) jobstore.Store {
	t.Helper()

	store, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
