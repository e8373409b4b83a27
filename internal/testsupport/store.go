package testsupport

import (
	"context"
	"testing"

	"eris/internal/config"
	"eris/internal/library"
	"eris/internal/logging"
	"eris/internal/novel"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustAddNovel inserts n and returns the stored record.
func MustAddNovel(t testing.TB, store *library.Store, n novel.Novel) *novel.Novel {
	t.Helper()

	added, err := store.Add(context.Background(), n)
	if err != nil {
		t.Fatalf("Add(%q): %v", n.Title, err)
	}
	return added
}
