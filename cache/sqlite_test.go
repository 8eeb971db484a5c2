package cache

import (
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	if _, ok := store.Get("session"); ok {
		t.Fatal("expected miss on empty store")
	}

	store.Set("session", `{"token":"tok-1"}`)
	val, ok := store.Get("session")
	if !ok || val != `{"token":"tok-1"}` {
		t.Fatalf("expected stored value, got %q (ok=%v)", val, ok)
	}

	store.Remove("session")
	store.Remove("session") // absent key is a no-op
	if _, ok := store.Get("session"); ok {
		t.Fatal("expected miss after remove")
	}
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := newTestSQLiteStore(t)

	store.Set("session", "v1")
	store.Set("session", "v2")

	val, ok := store.Get("session")
	if !ok || val != "v2" {
		t.Fatalf("expected v2 after upsert, got %q (ok=%v)", val, ok)
	}
}

func TestSQLiteStoreKeysIsolated(t *testing.T) {
	store := newTestSQLiteStore(t)

	store.Set("a", "va")
	store.Set("b", "vb")
	store.Remove("a")

	if _, ok := store.Get("a"); ok {
		t.Fatal("expected a removed")
	}
	if val, ok := store.Get("b"); !ok || val != "vb" {
		t.Fatalf("expected b untouched, got %q (ok=%v)", val, ok)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	store.Set("session", "persisted")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	val, ok := reopened.Get("session")
	if !ok || val != "persisted" {
		t.Fatalf("expected value to survive reopen, got %q (ok=%v)", val, ok)
	}
}
