package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	key := Key{Model: "qwen2.5:7b", From: "ja", To: "zh", Source: "そう、わかった"}

	if _, ok, err := store.Lookup(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Put(ctx, key, "对，明白了"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	got, ok, err := store.Lookup(ctx, key)
	if err != nil || !ok || got != "对，明白了" {
		t.Fatalf("Lookup = %q %v %v", got, ok, err)
	}

	if err := store.Put(ctx, key, "对，我明白了"); err != nil {
		t.Fatalf("Put overwrite returned error: %v", err)
	}
	if got, _, _ := store.Lookup(ctx, key); got != "对，我明白了" {
		t.Fatalf("overwrite not applied: %q", got)
	}

	other := key
	other.Model = "llama3"
	if _, ok, _ := store.Lookup(ctx, other); ok {
		t.Fatal("expected model to partition cache")
	}
}

func TestStoreStatsAndClear(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for _, key := range []Key{
		{Model: "m1", From: "ja", To: "zh", Source: "a"},
		{Model: "m1", From: "ja", To: "zh", Source: "b"},
		{Model: "m1", From: "ja", To: "en", Source: "a"},
	} {
		if err := store.Put(ctx, key, "x"); err != nil {
			t.Fatalf("Put returned error: %v", err)
		}
	}
	if _, _, err := store.Lookup(ctx, Key{Model: "m1", From: "ja", To: "zh", Source: "a"}); err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Entries != 3 || stats.Hits != 1 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if len(stats.Pairs) != 2 || stats.Pairs[0].To != "en" || stats.Pairs[1].Entries != 2 {
		t.Fatalf("unexpected pairs %+v", stats.Pairs)
	}

	removed, err := store.Clear(ctx)
	if err != nil || removed != 3 {
		t.Fatalf("Clear = %d, %v", removed, err)
	}
	if stats, _ := store.Stats(ctx); stats.Entries != 0 {
		t.Fatalf("expected empty cache, got %+v", stats)
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := first.Put(context.Background(), Key{Model: "m", From: "ja", To: "zh", Source: "s"}, "t"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer second.Close()
	if got, ok, _ := second.Lookup(context.Background(), Key{Model: "m", From: "ja", To: "zh", Source: "s"}); !ok || got != "t" {
		t.Fatalf("expected persisted entry, got %q %v", got, ok)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if isSQLiteBusy(nil) {
		t.Fatal("nil is not busy")
	}
	if !isSQLiteBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy detection from message")
	}
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("retryOnBusy = %v after %d calls", err, calls)
	}
}
