package db_test

import (
	"path/filepath"
	"testing"

	"promptbox/db"
	"promptbox/types"
)

func TestHistory_SaveLoadRoundTrip(t *testing.T) {
	kv := db.NewMemory()

	first := db.NewHistoryEntry("p1", "r1", types.DefaultConfig(), 120, 30)
	second := db.NewHistoryEntry("p2", "r2", types.PresetValues[types.PresetCreative], 90, 44)
	entries := db.HistoryCollection{second, first}

	if err := db.SaveHistory(kv, entries); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := db.LoadHistory(kv)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(loaded))
	}
	if loaded[0].ID != second.ID || loaded[1].ID != first.ID {
		t.Error("persisted order does not match insertion order")
	}
	if loaded[0].Config != second.Config {
		t.Errorf("config snapshot = %+v, want %+v", loaded[0].Config, second.Config)
	}
	if loaded[1].InferenceTimeMs != 120 || loaded[1].TokensUsed != 30 {
		t.Errorf("stats not preserved: %+v", loaded[1])
	}
}

func TestLoadHistory_MissingKey(t *testing.T) {
	entries, err := db.LoadHistory(db.NewMemory())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}

func TestLoadHistory_MalformedJSON(t *testing.T) {
	kv := db.NewMemory()
	kv.Set(db.HistoryKey, "{not json")

	entries, err := db.LoadHistory(kv)
	if err != nil {
		t.Fatalf("malformed history should load fail-open, got error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}

func TestClearHistory(t *testing.T) {
	kv := db.NewMemory()
	db.SaveHistory(kv, db.HistoryCollection{db.NewHistoryEntry("p", "r", types.DefaultConfig(), 0, 0)})

	if err := db.ClearHistory(kv); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if _, ok, _ := kv.Get(db.HistoryKey); ok {
		t.Error("persisted key still present after clear")
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := db.OpenFile(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Errorf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := store.Set("k", "v1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set("k", "v2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	v, ok, err := store.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Errorf("Get(k) = %q ok=%v err=%v, want v2", v, ok, err)
	}

	if err := store.Delete("k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Error("key still present after delete")
	}

	// Deleting a missing key is not an error.
	if err := store.Delete("k"); err != nil {
		t.Errorf("deleting missing key: %v", err)
	}
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := db.OpenFile(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	db.SaveHistory(store, db.HistoryCollection{db.NewHistoryEntry("p", "r", types.DefaultConfig(), 5, 5)})
	store.Close()

	reopened, err := db.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	entries, err := db.LoadHistory(reopened)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Prompt != "p" {
		t.Errorf("entries after reopen = %+v", entries)
	}
}
