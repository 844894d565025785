package session_test

import (
	"errors"
	"strings"
	"testing"

	"promptbox/db"
	"promptbox/gen"
	"promptbox/session"
	"promptbox/types"
)

type fakeGenerator struct {
	result *gen.Result
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(prompt string, cfg types.ModelConfig) (*gen.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newController(t *testing.T, g session.Generator, kv db.KV) *session.Controller {
	t.Helper()
	c, err := session.New(g, kv, 0)
	if err != nil {
		t.Fatalf("failed to build controller: %v", err)
	}
	return c
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t "} {
		g := &fakeGenerator{result: &gen.Result{Text: "x"}}
		kv := db.NewMemory()
		c := newController(t, g, kv)

		_, err := c.Generate(prompt, types.DefaultConfig())

		if !errors.Is(err, session.ErrEmptyPrompt) {
			t.Errorf("Generate(%q) error = %v, want ErrEmptyPrompt", prompt, err)
		}
		if g.calls != 0 {
			t.Errorf("Generate(%q) called the collaborator", prompt)
		}
		if len(c.Entries()) != 0 {
			t.Errorf("Generate(%q) created a history entry", prompt)
		}
	}
}

func TestGenerate_Success(t *testing.T) {
	g := &fakeGenerator{result: &gen.Result{Text: "generated text", TokensUsed: 21, InferenceMs: 84}}
	kv := db.NewMemory()
	c := newController(t, g, kv)
	cfg := types.PresetValues[types.PresetCreative]

	entry, err := c.Generate("tell me a story", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Prompt != "tell me a story" || entry.Response != "generated text" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Config != cfg {
		t.Errorf("config snapshot = %+v, want %+v", entry.Config, cfg)
	}
	if entry.TokensUsed != 21 || entry.InferenceTimeMs != 84 {
		t.Errorf("stats = %+v", entry)
	}
	if entry.ID == "" || entry.Timestamp.IsZero() {
		t.Errorf("entry missing identity: %+v", entry)
	}

	// Persisted collection mirrors the in-memory one.
	persisted, err := db.LoadHistory(kv)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != entry.ID {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestGenerate_FailingCollaboratorFallsBack(t *testing.T) {
	g := &fakeGenerator{err: errors.New("connection refused")}
	kv := db.NewMemory()
	c := newController(t, g, kv)

	entry, err := c.Generate("test prompt", types.DefaultConfig())
	if err != nil {
		t.Fatalf("collaborator failure must not surface as an error, got: %v", err)
	}

	if !strings.Contains(entry.Response, `"test prompt"`) {
		t.Errorf("fallback response should echo the prompt: %q", entry.Response)
	}
	if entry.TokensUsed != gen.FallbackTokensUsed || entry.InferenceTimeMs != gen.FallbackInferenceMs {
		t.Errorf("fallback stats = %+v", entry)
	}
	if got := len(c.Entries()); got != 1 {
		t.Errorf("history length = %d, want exactly 1", got)
	}
}

func TestGenerate_PrependsNewestFirst(t *testing.T) {
	g := &fakeGenerator{result: &gen.Result{Text: "r"}}
	c := newController(t, g, db.NewMemory())

	first, _ := c.Generate("first", types.DefaultConfig())
	second, _ := c.Generate("second", types.DefaultConfig())

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("history length = %d, want 2", len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Error("entries are not newest-first")
	}
}

func TestGenerate_CapsHistory(t *testing.T) {
	g := &fakeGenerator{result: &gen.Result{Text: "r"}}
	c, err := session.New(g, db.NewMemory(), 2)
	if err != nil {
		t.Fatal(err)
	}

	c.Generate("one", types.DefaultConfig())
	c.Generate("two", types.DefaultConfig())
	c.Generate("three", types.DefaultConfig())

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("history length = %d, want 2", len(entries))
	}
	if entries[0].Prompt != "three" || entries[1].Prompt != "two" {
		t.Errorf("oldest entry should be dropped, got %q then %q", entries[0].Prompt, entries[1].Prompt)
	}
}

func TestSelect_SnapshotIsolation(t *testing.T) {
	g := &fakeGenerator{result: &gen.Result{Text: "r"}}
	c := newController(t, g, db.NewMemory())

	cfg := types.PresetValues[types.PresetPrecise]
	entry, _ := c.Generate("prompt", cfg)

	selected, ok := c.Select(entry.ID)
	if !ok {
		t.Fatal("entry not found")
	}
	if selected.Config != cfg {
		t.Errorf("selected config = %+v, want %+v", selected.Config, cfg)
	}

	// Mutating the returned copy must not affect the stored entry.
	selected.Config.Temperature = 9.9
	again, _ := c.Select(entry.ID)
	if again.Config.Temperature != cfg.Temperature {
		t.Error("mutating a selected entry leaked into the stored collection")
	}

	if len(c.Entries()) != 1 {
		t.Error("selecting an entry must not create a new one")
	}
}

func TestSelect_UnknownID(t *testing.T) {
	c := newController(t, &fakeGenerator{result: &gen.Result{Text: "r"}}, db.NewMemory())
	if _, ok := c.Select("nope"); ok {
		t.Error("expected miss for unknown ID")
	}
}

func TestClear(t *testing.T) {
	g := &fakeGenerator{result: &gen.Result{Text: "r"}}
	kv := db.NewMemory()
	c := newController(t, g, kv)
	c.Generate("prompt", types.DefaultConfig())

	if err := c.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if len(c.Entries()) != 0 {
		t.Error("in-memory history not empty after clear")
	}
	if _, ok, _ := kv.Get(db.HistoryKey); ok {
		t.Error("persisted key still present after clear")
	}
}

func TestNew_LoadsExistingHistory(t *testing.T) {
	kv := db.NewMemory()
	seed := db.NewHistoryEntry("old prompt", "old response", types.DefaultConfig(), 10, 10)
	if err := db.SaveHistory(kv, db.HistoryCollection{seed}); err != nil {
		t.Fatal(err)
	}

	c := newController(t, &fakeGenerator{result: &gen.Result{Text: "r"}}, kv)

	entries := c.Entries()
	if len(entries) != 1 || entries[0].ID != seed.ID {
		t.Errorf("loaded entries = %+v", entries)
	}
}
