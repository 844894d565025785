package session

import (
	"errors"
	"strings"

	"promptbox/db"
	"promptbox/gen"
	"promptbox/types"
)

// ErrEmptyPrompt is returned when a generation is requested for a blank
// prompt. No network call is made and no history entry is created.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Generator is the collaborator that turns a prompt into text. *gen.Client
// satisfies it; tests substitute fakes.
type Generator interface {
	Generate(prompt string, cfg types.ModelConfig) (*gen.Result, error)
}

// Controller orchestrates generate-and-record cycles: it validates prompts,
// calls the generator, and keeps the persisted history collection in step
// with the in-memory one after every mutation.
type Controller struct {
	generator  Generator
	store      db.KV
	entries    db.HistoryCollection
	maxEntries int
}

// New builds a controller over the given generator and store, loading any
// previously persisted history. maxEntries caps the collection (0 = no cap);
// the oldest entries are dropped past the cap.
func New(generator Generator, store db.KV, maxEntries int) (*Controller, error) {
	entries, err := db.LoadHistory(store)
	if err != nil {
		return nil, err
	}
	return &Controller{
		generator:  generator,
		store:      store,
		entries:    entries,
		maxEntries: maxEntries,
	}, nil
}

// Generate runs one cycle for the prompt under cfg. The returned entry is
// always displayable: a collaborator failure degrades to deterministic demo
// content instead of surfacing an error. Only a blank prompt fails, with
// ErrEmptyPrompt.
func (c *Controller) Generate(prompt string, cfg types.ModelConfig) (db.HistoryEntry, error) {
	if strings.TrimSpace(prompt) == "" {
		return db.HistoryEntry{}, ErrEmptyPrompt
	}

	result, err := c.generator.Generate(prompt, cfg)
	if err != nil {
		result = gen.FallbackResult(prompt, cfg)
	}

	entry := db.NewHistoryEntry(prompt, result.Text, cfg, result.InferenceMs, result.TokensUsed)
	c.entries = append(db.HistoryCollection{entry}, c.entries...)
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.entries = c.entries[:c.maxEntries]
	}

	if err := db.SaveHistory(c.store, c.entries); err != nil {
		return entry, err
	}
	return entry, nil
}

// Entries returns a copy of the history, newest first.
func (c *Controller) Entries() db.HistoryCollection {
	out := make(db.HistoryCollection, len(c.entries))
	copy(out, c.entries)
	return out
}

// Select returns a copy of the entry with the given ID for the caller to
// restore prompt, response, and configuration from. Selecting never creates
// a new entry.
func (c *Controller) Select(id string) (db.HistoryEntry, bool) {
	for _, entry := range c.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return db.HistoryEntry{}, false
}

// Clear deletes the persisted collection and empties the in-memory one.
func (c *Controller) Clear() error {
	c.entries = db.HistoryCollection{}
	return db.ClearHistory(c.store)
}
