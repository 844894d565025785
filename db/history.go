package db

import (
	"encoding/json"
	"fmt"
	"time"

	"promptbox/types"

	"github.com/google/uuid"
)

// HistoryKey is the storage key holding the serialized collection.
const HistoryKey = "promptbox-history"

// NewHistoryEntry builds an entry for one generation attempt, stamping it with
// a fresh ID and the current time.
func NewHistoryEntry(prompt, response string, cfg types.ModelConfig, inferenceMs, tokensUsed int) HistoryEntry {
	return HistoryEntry{
		ID:              uuid.New().String(),
		Prompt:          prompt,
		Response:        response,
		Timestamp:       time.Now(),
		Config:          cfg,
		InferenceTimeMs: inferenceMs,
		TokensUsed:      tokensUsed,
	}
}

// LoadHistory reads the collection from the store. A missing key yields an
// empty collection. Malformed stored JSON also yields an empty collection:
// the store is a cache of past demo output, so losing it is preferable to
// refusing to start.
func LoadHistory(kv KV) (HistoryCollection, error) {
	raw, ok, err := kv.Get(HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if !ok {
		return HistoryCollection{}, nil
	}

	var entries HistoryCollection
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return HistoryCollection{}, nil
	}
	return entries, nil
}

// SaveHistory writes the whole collection back to the store.
func SaveHistory(kv KV, entries HistoryCollection) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := kv.Set(HistoryKey, string(data)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// ClearHistory removes the persisted collection.
func ClearHistory(kv KV) error {
	if err := kv.Delete(HistoryKey); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
