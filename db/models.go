package db

import (
	"time"

	"promptbox/types"
)

// HistoryEntry records one generation attempt: the prompt, the response shown
// to the user, and a snapshot of the sampling configuration used. The config
// is stored by value so later edits to the live configuration cannot reach
// back into recorded entries.
type HistoryEntry struct {
	ID              string            `json:"id"`
	Prompt          string            `json:"prompt"`
	Response        string            `json:"response"`
	Timestamp       time.Time         `json:"timestamp"`
	Config          types.ModelConfig `json:"config"`
	InferenceTimeMs int               `json:"inference_time_ms,omitempty"`
	TokensUsed      int               `json:"tokens_used,omitempty"`
}

// HistoryCollection is the ordered log of past generations, newest first.
// Insertion order is both the display order and the persisted order.
type HistoryCollection []HistoryEntry
