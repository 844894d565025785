package config

import (
	"promptbox/types"
)

// Field identifies a numeric sampling parameter in the store.
type Field string

const (
	FieldTemperature Field = "temperature"
	FieldMaxTokens   Field = "max_tokens"
	FieldTopK        Field = "top_k"
	FieldTopP        Field = "top_p"
)

// Store holds the live sampling configuration for a session. It is
// single-threaded; callers mutate it from the UI event loop only.
type Store struct {
	current types.ModelConfig
}

// NewStore returns a store initialized to the balanced preset.
func NewStore() *Store {
	return &Store{current: types.DefaultConfig()}
}

// Current returns a copy of the active configuration.
func (s *Store) Current() types.ModelConfig {
	return s.current
}

// ApplyPreset replaces the whole configuration with the preset's canonical
// values. Unknown names are ignored.
func (s *Store) ApplyPreset(name types.Preset) {
	preset, ok := types.PresetValues[name]
	if !ok {
		return
	}
	s.current = preset
}

// UpdateField sets a single numeric field, leaving the preset tag untouched
// even when the new value disagrees with the tagged preset. The caller is
// responsible for clamping value to the field's domain.
func (s *Store) UpdateField(field Field, value float64) {
	switch field {
	case FieldTemperature:
		s.current.Temperature = value
	case FieldMaxTokens:
		s.current.MaxTokens = int(value)
	case FieldTopK:
		s.current.TopK = int(value)
	case FieldTopP:
		s.current.TopP = value
	}
}

// Reset restores the hardcoded default (balanced preset).
func (s *Store) Reset() {
	s.current = types.DefaultConfig()
}

// Restore overwrites the configuration with a snapshot, e.g. when recalling a
// history entry.
func (s *Store) Restore(cfg types.ModelConfig) {
	s.current = cfg
}

// Clamp bounds value to the field's documented domain.
func Clamp(field Field, value float64) float64 {
	min, max := domain(field)
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func domain(field Field) (float64, float64) {
	switch field {
	case FieldTemperature:
		return types.TemperatureMin, types.TemperatureMax
	case FieldMaxTokens:
		return types.MaxTokensMin, types.MaxTokensMax
	case FieldTopK:
		return types.TopKMin, types.TopKMax
	case FieldTopP:
		return types.TopPMin, types.TopPMax
	}
	return 0, 0
}
