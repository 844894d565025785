package types

// Preset names a bundle of fixed sampling-parameter values.
type Preset string

const (
	PresetCreative Preset = "creative"
	PresetBalanced Preset = "balanced"
	PresetPrecise  Preset = "precise"
)

// ModelConfig holds the sampling parameters sent to the generation endpoint.
// The numeric fields carry the values last written by a preset selection or a
// manual edit. Preset keeps the name of the last selected preset even when a
// manual edit has since moved a field away from that preset's values.
type ModelConfig struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	TopK        int     `json:"top_k" yaml:"top_k"`
	TopP        float64 `json:"top_p" yaml:"top_p"`
	Preset      Preset  `json:"preset" yaml:"preset"`
}

// PresetValues maps each preset to its canonical parameter bundle.
var PresetValues = map[Preset]ModelConfig{
	PresetCreative: {Temperature: 1.2, MaxTokens: 200, TopK: 80, TopP: 0.95, Preset: PresetCreative},
	PresetBalanced: {Temperature: 0.7, MaxTokens: 150, TopK: 50, TopP: 0.9, Preset: PresetBalanced},
	PresetPrecise:  {Temperature: 0.3, MaxTokens: 100, TopK: 20, TopP: 0.8, Preset: PresetPrecise},
}

// Presets lists the known presets in display order.
var Presets = []Preset{PresetCreative, PresetBalanced, PresetPrecise}

// DefaultConfig returns the configuration a fresh session starts with.
func DefaultConfig() ModelConfig {
	return PresetValues[PresetBalanced]
}

// IsValidPreset reports whether name is one of the known presets.
func IsValidPreset(name Preset) bool {
	_, ok := PresetValues[name]
	return ok
}

// Field domains. The settings UI clamps edits to these ranges; the config
// store itself performs no validation.
const (
	TemperatureMin = 0.1
	TemperatureMax = 1.5
	MaxTokensMin   = 10
	MaxTokensMax   = 500
	TopKMin        = 1
	TopKMax        = 100
	TopPMin        = 0.1
	TopPMax        = 1.0
)

// Payload is the request body for the generation endpoint.
type Payload struct {
	Text        string  `json:"text"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
}

// ResponseData is the response body of the generation endpoint. Both fields
// are optional; absent fields get fallback values downstream.
type ResponseData struct {
	GeneratedText string `json:"generated_text"`
	TokensUsed    int    `json:"tokens_used"`
}

// NewPayload builds the request body for a prompt under cfg.
func NewPayload(prompt string, cfg ModelConfig) Payload {
	return Payload{
		Text:        prompt,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		TopK:        cfg.TopK,
		TopP:        cfg.TopP,
	}
}

// Preferences are user-tunable behavior switches stored in the config file.
type Preferences struct {
	SaveHistory      bool `yaml:"save_history"`
	MaxHistoryItems  int  `yaml:"max_history_items,omitempty"`
	AutoCopyResponse bool `yaml:"auto_copy_response,omitempty"`
	RevealIntervalMs int  `yaml:"reveal_interval_ms,omitempty"`
}
