package gen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"promptbox/types"

	"github.com/hashicorp/go-retryablehttp"
)

// Fallback values used when the endpoint omits fields or is unreachable.
const (
	// MissingTextPlaceholder stands in for an absent generated_text field.
	MissingTextPlaceholder = "(no text returned)"
	// FallbackTokensUsed and FallbackInferenceMs are the fixed placeholder
	// stats recorded for demo-mode fallback entries.
	FallbackTokensUsed  = 50
	FallbackInferenceMs = 1200
)

// Result is one completed generation.
type Result struct {
	Text        string
	TokensUsed  int
	InferenceMs int
}

// Client calls the external generation endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a client with retry-enabled transport.
func NewClient(endpoint string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	client := &Client{
		endpoint:   endpoint,
		httpClient: retryClient.StandardClient(),
	}
	client.httpClient.Timeout = time.Second * 300
	return client
}

// Generate posts the prompt and configuration to the endpoint and returns the
// parsed result. The measured wall-clock latency covers the whole exchange,
// retries included.
func (c *Client) Generate(prompt string, cfg types.ModelConfig) (*Result, error) {
	payloadBytes, err := json.Marshal(types.NewPayload(prompt, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", c.endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("API request failed (%s): %s", resp.Status, string(body))
	}

	var data types.ResponseData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	text := data.GeneratedText
	if text == "" {
		text = MissingTextPlaceholder
	}
	tokens := data.TokensUsed
	if tokens == 0 {
		tokens = len(text) / 4
	}

	return &Result{
		Text:        text,
		TokensUsed:  tokens,
		InferenceMs: int(time.Since(start).Milliseconds()),
	}, nil
}

// FallbackText synthesizes the demo-mode response shown when the endpoint is
// unreachable or returns an error. It is deterministic in prompt and cfg so a
// failed generation always yields a displayable, reproducible entry.
func FallbackText(prompt string, cfg types.ModelConfig) string {
	return fmt.Sprintf(
		"This is a demo response. The generation service could not be reached, "+
			"so here is a placeholder continuation of your prompt: %q\n\n"+
			"Sampling settings: temperature %.2f, max tokens %d, top-k %d, top-p %.2f (%s preset).",
		prompt, cfg.Temperature, cfg.MaxTokens, cfg.TopK, cfg.TopP, cfg.Preset)
}

// FallbackResult packages FallbackText with the fixed placeholder stats.
func FallbackResult(prompt string, cfg types.ModelConfig) *Result {
	return &Result{
		Text:        FallbackText(prompt, cfg),
		TokensUsed:  FallbackTokensUsed,
		InferenceMs: FallbackInferenceMs,
	}
}
