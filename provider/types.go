package provider

import (
	"encoding/json"
	"time"
)

// Request configures one generation call.
type Request struct {
	// Prompt is the text to complete.
	Prompt string `json:"prompt"`

	// System overrides the backend's system prompt.
	System string `json:"system,omitempty"`

	// Model overrides the client's configured model.
	Model string `json:"model,omitempty"`

	// Suffix is text that should follow the generated completion.
	Suffix string `json:"suffix,omitempty"`

	// Format requests structured output: the JSON string "json" or a JSON schema.
	Format json.RawMessage `json:"format,omitempty"`

	// Options holds backend-specific model parameters (temperature, num_ctx...).
	Options map[string]any `json:"options,omitempty"`
}

// Response is the output of a completion call.
type Response struct {
	// Content is the generated text.
	Content string `json:"content"`

	// Model is the model that produced the response.
	Model string `json:"model"`

	// FinishReason indicates why generation stopped ("stop", "length").
	FinishReason string `json:"finish_reason"`

	// Usage tracks token consumption.
	Usage TokenUsage `json:"usage"`

	// Duration is the time taken for the completion.
	Duration time.Duration `json:"duration"`

	// Metadata holds backend-specific response data.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add combines token usage from another TokenUsage.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	// Content is the text in this chunk.
	Content string `json:"content,omitempty"`

	// Usage is set on the final chunk when the backend reports it.
	Usage *TokenUsage `json:"usage,omitempty"`

	// FinishReason is set on the final chunk.
	FinishReason string `json:"finish_reason,omitempty"`

	// Done indicates this is the final chunk.
	Done bool `json:"done"`

	// Error is non-nil if streaming failed. It is always the last chunk.
	Error error `json:"-"`
}
