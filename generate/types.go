package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/randalmurphal/genstream/tokens"
)

// Request is the JSON body posted to the generate endpoint.
type Request struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`

	System    string          `json:"system,omitempty"`
	Suffix    string          `json:"suffix,omitempty"`
	Format    json.RawMessage `json:"format,omitempty"`
	Raw       bool            `json:"raw,omitempty"`
	KeepAlive string          `json:"keep_alive,omitempty"`
	Options   map[string]any  `json:"options,omitempty"`
}

// Response is one unit of generated output: the whole answer of a blocking
// call, or one fragment of a stream.
type Response struct {
	// Response is the generated text (a token or more when streaming).
	Response string `json:"response"`

	// Done is true on the final record of a session.
	Done bool `json:"done"`

	// Metadata reported by the service. Passed through unchanged.
	Model              string        `json:"model,omitempty"`
	CreatedAt          string        `json:"created_at,omitempty"`
	DoneReason         string        `json:"done_reason,omitempty"`
	Context            []int         `json:"context,omitempty"`
	TotalDuration      time.Duration `json:"total_duration,omitempty"`
	LoadDuration       time.Duration `json:"load_duration,omitempty"`
	PromptEvalCount    int           `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration time.Duration `json:"prompt_eval_duration,omitempty"`
	EvalCount          int           `json:"eval_count,omitempty"`
	EvalDuration       time.Duration `json:"eval_duration,omitempty"`

	// Raw is a copy of the JSON object this record was decoded from, so
	// fields not modelled above remain available.
	Raw json.RawMessage `json:"-"`
}

// fencedBlock matches a fenced code block tagged json or untagged.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?[ \t]*\r?\n(.*?)\r?\n?```")

// Decode unmarshals the generated text as JSON into v. It is meant for
// requests sent with a "json" or schema Format. Without a Format, models
// often wrap JSON in a fenced code block; the first such block is used when
// the text as a whole is not JSON.
func (r *Response) Decode(v any) error {
	text := strings.TrimSpace(r.Response)
	if text == "" {
		return errors.New("decode response: empty text")
	}
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if json.Unmarshal([]byte(m[1]), v) == nil {
			return nil
		}
	}
	return fmt.Errorf("decode response: %w", err)
}

// Tokens returns the service's EvalCount, or an estimate from the text when
// the service did not report one.
func (r *Response) Tokens() int {
	if r.EvalCount > 0 {
		return r.EvalCount
	}
	return tokens.EstimateTokens(r.Response)
}
