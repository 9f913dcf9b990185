package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/genstream/provider"
)

// ProviderName is the name the package registers with the provider registry.
const ProviderName = "generate"

func init() {
	provider.Register(ProviderName, newFromProviderConfig)
}

// newFromProviderConfig creates a generate Client from a provider.Config.
// This is the factory function registered with the provider registry.
func newFromProviderConfig(cfg provider.Config) (provider.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	genCfg := Config{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		System:   cfg.SystemPrompt,
		Timeout:  cfg.Timeout,
	}

	// Map generate-specific options
	if cfg.Options != nil {
		genCfg.Format = cfg.GetStringOption("format", "")
		genCfg.KeepAlive = cfg.GetStringOption("keep_alive", "")
		genCfg.Suffix = cfg.GetStringOption("suffix", "")
		genCfg.Raw = cfg.GetBoolOption("raw", false)
		genCfg.ContextWindow = cfg.GetIntOption("context_window", 0)
		genCfg.Options = cfg.GetMapOption("model_options")
	}

	client, err := NewFromConfig(genCfg)
	if err != nil {
		return nil, toProviderError("new", err)
	}
	return &providerAdapter{client: client}, nil
}

// providerAdapter wraps Client to implement provider.Client.
type providerAdapter struct {
	client *Client
}

// Complete implements provider.Client.
func (a *providerAdapter) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	start := time.Now()
	resp, err := a.client.Do(ctx, fromProviderRequest(req))
	if err != nil {
		return nil, toProviderError("complete", err)
	}

	out := &provider.Response{
		Content:      resp.Response,
		Model:        resp.Model,
		FinishReason: resp.DoneReason,
		Usage:        usageOf(resp),
		Duration:     resp.TotalDuration,
		Metadata:     metadataOf(resp),
	}
	if out.Duration == 0 {
		out.Duration = time.Since(start)
	}
	return out, nil
}

// Stream implements provider.Client. The channel is closed when the session
// ends or ctx is cancelled; a failure arrives as the last chunk.
func (a *providerAdapter) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	session := a.client.StreamRequest(ctx, fromProviderRequest(req))
	ch := make(chan provider.StreamChunk)

	go func() {
		defer close(ch)

		send := func(chunk provider.StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for frag, err := range session.All() {
			if err != nil {
				send(provider.StreamChunk{Error: toProviderError("stream", err)})
				return
			}
			chunk := provider.StreamChunk{
				Content: frag.Response,
				Done:    frag.Done,
			}
			if frag.Done || session.State() == StateCompleted {
				usage := usageOf(frag)
				chunk.Usage = &usage
				chunk.FinishReason = frag.DoneReason
				chunk.Done = true
			}
			if !send(chunk) {
				return
			}
		}
	}()

	return ch, nil
}

// Provider implements provider.Client.
func (a *providerAdapter) Provider() string {
	return ProviderName
}

// Capabilities implements provider.Client.
func (a *providerAdapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Streaming:        true,
		StructuredOutput: true,
		SystemPrompt:     true,
	}
}

// Close implements provider.Client. The HTTP client is shared, so there is
// nothing to release.
func (a *providerAdapter) Close() error {
	return nil
}

func fromProviderRequest(req provider.Request) Request {
	return Request{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Suffix:  req.Suffix,
		Format:  req.Format,
		Options: req.Options,
	}
}

func usageOf(resp *Response) provider.TokenUsage {
	return provider.TokenUsage{
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		TotalTokens:  resp.PromptEvalCount + resp.EvalCount,
	}
}

func metadataOf(resp *Response) map[string]any {
	meta := map[string]any{}
	if resp.CreatedAt != "" {
		meta["created_at"] = resp.CreatedAt
	}
	if resp.LoadDuration > 0 {
		meta["load_duration"] = resp.LoadDuration
	}
	if resp.PromptEvalDuration > 0 {
		meta["prompt_eval_duration"] = resp.PromptEvalDuration
	}
	if resp.EvalDuration > 0 {
		meta["eval_duration"] = resp.EvalDuration
	}
	if len(resp.Context) > 0 {
		meta["context"] = resp.Context
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// toProviderError wraps err for the registry boundary, attaching the
// matching provider sentinel so callers can branch on either package.
func toProviderError(op string, err error) error {
	var sentinel error
	switch {
	case errors.Is(err, ErrPromptTooLong):
		sentinel = provider.ErrContextTooLong
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = provider.ErrTimeout
	case errors.Is(err, ErrTransport):
		sentinel = provider.ErrUnavailable
	case errors.Is(err, ErrInvalidEndpoint), errors.Is(err, ErrEmptyModel), errors.Is(err, ErrInvalidRequest):
		sentinel = provider.ErrInvalidRequest
	}
	if sentinel != nil {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return provider.NewError(ProviderName, op, err, IsRetryable(err))
}
