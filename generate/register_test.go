package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/genstream/provider"
)

func newStreamServer(t *testing.T, lines ...string) (*httptest.Server, *Request) {
	t.Helper()
	captured := &Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, decodeJSON(r.Body, captured))
		if !captured.Stream {
			fmt.Fprint(w, `{"model":"llama3.2","response":"full answer","done":true,"done_reason":"stop","prompt_eval_count":3,"eval_count":2,"total_duration":1000}`)
			return
		}
		for _, line := range lines {
			fmt.Fprintln(w, line)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestProvider_Registered(t *testing.T) {
	assert.True(t, provider.IsRegistered(ProviderName))
	assert.Contains(t, provider.Available(), "generate")
}

func TestProvider_Complete(t *testing.T) {
	srv, captured := newStreamServer(t)

	client, err := provider.New("generate", provider.Config{
		Endpoint:     srv.URL + "/api/generate",
		Model:        "llama3.2",
		SystemPrompt: "be brief",
		Options: map[string]any{
			"keep_alive":    "1m",
			"model_options": map[string]any{"temperature": 0.3},
		},
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "generate", client.Provider())
	assert.Equal(t, provider.Capabilities{Streaming: true, StructuredOutput: true, SystemPrompt: true}, client.Capabilities())

	resp, err := client.Complete(context.Background(), provider.Request{Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "full answer", resp.Content)
	assert.Equal(t, "llama3.2", resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, provider.TokenUsage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5}, resp.Usage)
	assert.Equal(t, time.Microsecond, resp.Duration)

	assert.False(t, captured.Stream)
	assert.Equal(t, "be brief", captured.System)
	assert.Equal(t, "1m", captured.KeepAlive)
	assert.Equal(t, 0.3, captured.Options["temperature"])
}

func TestProvider_Stream(t *testing.T) {
	srv, captured := newStreamServer(t,
		`{"response":"Hel","done":false}`,
		`{"response":"lo","done":false}`,
		`{"response":"","done":true,"done_reason":"stop","prompt_eval_count":4,"eval_count":2}`,
	)

	client, err := provider.New("generate", provider.Config{Endpoint: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	ch, err := client.Stream(context.Background(), provider.Request{Prompt: "hi", Model: "phi4"})
	require.NoError(t, err)

	var chunks []provider.StreamChunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hel", chunks[0].Content)
	assert.False(t, chunks[0].Done)
	assert.Nil(t, chunks[0].Usage)

	last := chunks[2]
	assert.True(t, last.Done)
	assert.NoError(t, last.Error)
	assert.Equal(t, "stop", last.FinishReason)
	require.NotNil(t, last.Usage)
	assert.Equal(t, 6, last.Usage.TotalTokens)

	assert.True(t, captured.Stream)
	assert.Equal(t, "phi4", captured.Model, "request model overrides the client's")
}

func TestProvider_StreamError(t *testing.T) {
	srv, _ := newStreamServer(t,
		`{"response":"a","done":false}`,
		`garbage`,
	)

	client, err := provider.New("generate", provider.Config{Endpoint: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	ch, err := client.Stream(context.Background(), provider.Request{Prompt: "hi"})
	require.NoError(t, err)

	var chunks []provider.StreamChunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	require.Len(t, chunks, 2)
	require.Error(t, chunks[1].Error)
	assert.ErrorIs(t, chunks[1].Error, ErrDecode)

	var provErr *provider.Error
	require.ErrorAs(t, chunks[1].Error, &provErr)
	assert.Equal(t, "stream", provErr.Op)
	assert.False(t, provErr.Retryable)
}

func TestProvider_StreamCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"a","done":false}`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := provider.New("generate", provider.Config{Endpoint: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := client.Stream(ctx, provider.Request{Prompt: "hi"})
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "a", first.Content)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "channel closes after cancel")
}

func TestProvider_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := provider.New("generate", provider.Config{Endpoint: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), provider.Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrService)
	assert.True(t, provider.IsRetryable(err))

	var provErr *provider.Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "generate", provErr.Provider)
	assert.Equal(t, "complete", provErr.Op)
}

func TestProvider_ContextTooLong(t *testing.T) {
	client, err := provider.New("generate", provider.Config{
		Endpoint: testEndpoint,
		Model:    "llama3.2",
		Options:  map[string]any{"context_window": 16},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), provider.Request{Prompt: strings.Repeat("token ", 50)})
	assert.ErrorIs(t, err, provider.ErrContextTooLong)
	assert.ErrorIs(t, err, ErrPromptTooLong)
	assert.False(t, provider.IsRetryable(err))
}

func TestProvider_InvalidConfig(t *testing.T) {
	_, err := provider.New("generate", provider.Config{Endpoint: "nope", Model: "llama3.2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)

	_, err = provider.New("generate", provider.Config{Timeout: -time.Second})
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
}

func TestToProviderError(t *testing.T) {
	transport := &Error{Op: "generate", Kind: ErrTransport, Err: errors.New("refused")}
	err := toProviderError("complete", transport)
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.True(t, provider.IsRetryable(err))

	timeout := &Error{Op: "generate", Kind: ErrTransport, Err: context.DeadlineExceeded}
	err = toProviderError("complete", timeout)
	assert.ErrorIs(t, err, provider.ErrTimeout)

	decode := &Error{Op: "parse", Kind: ErrDecode}
	err = toProviderError("stream", decode)
	assert.NotErrorIs(t, err, provider.ErrUnavailable)
	assert.False(t, provider.IsRetryable(err))
}
