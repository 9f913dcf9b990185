// Package provider defines a backend-neutral interface for text generation.
//
// Backends register a Factory under a name in their init function; callers
// pick one by name and talk to it through Client without importing the
// backend's own API.
//
//	import _ "github.com/randalmurphal/genstream/generate"
//
//	client, err := provider.New("generate", provider.Config{
//	    Endpoint: "http://localhost:11434/api/generate",
//	    Model:    "llama3.2",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Complete(ctx, provider.Request{Prompt: "Why is the sky blue?"})
//
// Streaming delivers chunks over a channel that is closed after the final
// chunk. A failure arrives as a chunk with Error set and ends the stream.
//
//	chunks, err := client.Stream(ctx, provider.Request{Prompt: "Tell me a story"})
//	for chunk := range chunks {
//	    if chunk.Error != nil {
//	        return chunk.Error
//	    }
//	    fmt.Print(chunk.Content)
//	}
package provider

import "context"

// Client is the backend-neutral generation interface.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream sends a request and returns a channel of response chunks.
	// The channel is closed when streaming ends; errors arrive as chunk.Error.
	// Cancelling ctx stops the stream and releases its connection.
	Stream(ctx context.Context, req Request) (<-chan StreamChunk, error)

	// Provider returns the registered provider name.
	Provider() string

	// Capabilities reports optional features the backend supports.
	Capabilities() Capabilities

	// Close releases any resources held by the client.
	Close() error
}

// Capabilities describes optional backend features.
type Capabilities struct {
	// Streaming indicates incremental responses are supported.
	Streaming bool `json:"streaming"`

	// StructuredOutput indicates Request.Format is honoured.
	StructuredOutput bool `json:"structured_output"`

	// SystemPrompt indicates Request.System is honoured.
	SystemPrompt bool `json:"system_prompt"`
}
