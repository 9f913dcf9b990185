// Package genstream is a client toolkit for text-generation services that
// expose a generate endpoint and stream newline-delimited JSON.
//
// Each subpackage can be used independently:
//
//   - generate: blocking and streaming client for the generate endpoint
//   - ndjson: chunk-boundary independent line decoder
//   - provider: backend-agnostic client interface and registry
//   - tokens: token estimation and context window budgets
//
// # Quick Start
//
// Streaming:
//
//	import "github.com/randalmurphal/genstream/generate"
//	client, _ := generate.New("http://localhost:11434/api/generate", "llama3.2")
//	for frag, err := range client.Stream(ctx, "Why is the sky blue?").All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(frag.Response)
//	}
//
// Through the provider registry:
//
//	import (
//	    "github.com/randalmurphal/genstream/provider"
//	    _ "github.com/randalmurphal/genstream/generate"
//	)
//	client, _ := provider.New("generate", provider.FromEnv())
//	resp, _ := client.Complete(ctx, provider.Request{Prompt: "Hello"})
//
// # Design Philosophy
//
//   - Each package usable independently
//   - No background goroutines in the core; streams are pulled by the caller
//   - Every exit path releases the connection
//   - Sensible defaults with full configurability
package genstream
