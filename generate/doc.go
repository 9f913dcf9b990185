// Package generate is a client for a text-generation HTTP service exposing a
// generate endpoint (Ollama's /api/generate).
//
// # Usage
//
// A Client is bound to one endpoint and a model name. Creating it performs no
// I/O; it only validates the endpoint URL.
//
//	client, err := generate.New("http://localhost:11434/api/generate", "llama3.2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Blocking generation sends "stream": false and returns one Response:
//
//	resp, err := client.Generate(ctx, "Why is the sky blue?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Response)
//
// Streaming generation returns a Session whose All method yields fragments as
// the service produces them. The request is sent when iteration starts.
//
//	for frag, err := range client.Stream(ctx, "Why is the sky blue?").All() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(frag.Response)
//	}
//
// # Stream decoding
//
// The streaming body is newline-delimited JSON. Each transport read is fed to
// an ndjson.Decoder; every complete, non-blank line is parsed with
// ParseFragment and yielded. The sequence ends:
//
//   - after the first fragment with Done set (remaining bytes are discarded)
//   - after an error, which is always the last element
//   - when the consumer stops ranging, which closes the connection
//
// If the body ends without a Done fragment, an unterminated trailing line is
// parsed and yielded; without one the session fails with ErrTruncatedStream.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of the package sentinels, so
// callers branch with errors.Is:
//
//	switch {
//	case errors.Is(err, generate.ErrService):
//	    var e *generate.Error
//	    errors.As(err, &e)
//	    log.Printf("status %d: %s", e.StatusCode, e.Body)
//	case errors.Is(err, generate.ErrTransport):
//	    // connection refused, timeout, reset mid-stream
//	}
//
// The client never retries. IsRetryable classifies errors for callers that do.
//
// # Concurrency
//
// A Client may start any number of sessions concurrently; sessions share
// nothing except the model name, which SetModel may change at any time. A
// single Session must be consumed by one goroutine.
package generate
