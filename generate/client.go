package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/genstream/tokens"
)

// Client sends prompts to one generate endpoint.
//
// A Client is safe for concurrent use. Sessions started from it share only
// the model name.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	logger   *slog.Logger
	metrics  *Metrics

	// defaults are merged into every request.
	defaults      Request
	timeout       time.Duration
	contextWindow int
	counter       tokens.Counter

	// optErr is the first error raised while applying options.
	optErr error

	mu    sync.RWMutex
	model string
}

// New creates a Client for endpoint and model. No I/O is performed.
func New(endpoint, model string, opts ...Option) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, &Error{Op: "new", Kind: ErrInvalidEndpoint, Err: err}
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, &Error{Op: "new", Kind: ErrEmptyModel}
	}

	c := &Client{
		endpoint: u,
		http:     http.DefaultClient,
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		counter:  tokens.NewEstimatingCounter(),
		model:    model,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.optErr != nil {
		return nil, &Error{Op: "new", Kind: ErrInvalidRequest, Err: c.optErr}
	}
	return c, nil
}

// Endpoint returns the generate URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Model returns the current model name.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel replaces the model used by sessions started after the call.
func (c *Client) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &Error{Op: "set_model", Kind: ErrEmptyModel}
	}
	c.mu.Lock()
	c.model = name
	c.mu.Unlock()
	return nil
}

// Generate sends prompt with "stream": false and returns the whole response.
func (c *Client) Generate(ctx context.Context, prompt string) (*Response, error) {
	return c.Do(ctx, Request{Prompt: prompt})
}

// Do sends req as a blocking request. Empty fields of req are filled from
// the client's defaults; Stream is always forced to false.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	const op = "generate"
	start := time.Now()

	req = c.prepare(req, false)
	if err := c.checkBudget(op, req); err != nil {
		c.metrics.observeSession(modeBlocking, outcomeRejected, time.Since(start))
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.send(ctx, op, req)
	if err != nil {
		c.metrics.observeSession(modeBlocking, outcomeOf(err), time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &Error{Op: op, Kind: ErrTransport, Err: fmt.Errorf("read body: %w", err)}
		c.metrics.observeSession(modeBlocking, outcomeTransport, time.Since(start))
		return nil, err
	}

	out, err := decodeResponse(data)
	if err != nil {
		c.metrics.observeSession(modeBlocking, outcomeDecode, time.Since(start))
		return nil, &Error{Op: op, Kind: ErrDecode, Err: err}
	}

	c.metrics.observeSession(modeBlocking, outcomeCompleted, time.Since(start))
	c.metrics.observeFragment(req.Model)
	c.logger.Debug("generate completed",
		slog.String("model", req.Model),
		slog.Int("eval_count", out.EvalCount),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// prepare merges the client defaults into req.
func (c *Client) prepare(req Request, stream bool) Request {
	req.Stream = stream
	if req.Model == "" {
		req.Model = c.Model()
	}
	if req.System == "" {
		req.System = c.defaults.System
	}
	if req.Suffix == "" {
		req.Suffix = c.defaults.Suffix
	}
	if len(req.Format) == 0 {
		req.Format = c.defaults.Format
	}
	if !req.Raw {
		req.Raw = c.defaults.Raw
	}
	if req.KeepAlive == "" {
		req.KeepAlive = c.defaults.KeepAlive
	}
	if len(c.defaults.Options) > 0 {
		merged := make(map[string]any, len(c.defaults.Options)+len(req.Options))
		for k, v := range c.defaults.Options {
			merged[k] = v
		}
		for k, v := range req.Options {
			merged[k] = v
		}
		req.Options = merged
	}
	return req
}

// checkBudget rejects prompts that do not fit the configured context window.
func (c *Client) checkBudget(op string, req Request) error {
	window := c.windowFor(req)
	if window <= 0 {
		return nil
	}
	budget := tokens.NewBudget(window).WithCounter(c.counter)
	if budget.Fits(req.System, req.Prompt) {
		return nil
	}
	return &Error{
		Op:   op,
		Kind: ErrPromptTooLong,
		Err: fmt.Errorf("%d estimated tokens, %d available in a %d token window",
			budget.Used(req.System, req.Prompt), budget.Available(), window),
	}
}

// windowFor resolves the context window in tokens, or 0 when unchecked.
func (c *Client) windowFor(req Request) int {
	switch {
	case c.contextWindow > 0:
		return c.contextWindow
	case c.contextWindow < 0:
		if n := numCtx(req.Options); n > 0 {
			return n
		}
		return tokens.ContextWindow(req.Model)
	}
	return 0
}

// numCtx reads the "num_ctx" model option.
func numCtx(opts map[string]any) int {
	switch v := opts["num_ctx"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// send posts req and returns a response with a 2xx status. The caller owns
// the body.
func (c *Client) send(ctx context.Context, op string, req Request) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrInvalidRequest, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrInvalidRequest, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "application/x-ndjson")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrTransport, Err: err}
	}
	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// checkStatus turns a non-2xx response into an ErrService error and closes
// its body. The body is kept as text; it is never decoded.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &Error{
		Op:         op,
		Kind:       ErrService,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(data)),
	}
	if err != nil {
		e.Err = fmt.Errorf("read error body: %w", err)
	}
	return e
}

// outcomeOf maps an error to its metrics outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeCompleted
	case errors.Is(err, ErrTransport):
		return outcomeTransport
	case errors.Is(err, ErrService):
		return outcomeService
	case errors.Is(err, ErrTruncatedStream):
		return outcomeTruncated
	case errors.Is(err, ErrDecode):
		return outcomeDecode
	}
	return outcomeRejected
}
