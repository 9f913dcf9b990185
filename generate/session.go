package generate

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/genstream/ndjson"
)

// readBufferSize is the size of each transport read while streaming.
const readBufferSize = 32 * 1024

// State is the lifecycle stage of a streaming Session.
type State int32

const (
	// StateIdle means no request has been sent yet.
	StateIdle State = iota
	// StateAwaitingResponse means the request is in flight.
	StateAwaitingResponse
	// StateStreaming means a 2xx response is being read.
	StateStreaming
	// StateCompleted means a done record, or a final trailing record, was yielded.
	StateCompleted
	// StateErrored means the session ended with an error element.
	StateErrored
	// StateAbandoned means the consumer stopped ranging before the end.
	StateAbandoned
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateErrored || s == StateAbandoned
}

// Session is one streaming request. It is single-pass: ranging All a
// second time yields ErrSessionConsumed.
type Session struct {
	id     uuid.UUID
	ctx    context.Context
	client *Client
	req    Request

	state   atomic.Int32
	started atomic.Bool
}

// Stream creates a streaming session for prompt. Nothing is sent until
// iteration of All starts.
func (c *Client) Stream(ctx context.Context, prompt string) *Session {
	return c.StreamRequest(ctx, Request{Prompt: prompt})
}

// StreamRequest creates a streaming session for req. Empty fields are filled
// from the client's defaults and Stream is forced to true.
func (c *Client) StreamRequest(ctx context.Context, req Request) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Session{
		id:     uuid.New(),
		ctx:    ctx,
		client: c,
		req:    req,
	}
}

// ID returns the session's unique id, also logged as session_id.
func (s *Session) ID() string {
	return s.id.String()
}

// State returns the current state. It is safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// All returns the fragments of the response in arrival order.
//
// Each element is either a fragment or an error; an error is always the last
// element. Iteration ends after the first fragment with Done set. Breaking
// out of the range loop closes the connection before the loop exits.
func (s *Session) All() iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		if !s.started.CompareAndSwap(false, true) {
			yield(nil, &Error{Op: "stream", Kind: ErrSessionConsumed})
			return
		}
		s.run(yield)
	}
}

// run drives one request through the state machine.
func (s *Session) run(yield func(*Response, error) bool) {
	const op = "stream"
	c := s.client
	start := time.Now()

	req := c.prepare(s.req, true)
	logger := c.logger.With(
		slog.String("session_id", s.ID()),
		slog.String("model", req.Model),
	)

	var (
		fragments int
		outcome   = outcomeAbandoned
	)
	defer func() {
		elapsed := time.Since(start)
		c.metrics.observeSession(modeStream, outcome, elapsed)
		logger.Debug("stream ended",
			slog.String("outcome", outcome),
			slog.String("state", s.State().String()),
			slog.Int("fragments", fragments),
			slog.Duration("duration", elapsed),
		)
	}()

	fail := func(o string, err error) {
		outcome = o
		s.setState(StateErrored)
		yield(nil, err)
	}

	s.setState(StateAwaitingResponse)
	logger.Debug("stream started", slog.String("endpoint", c.Endpoint()))

	if err := c.checkBudget(op, req); err != nil {
		fail(outcomeRejected, err)
		return
	}

	resp, err := c.send(s.ctx, op, req)
	if err != nil {
		fail(outcomeOf(err), err)
		return
	}
	defer resp.Body.Close()
	s.setState(StateStreaming)

	// emit yields one parsed line. It returns false when iteration must stop.
	emit := func(frag *Response) bool {
		fragments++
		c.metrics.observeFragment(req.Model)
		if frag.Done {
			outcome = outcomeCompleted
			s.setState(StateCompleted)
			yield(frag, nil)
			return false
		}
		if !yield(frag, nil) {
			s.setState(StateAbandoned)
			return false
		}
		return true
	}

	dec := ndjson.NewDecoder()
	buf := make([]byte, readBufferSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			for _, line := range dec.Feed(buf[:n]) {
				frag, perr := ParseFragment([]byte(line))
				if perr != nil {
					fail(outcomeDecode, perr)
					return
				}
				if frag == nil {
					continue
				}
				if !emit(frag) {
					return
				}
			}
			if derr := dec.Err(); derr != nil {
				fail(outcomeDecode, &Error{Op: op, Kind: ErrDecode, Err: derr})
				return
			}
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			fail(outcomeTransport, &Error{Op: op, Kind: ErrTransport, Err: rerr})
			return
		}
	}

	// The body ended without a done record.
	line, ok := dec.Finish()
	if !ok {
		fail(outcomeTruncated, &Error{Op: op, Kind: ErrTruncatedStream})
		return
	}
	frag, perr := ParseFragment([]byte(line))
	if perr != nil {
		fail(outcomeTruncated, &Error{Op: op, Kind: ErrTruncatedStream, Err: perr})
		return
	}
	if frag == nil {
		fail(outcomeTruncated, &Error{Op: op, Kind: ErrTruncatedStream})
		return
	}
	fragments++
	c.metrics.observeFragment(req.Model)
	outcome = outcomeCompleted
	s.setState(StateCompleted)
	yield(frag, nil)
}
