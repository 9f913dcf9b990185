package generate

import (
	"iter"
	"strings"
	"sync"
)

// Accumulator joins streamed fragments into one response.
//
// Thread-safe for concurrent append and read operations.
type Accumulator struct {
	content   strings.Builder
	last      *Response
	fragments int
	done      bool
	mu        sync.RWMutex
}

// NewAccumulator creates an empty accumulator.
//
// Example:
//
//	acc := generate.NewAccumulator()
//	for frag, err := range session.All() {
//	    if err != nil {
//	        return err
//	    }
//	    acc.Append(frag)
//	}
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds a fragment's text. Nil fragments are ignored.
func (a *Accumulator) Append(frag *Response) {
	if frag == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.content.WriteString(frag.Response)
	a.last = frag
	a.fragments++
	if frag.Done {
		a.done = true
	}
}

// Content returns the text accumulated so far.
func (a *Accumulator) Content() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.content.String()
}

// Fragments returns how many fragments were appended.
func (a *Accumulator) Fragments() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fragments
}

// Done returns true once a fragment with Done set was appended.
func (a *Accumulator) Done() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Response returns the merged record: the joined text with the metadata of
// the last fragment. It returns nil if nothing was appended.
func (a *Accumulator) Response() *Response {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return nil
	}
	merged := *a.last
	merged.Response = a.content.String()
	merged.Raw = nil
	return &merged
}

// Tokens returns the generated token count: the service's EvalCount when it
// reported one, an estimate from the text otherwise.
func (a *Accumulator) Tokens() int {
	resp := a.Response()
	if resp == nil {
		return 0
	}
	return resp.Tokens()
}

// Collect drains seq into one merged response. On error it returns the
// response accumulated so far (possibly nil) together with the error.
func Collect(seq iter.Seq2[*Response, error]) (*Response, error) {
	acc := NewAccumulator()
	for frag, err := range seq {
		if err != nil {
			return acc.Response(), err
		}
		acc.Append(frag)
	}
	return acc.Response(), nil
}
