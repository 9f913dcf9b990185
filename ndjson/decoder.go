// Package ndjson splits a byte stream into newline-delimited lines.
//
// A Decoder bridges network read boundaries and line boundaries: callers feed
// it whatever chunks the transport returns and get back only complete lines.
// Incomplete trailing data stays buffered until the next Feed, so a line (or
// its terminator) split across two reads is emitted exactly once.
//
//	dec := ndjson.NewDecoder()
//	for {
//	    n, err := body.Read(buf)
//	    for _, line := range dec.Feed(buf[:n]) {
//	        handle(line)
//	    }
//	    if err == io.EOF {
//	        if line, ok := dec.Finish(); ok {
//	            handle(line)
//	        }
//	        break
//	    }
//	}
//
// A Decoder is not safe for concurrent use.
package ndjson

import (
	"bytes"
	"errors"
)

// DefaultMaxLineSize caps how large a single unterminated line may grow.
const DefaultMaxLineSize = 16 * 1024 * 1024

// ErrLineTooLong is reported by Err once a line exceeds the decoder's limit.
var ErrLineTooLong = errors.New("ndjson: line exceeds maximum size")

// Decoder accumulates bytes and yields complete lines.
//
// The buffer never holds a line terminator after Feed returns: it only ever
// contains the start of a line that has not been terminated yet.
type Decoder struct {
	buf     []byte
	maxLine int
	err     error
}

// NewDecoder creates a decoder with DefaultMaxLineSize.
func NewDecoder() *Decoder {
	return NewDecoderSize(DefaultMaxLineSize)
}

// NewDecoderSize creates a decoder that rejects lines longer than maxLine bytes.
// If maxLine is <= 0, DefaultMaxLineSize is used.
func NewDecoderSize(maxLine int) *Decoder {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}
	return &Decoder{maxLine: maxLine}
}

// Feed appends p to the buffer and returns every line it completes, with the
// terminator stripped. Both "\n" and "\r\n" terminate a line. Empty lines are
// returned as empty strings; callers decide whether they carry a payload.
//
// Once the decoder has failed (see Err), Feed returns nil.
func (d *Decoder) Feed(p []byte) []string {
	if d.err != nil {
		return nil
	}
	d.buf = append(d.buf, p...)

	var lines []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(trimCR(d.buf[:i])))
		d.buf = d.buf[i+1:]
	}

	if len(d.buf) > d.maxLine {
		d.err = ErrLineTooLong
		d.buf = nil
		return lines
	}

	// Reclaim the consumed prefix so long streams don't pin old chunks.
	if len(d.buf) == 0 {
		d.buf = d.buf[:0:0]
	}
	return lines
}

// Finish flushes a trailing unterminated line at end of stream.
// It returns the line and true if the buffer held any content, or "" and
// false otherwise. The buffer is cleared either way.
func (d *Decoder) Finish() (string, bool) {
	rest := trimCR(d.buf)
	d.buf = nil
	if d.err != nil || len(rest) == 0 {
		return "", false
	}
	return string(rest), true
}

// Buffered returns the number of bytes held for an incomplete line.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Err returns ErrLineTooLong if a line outgrew the limit, nil otherwise.
func (d *Decoder) Err() error {
	return d.err
}

// Reset clears the buffer and any error so the decoder can be reused.
func (d *Decoder) Reset() {
	d.buf = nil
	d.err = nil
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}
