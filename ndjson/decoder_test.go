package ndjson

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedAll runs the chunks through a fresh decoder, including Finish.
func feedAll(chunks ...string) []string {
	dec := NewDecoder()
	var lines []string
	for _, c := range chunks {
		lines = append(lines, dec.Feed([]byte(c))...)
	}
	if last, ok := dec.Finish(); ok {
		lines = append(lines, last)
	}
	return lines
}

func TestDecoder_Feed(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{
			name:   "single complete line",
			chunks: []string{"hello\n"},
			want:   []string{"hello"},
		},
		{
			name:   "two lines in one chunk",
			chunks: []string{"a\nb\n"},
			want:   []string{"a", "b"},
		},
		{
			name:   "line split across chunks",
			chunks: []string{`{"resp`, `onse":"hi"}` + "\n"},
			want:   []string{`{"response":"hi"}`},
		},
		{
			name:   "terminator alone in second chunk",
			chunks: []string{"abc", "\n"},
			want:   []string{"abc"},
		},
		{
			name:   "empty lines are emitted",
			chunks: []string{"\na\n\n"},
			want:   []string{"", "a", ""},
		},
		{
			name:   "crlf terminators",
			chunks: []string{"a\r\nb\r", "\n"},
			want:   []string{"a", "b"},
		},
		{
			name:   "trailing partial flushed by finish",
			chunks: []string{"a\npartial"},
			want:   []string{"a", "partial"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, feedAll(tt.chunks...))
		})
	}
}

func TestDecoder_FeedKeepsRemainder(t *testing.T) {
	dec := NewDecoder()

	lines := dec.Feed([]byte("one\ntw"))
	assert.Equal(t, []string{"one"}, lines)
	assert.Equal(t, 2, dec.Buffered())

	lines = dec.Feed([]byte("o\nthree"))
	assert.Equal(t, []string{"two"}, lines)
	assert.Equal(t, len("three"), dec.Buffered())
}

func TestDecoder_NoLineUntilTerminator(t *testing.T) {
	dec := NewDecoder()
	for _, c := range []string{"a", "b", "c"} {
		assert.Empty(t, dec.Feed([]byte(c)))
	}
	assert.Equal(t, []string{"abc"}, dec.Feed([]byte("\n")))
	assert.Zero(t, dec.Buffered())
}

func TestDecoder_Finish(t *testing.T) {
	t.Run("partial buffer", func(t *testing.T) {
		dec := NewDecoder()
		assert.Empty(t, dec.Feed([]byte("partial")))

		line, ok := dec.Finish()
		require.True(t, ok)
		assert.Equal(t, "partial", line)

		// Buffer is cleared; a second Finish yields nothing.
		_, ok = dec.Finish()
		assert.False(t, ok)
	})

	t.Run("empty buffer", func(t *testing.T) {
		dec := NewDecoder()
		_, ok := dec.Finish()
		assert.False(t, ok)
	})

	t.Run("after complete lines only", func(t *testing.T) {
		dec := NewDecoder()
		dec.Feed([]byte("done\n"))
		_, ok := dec.Finish()
		assert.False(t, ok)
	})
}

func TestDecoder_ChunkBoundaryIndependence(t *testing.T) {
	input := `{"response":"The","done":false}` + "\n" +
		`{"response":" sky","done":false}` + "\r\n" +
		"\n" +
		`{"response":" is blue — ünïcode","done":false}` + "\n" +
		`{"response":"","done":true}`

	whole := feedAll(input)
	require.Len(t, whole, 5)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		var chunks []string
		rest := input
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			if n > 7 && rng.Intn(2) == 0 {
				n = 1 + rng.Intn(7)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		assert.Equal(t, whole, feedAll(chunks...), "chunks: %q", chunks)
	}
}

func TestDecoder_EveryByteSeparately(t *testing.T) {
	input := "alpha\nbeta\r\n\ngamma"
	var chunks []string
	for i := range input {
		chunks = append(chunks, input[i:i+1])
	}
	assert.Equal(t, feedAll(input), feedAll(chunks...))
	assert.Equal(t, []string{"alpha", "beta", "", "gamma"}, feedAll(chunks...))
}

func TestDecoder_LineTooLong(t *testing.T) {
	dec := NewDecoderSize(8)

	lines := dec.Feed([]byte("short\n0123456789"))
	assert.Equal(t, []string{"short"}, lines)
	assert.ErrorIs(t, dec.Err(), ErrLineTooLong)

	// A failed decoder yields nothing further.
	assert.Nil(t, dec.Feed([]byte("\nmore\n")))
	_, ok := dec.Finish()
	assert.False(t, ok)

	dec.Reset()
	assert.NoError(t, dec.Err())
	assert.Equal(t, []string{"ok"}, dec.Feed([]byte("ok\n")))
}

func TestNewDecoderSize_Default(t *testing.T) {
	dec := NewDecoderSize(0)
	assert.Equal(t, DefaultMaxLineSize, dec.maxLine)
}

func BenchmarkDecoder_Feed(b *testing.B) {
	line := `{"model":"llama3.2","response":"token","done":false}` + "\n"
	payload := []byte(strings.Repeat(line, 256))
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		dec := NewDecoder()
		for off := 0; off < len(payload); off += 1500 {
			end := off + 1500
			if end > len(payload) {
				end = len(payload)
			}
			dec.Feed(payload[off:end])
		}
	}
}
