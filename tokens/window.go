package tokens

import "strings"

// DefaultContextWindow is used for models missing from ContextWindows.
const DefaultContextWindow = 4096

// DefaultReservedPercent is the share of a window held back for the response.
const DefaultReservedPercent = 10

// ContextWindows maps model families to their context window in tokens.
// Keys are model names without the ":tag" suffix.
var ContextWindows = map[string]int{
	"llama3.2":  131072,
	"llama3.1":  131072,
	"llama3":    8192,
	"phi4":      16384,
	"phi3":      4096,
	"mistral":   32768,
	"mixtral":   32768,
	"gemma2":    8192,
	"gemma3":    131072,
	"qwen2.5":   32768,
	"qwen3":     40960,
	"codellama": 16384,
}

// ContextWindow returns the context window for model, ignoring any ":tag"
// suffix and letter case. Unknown models get DefaultContextWindow.
func ContextWindow(model string) int {
	name := strings.ToLower(strings.TrimSpace(model))
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	if n, ok := ContextWindows[name]; ok {
		return n
	}
	return DefaultContextWindow
}

// Budget checks prompts against a context window with room reserved for the
// generated response.
type Budget struct {
	// Window is the model's total context window.
	Window int

	// Reserved is held back for the response.
	Reserved int

	counter Counter
}

// NewBudget creates a budget reserving DefaultReservedPercent of window.
func NewBudget(window int) *Budget {
	return &Budget{
		Window:   window,
		Reserved: window * DefaultReservedPercent / 100,
		counter:  NewEstimatingCounter(),
	}
}

// WithCounter replaces the estimator used by the budget.
func (b *Budget) WithCounter(c Counter) *Budget {
	b.counter = c
	return b
}

// Available returns the tokens a prompt may use.
func (b *Budget) Available() int {
	if n := b.Window - b.Reserved; n > 0 {
		return n
	}
	return 0
}

// Used estimates the tokens taken by all parts together.
func (b *Budget) Used(parts ...string) int {
	total := 0
	for _, p := range parts {
		total += b.counter.Count(p)
	}
	return total
}

// Fits reports whether all parts together fit in Available.
func (b *Budget) Fits(parts ...string) bool {
	return b.Used(parts...) <= b.Available()
}
