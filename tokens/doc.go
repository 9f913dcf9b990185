// Package tokens estimates token counts for prompts and generated text.
//
// Estimation uses the rule of thumb that roughly 4 characters make 1 token.
// That is close enough to decide whether a prompt fits a local model's
// context window without shipping a model-specific tokenizer.
//
//	counter := tokens.NewEstimatingCounter()
//	n := counter.Count("Why is the sky blue?")
//
// Context windows for common local models are listed in ContextWindows and
// resolved with ContextWindow, which ignores the ":tag" suffix:
//
//	tokens.ContextWindow("llama3.2:latest") // 131072
//
// A Budget checks a system prompt and user prompt against a window while
// holding back room for the response:
//
//	b := tokens.NewBudget(tokens.ContextWindow("phi4"))
//	if !b.Fits(system, prompt) {
//	    // shorten the prompt
//	}
package tokens
