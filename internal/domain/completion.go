package domain

import "context"

// Prompt is the structured input to the generative model: prior conversation,
// retrieved document context, and the user's question, all pre-rendered as text.
// Callers must fill every field; empty history/context use fixed placeholders
// so the model never sees an empty section.
type Prompt struct {
	History  string
	Context  string
	Question string
}

// Completer invokes the generative model once per query. The call is opaque,
// potentially slow, and may fail; it is never retried internally.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (CompletionResult, error)
}

// CompletionResult carries the generated answer and token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
