package domain

import "context"

// Completer is the shared chat completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// Message is a single chat message.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest carries one chat completion call. Temperature and
// MaxTokens are per-call because the pipeline agents tune them differently.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// CompletionResult carries the model text and token usage.
type CompletionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
