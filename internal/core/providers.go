package core

import "context"

// CompletionRequest is one LLM call. The transport is opaque: a prompt
// goes in, text comes out. Callers bound the call with a context
// deadline; providers must honor cancellation.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider for a structured-json response format
	// where supported.
	JSONMode bool
}

// Completer is the LLM transport collaborator.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
