package ai

import "context"

// LLMProvider sends a prompt to an LLM and returns the raw text response,
// constrained server-side to the given JSON schema. Decorators (retry) wrap
// this interface; EmailClassifier consumes it.
type LLMProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is one structured-output completion call.
type CompletionRequest struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     map[string]any
}
