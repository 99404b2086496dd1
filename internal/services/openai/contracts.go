package openai

import (
	"context"
)

// Servicer defines the interface for chat completion operations.
type Servicer interface {
	// Complete sends a completion request to the OpenAI API
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (*Response, error)

	// GetContent is a helper that returns just the content from the first choice
	GetContent(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

// Ensure Service implements Servicer
var _ Servicer = (*Service)(nil)
