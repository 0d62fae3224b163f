// Package llm abstracts the chat-completion provider behind a minimal
// client interface so the workflow can run against fakes in tests.
package llm

import (
	"context"
	"fmt"
)

// Client sends a system + user prompt pair to a chat model and returns the
// raw completion text. Implementations must not retry on their own.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationError marks a failed text-generation call (transport, auth,
// empty response). It is fatal to the in-progress request but not to the
// session: callers may re-issue the same stage.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
