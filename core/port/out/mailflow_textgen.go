package out

import (
	"context"
	"errors"
)

// ErrNoCompletion is returned when the provider answered but produced
// no usable text.
var ErrNoCompletion = errors.New("text generation returned no completion")

// TextGenerationProvider is the outbound port to an LLM backend.
// Implementations translate a prompt into a provider-specific request and
// extract plain text from the response envelope; prompt construction and
// response parsing beyond the envelope stay in the core.
type TextGenerationProvider interface {
	// Name returns the provider identifier (openai, gemini, claude).
	Name() string

	// Complete sends a single-turn prompt and returns the raw text reply.
	Complete(ctx context.Context, prompt string) (string, error)
}
