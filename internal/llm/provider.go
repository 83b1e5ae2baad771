// Package llm wraps the generative-language collaborator. Exactly two call
// shapes are used by the pipeline: a one-shot classification call and a
// multi-turn chat call. The model's internal reasoning is not modeled here.
package llm

import (
	"context"
	"errors"
	"time"
)

// Timeouts for LLM operations.
const (
	TimeoutClassify = 20 * time.Second
	TimeoutChat     = 60 * time.Second
)

// Domain errors for the llm package.
var (
	ErrEmptyResponse = errors.New("model returned no choices")
)

// Chat message roles accepted by the answering call.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one conversation turn.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Provider is the interface the pipeline uses to talk to the model.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai").
	Name() string
	// Classify sends a one-shot prompt and returns the raw model text.
	Classify(ctx context.Context, prompt string) (string, error)
	// Chat sends a system instruction, prior turns, and the new user message,
	// returning the reply text verbatim.
	Chat(ctx context.Context, system string, turns []Message, message string) (string, error)
}
