// Package llm defines the interface for hosted chat-completion backends.
//
// Melabot talks to a single completion model for two jobs: classifying the
// language of an incoming question and answering it. Both go through
// Generator, distinguished only by the persona (system prompt) supplied, so a
// test double can intercept either role on its own.
package llm

import "context"

// Generator produces a completion for input under the given persona.
//
// Implementations must be safe for concurrent use and must honour ctx
// cancellation and deadlines.
type Generator interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Generate sends persona as the system prompt and input as the user
	// message, returning the raw text of the first choice.
	Generate(ctx context.Context, persona, input string) (string, error)
}
