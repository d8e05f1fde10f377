// Package mock provides a test double for llm.Generator.
//
// Replies and errors are keyed by persona so a test can script the language
// detector and the answering persona independently:
//
//	g := &mock.Generator{
//	    Replies: map[string]string{detectorPersona: "hindi", assistantPersona: "..."},
//	}
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/nadzzz/melabot/internal/llm"
)

// Call records one Generate invocation.
type Call struct {
	Persona string
	Input   string
}

// Generator is a scriptable llm.Generator.
type Generator struct {
	mu sync.Mutex

	// ProviderName is returned by Name. Default "mock".
	ProviderName string

	// Replies maps persona -> reply text.
	Replies map[string]string

	// Errs maps persona -> error. Takes precedence over Replies.
	Errs map[string]error

	// DefaultReply is returned for personas missing from Replies.
	DefaultReply string

	// Delay makes Generate wait before answering. If ctx ends first,
	// ctx.Err() is returned.
	Delay time.Duration

	// Calls records every invocation in order.
	Calls []Call
}

// Name implements llm.Generator.
func (g *Generator) Name() string {
	if g.ProviderName == "" {
		return "mock"
	}
	return g.ProviderName
}

// Generate implements llm.Generator.
func (g *Generator) Generate(ctx context.Context, persona, input string) (string, error) {
	g.mu.Lock()
	g.Calls = append(g.Calls, Call{Persona: persona, Input: input})
	delay := g.Delay
	err := g.Errs[persona]
	reply, ok := g.Replies[persona]
	if !ok {
		reply = g.DefaultReply
	}
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// CallsFor returns the recorded calls made with persona.
func (g *Generator) CallsFor(persona string) []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Call
	for _, c := range g.Calls {
		if c.Persona == persona {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns the number of recorded calls.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}

var _ llm.Generator = (*Generator)(nil)
