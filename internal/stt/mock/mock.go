// Package mock provides a test double for stt.Transcriber.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/nadzzz/melabot/internal/stt"
)

// Call records one Transcribe invocation.
type Call struct {
	Audio    []byte
	Filename string
}

// Transcriber is a scriptable stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Text is returned on success.
	Text string

	// Err, when set, is returned instead of Text.
	Err error

	// Delay makes Transcribe wait before answering. If ctx ends first,
	// ctx.Err() is returned.
	Delay time.Duration

	// Calls records every invocation in order.
	Calls []Call
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string { return "mock" }

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	t.mu.Lock()
	t.Calls = append(t.Calls, Call{Audio: append([]byte(nil), audio...), Filename: filename})
	text, err, delay := t.Text, t.Err, t.Delay
	t.mu.Unlock()

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
	return text, nil
}

// CallCount returns the number of recorded calls.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

var _ stt.Transcriber = (*Transcriber)(nil)
