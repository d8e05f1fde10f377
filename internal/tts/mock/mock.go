// Package mock provides a test double for tts.Synthesizer.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/nadzzz/melabot/internal/tts"
)

// Call records one Synthesize invocation.
type Call struct {
	Text string
	Opts tts.SynthesizeOpts
}

// Synthesizer is a scriptable tts.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// Audio is returned on success. Default "mock-audio".
	Audio []byte

	// ContentType is returned on success. Default "audio/mpeg".
	ContentType string

	// Err, when set, is returned instead of audio.
	Err error

	// Delay makes Synthesize wait before answering. If ctx ends first,
	// ctx.Err() is returned.
	Delay time.Duration

	// Calls records every invocation in order.
	Calls []Call

	closed bool
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string { return "mock" }

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, Call{Text: text, Opts: opts})
	audio, ct, err, delay := s.Audio, s.ContentType, s.Err, s.Delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if audio == nil {
		audio = []byte("mock-audio")
	}
	if ct == "" {
		ct = "audio/mpeg"
	}
	return &tts.SynthesizeResult{Audio: append([]byte(nil), audio...), ContentType: ct}, nil
}

// CallCount returns the number of recorded calls.
func (s *Synthesizer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// Close implements tts.Synthesizer.
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Synthesizer) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var _ tts.Synthesizer = (*Synthesizer)(nil)
