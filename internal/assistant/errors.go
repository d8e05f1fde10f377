package assistant

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors returned by HandleChat and HandleVoice. Transports map
// them to status codes with errors.Is.
var (
	// ErrValidation means the request was rejected before any external call.
	ErrValidation = errors.New("invalid request")

	// ErrUpstream means a completion or transcription call failed.
	ErrUpstream = errors.New("upstream failure")

	// ErrTimeout means a completion or transcription call ran past its
	// deadline.
	ErrTimeout = errors.New("upstream timeout")
)

// classify wraps err from stage as ErrTimeout when callCtx hit its deadline
// and as ErrUpstream otherwise.
func classify(callCtx context.Context, stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, stage, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, stage, err)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
