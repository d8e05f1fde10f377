package language

import (
	"context"
	"fmt"
	"time"

	"github.com/nadzzz/melabot/internal/llm"
	"github.com/nadzzz/melabot/internal/observe"
	"go.opentelemetry.io/otel/attribute"
)

// Resolver classifies text into a registry code using the completion model.
//
// It never fails outward: any collaborator error, timeout, or unrecognised
// answer yields the fallback code. There is no retry.
type Resolver struct {
	gen      llm.Generator
	persona  string
	fallback string
	timeout  time.Duration
	metrics  *observe.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTimeout bounds each classification call. Zero means only the caller's
// context applies.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithMetrics records detection outcomes and call latency on m.
func WithMetrics(m *observe.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a Resolver. fallback must be a registered code.
func NewResolver(gen llm.Generator, persona, fallback string, opts ...ResolverOption) (*Resolver, error) {
	if gen == nil {
		return nil, fmt.Errorf("language: generator must not be nil")
	}
	if persona == "" {
		return nil, fmt.Errorf("language: detection persona must not be empty")
	}
	if !IsSupported(fallback) {
		return nil, fmt.Errorf("language: fallback %q is not a supported language", fallback)
	}
	r := &Resolver{gen: gen, persona: persona, fallback: fallback}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Fallback returns the code used when detection degrades.
func (r *Resolver) Fallback() string { return r.fallback }

// Resolve returns the registry code for text.
func (r *Resolver) Resolve(ctx context.Context, text string) string {
	ctx, span := observe.StartSpan(ctx, "language.resolve")
	defer span.End()
	logger := observe.Logger(ctx)

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := r.gen.Generate(callCtx, r.persona, text)
	if r.metrics != nil {
		r.metrics.RecordProviderCall(ctx, r.gen.Name(), "llm", time.Since(start), err,
			attribute.String("persona", "detector"))
	}
	if err != nil {
		logger.Warn("language detection failed, using fallback",
			"fallback", r.fallback, "error", err)
		return r.degrade(ctx)
	}

	code, ok := CodeForLabel(answer)
	if !ok {
		logger.Warn("language detection returned unknown label, using fallback",
			"label", observe.Truncate(answer, 32), "fallback", r.fallback)
		return r.degrade(ctx)
	}

	span.SetAttributes(attribute.String("language", code))
	if r.metrics != nil {
		r.metrics.RecordLanguageDetection(ctx, code, "detected")
	}
	return code
}

func (r *Resolver) degrade(ctx context.Context) string {
	if r.metrics != nil {
		r.metrics.RecordLanguageDetection(ctx, r.fallback, "fallback")
	}
	return r.fallback
}
