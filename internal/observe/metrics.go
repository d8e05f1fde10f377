// Package observe provides the OpenTelemetry metrics, tracing helpers, and
// HTTP middleware shared by the melabot service.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported to
// Prometheus by [InitProvider]. Tests should build their own [Metrics] with
// [NewMetrics] and a ManualReader-backed provider instead of touching the
// global one.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all melabot metrics.
const meterName = "github.com/nadzzz/melabot"

// Metrics holds every metric instrument used by the service. The OTel
// instruments are safe for concurrent use.
type Metrics struct {
	// LLMDuration tracks completion latency. Attribute "persona" separates
	// language detection from answering.
	LLMDuration metric.Float64Histogram

	// STTDuration tracks transcription latency.
	STTDuration metric.Float64Histogram

	// TTSDuration tracks synthesis latency.
	TTSDuration metric.Float64Histogram

	// ProviderRequests counts collaborator calls by provider, kind and status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts collaborator failures by provider and kind.
	ProviderErrors metric.Int64Counter

	// LanguageDetections counts resolver outcomes by language and outcome
	// ("detected" or "fallback").
	LanguageDetections metric.Int64Counter

	// AudioEvictions counts audio blobs dropped from the store by reason
	// ("capacity" or "expired").
	AudioEvictions metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request latency by method and route.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds. Hosted completions and
// synthesis routinely take several seconds, so the upper end is generous.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.LLMDuration, err = m.Float64Histogram("melabot.llm.duration",
		metric.WithDescription("Latency of chat completion calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.STTDuration, err = m.Float64Histogram("melabot.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("melabot.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("melabot.provider.requests",
		metric.WithDescription("Total collaborator requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("melabot.provider.errors",
		metric.WithDescription("Total collaborator errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.LanguageDetections, err = m.Int64Counter("melabot.language.detections",
		metric.WithDescription("Language resolver outcomes by language and outcome."),
	); err != nil {
		return nil, err
	}
	if met.AudioEvictions, err = m.Int64Counter("melabot.audio.evictions",
		metric.WithDescription("Audio blobs evicted from the in-memory store."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("melabot.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first use
// from the global meter provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordProviderCall records the outcome and latency of one collaborator
// call. kind is "llm", "stt" or "tts"; the latency lands in the matching
// histogram. Extra attributes (e.g. persona) are attached to the histogram.
func (m *Metrics) RecordProviderCall(ctx context.Context, provider, kind string, elapsed time.Duration, err error, extra ...attribute.KeyValue) {
	status := "ok"
	if err != nil {
		status = "error"
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		))
	}
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
		attribute.String("status", status),
	))

	attrs := append([]attribute.KeyValue{attribute.String("provider", provider)}, extra...)
	switch kind {
	case "llm":
		m.LLMDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	case "stt":
		m.STTDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	case "tts":
		m.TTSDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	}
}

// RecordLanguageDetection counts one resolver outcome.
func (m *Metrics) RecordLanguageDetection(ctx context.Context, language, outcome string) {
	m.LanguageDetections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("outcome", outcome),
	))
}

// RecordAudioEviction counts one evicted audio blob.
func (m *Metrics) RecordAudioEviction(ctx context.Context, reason string) {
	m.AudioEvictions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}
