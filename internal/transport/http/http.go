// Package http implements the REST API of the assistant.
//
// Routes:
//
//	GET  /              service descriptor
//	GET  /languages     supported languages
//	GET  /health        service health with model and language details
//	GET  /status        uptime and audio cache statistics
//	GET  /healthz       liveness check
//	GET  /readyz        readiness check
//	POST /chat          text question
//	POST /chat/voice    spoken question (multipart field "audio")
//	GET  /audio/{id}    synthesized reply
//	GET  /metrics       Prometheus scrape endpoint
//	GET  /swagger/      API documentation
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/melabot/internal/assistant"
	"github.com/nadzzz/melabot/internal/audiostore"
	"github.com/nadzzz/melabot/internal/health"
	"github.com/nadzzz/melabot/internal/message"
	"github.com/nadzzz/melabot/internal/observe"
	"github.com/nadzzz/melabot/internal/prompt"
	"github.com/nadzzz/melabot/internal/transport"
)

const (
	// maxUploadBytes caps a voice upload.
	maxUploadBytes = 25 << 20

	// maxChatBodyBytes caps a POST /chat body.
	maxChatBodyBytes = 64 << 10

	shutdownTimeout = 5 * time.Second
)

// Assistant answers chat and voice requests.
type Assistant interface {
	HandleChat(ctx context.Context, req message.ChatRequest) (*message.ChatResponse, error)
	HandleVoice(ctx context.Context, audio []byte, filename string) (*message.ChatResponse, error)
	SynthesisEnabled() bool
}

// AudioStore serves synthesized replies.
type AudioStore interface {
	Get(id string) (audiostore.Blob, error)
	Stats() audiostore.Stats
}

// Options configures a Transport.
type Options struct {
	Port              int
	ReadHeaderTimeout time.Duration

	// LLMModel and Version are reported by /health and /status.
	LLMModel string
	Version  string

	// Prompts supplies the apology messages returned on failure.
	Prompts *prompt.Pack

	// Health serves /healthz and /readyz. Optional.
	Health *health.Handler

	// Metrics records request latency. Defaults to observe.DefaultMetrics.
	Metrics *observe.Metrics

	// MetricsHandler serves /metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// Transport implements transport.Transport over HTTP.
type Transport struct {
	opts      Options
	assistant Assistant
	store     AudioStore
	started   time.Time
	handler   http.Handler
	server    *http.Server
}

// New creates the HTTP transport and builds its route table.
func New(a Assistant, store AudioStore, opts Options) *Transport {
	if opts.Prompts == nil {
		opts.Prompts = prompt.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	t := &Transport{
		opts:      opts,
		assistant: a,
		store:     store,
		started:   time.Now(),
	}
	t.handler = t.routes()
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the fully wrapped HTTP handler.
func (t *Transport) Handler() http.Handler { return t.handler }

func (t *Transport) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", t.handleRoot)
	mux.HandleFunc("GET /languages", t.handleLanguages)
	mux.HandleFunc("GET /health", t.handleHealth)
	mux.HandleFunc("GET /status", t.handleStatus)
	mux.HandleFunc("POST /chat", t.handleChat)
	mux.HandleFunc("POST /chat/voice", t.handleVoice)
	mux.HandleFunc("GET /audio/{id}", t.handleAudio)
	mux.Handle("GET /metrics", t.opts.MetricsHandler)

	// Swagger UI serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if t.opts.Health != nil {
		t.opts.Health.Register(mux)
	}

	// Browsers call the API from the event web app on another origin.
	return cors.AllowAll().Handler(observe.Middleware(t.opts.Metrics)(mux))
}

// Listen starts the HTTP server. It blocks until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.opts.Port),
		Handler:           t.handler,
		ReadHeaderTimeout: t.opts.ReadHeaderTimeout,
	}

	slog.Info("http transport listening", "port", t.opts.Port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		_ = t.Close()
	}()

	if err := t.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return t.server.Shutdown(ctx)
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeDetail writes {"detail": detail}.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, message.ErrorResponse{Detail: detail})
}

// writeError maps an assistant error to a status code. Validation errors
// use validationStatus and expose their reason; timeouts get 504; anything
// else gets 500 with apology.
func (t *Transport) writeError(w http.ResponseWriter, r *http.Request, err error, validationStatus int, apology string) {
	logger := observe.Logger(r.Context())
	switch {
	case errors.Is(err, assistant.ErrValidation):
		detail := err.Error()
		var ve *message.ValidationError
		if errors.As(err, &ve) {
			detail = ve.Reason
		}
		logger.Info("request rejected", "path", r.URL.Path, "reason", detail)
		writeDetail(w, validationStatus, detail)
	case errors.Is(err, assistant.ErrTimeout):
		logger.Error("request timed out", "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusGatewayTimeout, t.opts.Prompts.Errors.Timeout)
	default:
		logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, apology)
	}
}

var _ transport.Transport = (*Transport)(nil)
