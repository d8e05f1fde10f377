// Package openai implements llm.Generator on top of the official OpenAI Go
// SDK. Any OpenAI-compatible chat completions endpoint works; the default
// base URL points at Groq, which serves the Llama models the assistant was
// tuned against.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/nadzzz/melabot/internal/llm"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible API root.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "llama-3.3-70b-versatile"

	defaultTemperature = 0.3
	defaultMaxTokens   = 500
)

// Generator implements llm.Generator using the OpenAI SDK.
type Generator struct {
	client      oai.Client
	model       string
	temperature float64
	maxTokens   int
}

type config struct {
	baseURL     string
	timeout     time.Duration
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Option is a functional option for Generator.
type Option func(*config)

// WithBaseURL overrides the API base URL. An empty url keeps the default.
func WithBaseURL(url string) Option {
	return func(c *config) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout sets an HTTP client timeout for every request.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *config) {
		c.temperature = t
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(c *config) {
		c.maxTokens = n
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// New constructs a Generator. apiKey must not be empty; an empty model
// selects DefaultModel.
func New(apiKey, model string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{
		baseURL:     DefaultBaseURL,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
		// Retries would multiply latency; callers degrade instead.
		option.WithMaxRetries(0),
	}
	switch {
	case cfg.httpClient != nil:
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	case cfg.timeout > 0:
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Generator{
		client:      oai.NewClient(reqOpts...),
		model:       model,
		temperature: cfg.temperature,
		maxTokens:   cfg.maxTokens,
	}, nil
}

// Name implements llm.Generator.
func (g *Generator) Name() string { return "openai" }

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// Generate implements llm.Generator.
func (g *Generator) Generate(ctx context.Context, persona, input string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, g.buildParams(persona, input))
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *Generator) buildParams(persona, input string) oai.ChatCompletionNewParams {
	var messages []oai.ChatCompletionMessageParamUnion
	if persona != "" {
		messages = append(messages, oai.SystemMessage(persona))
	}
	messages = append(messages, oai.UserMessage(input))

	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.model),
		Messages:    messages,
		Temperature: param.NewOpt(g.temperature),
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(g.maxTokens))
	}
	return params
}

var _ llm.Generator = (*Generator)(nil)
