// Package openai implements stt.Transcriber on an OpenAI-compatible
// /audio/transcriptions endpoint. The default base URL points at Groq's
// hosted whisper-large-v3.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/melabot/internal/stt"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible API root.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the whisper model used when none is configured.
	DefaultModel = "whisper-large-v3"
)

// Transcriber implements stt.Transcriber using go-openai.
type Transcriber struct {
	client *goopenai.Client
	model  string
}

// Option configures a Transcriber.
type Option func(*goopenai.ClientConfig)

// WithBaseURL overrides the API base URL. An empty url keeps the default.
func WithBaseURL(url string) Option {
	return func(c *goopenai.ClientConfig) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *goopenai.ClientConfig) {
		c.HTTPClient = hc
	}
}

// New creates a Transcriber. apiKey must not be empty; an empty model selects
// DefaultModel.
func New(apiKey, model string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stt/openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultBaseURL
	for _, o := range opts {
		o(&cfg)
	}
	return &Transcriber{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe implements stt.Transcriber. The audio is streamed as a
// multipart upload under filename so the server can infer the container from
// its extension. No language is sent.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = "audio.webm"
	}
	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: filepath.Base(filename),
		Reader:   bytes.NewReader(audio),
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("stt/openai: transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

var _ stt.Transcriber = (*Transcriber)(nil)
