// Package openai implements tts.Synthesizer on an OpenAI-compatible
// /audio/speech endpoint.
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/melabot/internal/tts"
)

const (
	// DefaultModel is the speech model used when none is configured.
	DefaultModel = "gpt-4o-mini-tts"

	// DefaultVoice is used for languages without a configured voice.
	DefaultVoice = "alloy"

	// maxAudioBytes caps how much audio one reply may produce.
	maxAudioBytes = 16 << 20
)

// Synthesizer implements tts.Synthesizer using go-openai.
type Synthesizer struct {
	client       *goopenai.Client
	model        string
	defaultVoice string
	voices       map[string]string
}

type options struct {
	client goopenai.ClientConfig
	voice  string
	voices map[string]string
}

// Option configures a Synthesizer.
type Option func(*options)

// WithBaseURL overrides the API base URL. An empty url keeps the default.
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.client.BaseURL = url
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.client.HTTPClient = hc
	}
}

// WithVoice sets the voice used when a language has no mapping.
func WithVoice(voice string) Option {
	return func(o *options) {
		if voice != "" {
			o.voice = voice
		}
	}
}

// WithVoices maps registry codes to voices.
func WithVoices(voices map[string]string) Option {
	return func(o *options) {
		for k, v := range voices {
			o.voices[k] = v
		}
	}
}

// New creates a Synthesizer. apiKey must not be empty; an empty model
// selects DefaultModel.
func New(apiKey, model string, opts ...Option) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tts/openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}
	o := &options{
		client: goopenai.DefaultConfig(apiKey),
		voice:  DefaultVoice,
		voices: make(map[string]string),
	}
	for _, fn := range opts {
		fn(o)
	}
	return &Synthesizer{
		client:       goopenai.NewClientWithConfig(o.client),
		model:        model,
		defaultVoice: o.voice,
		voices:       o.voices,
	}, nil
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string { return "openai" }

// Synthesize implements tts.Synthesizer. The result is MP3.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("tts/openai: empty text")
	}

	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(s.model),
		Input:          text,
		Voice:          goopenai.SpeechVoice(s.voiceFor(opts)),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("tts/openai: speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(io.LimitReader(resp, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("tts/openai: reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts/openai: empty audio")
	}
	if len(audio) > maxAudioBytes {
		return nil, fmt.Errorf("tts/openai: audio exceeds %d bytes", maxAudioBytes)
	}
	return &tts.SynthesizeResult{Audio: audio, ContentType: "audio/mpeg"}, nil
}

func (s *Synthesizer) voiceFor(opts tts.SynthesizeOpts) string {
	if opts.Voice != "" {
		return opts.Voice
	}
	if v, ok := s.voices[opts.Language]; ok && v != "" {
		return v
	}
	return s.defaultVoice
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }

var _ tts.Synthesizer = (*Synthesizer)(nil)
