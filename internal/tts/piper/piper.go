// Package piper implements tts.Synthesizer on a Piper server speaking the
// Wyoming protocol (linuxserver/piper exposes it on TCP port 10200).
//
// Piper ships voices for only part of the registry. A language with neither
// a configured nor a built-in voice fails synthesis instead of being read out
// by a voice for another script; callers already treat synthesis failures as
// non-fatal.
package piper

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/nadzzz/melabot/internal/config"
	"github.com/nadzzz/melabot/internal/tts"
)

// defaultVoices maps registry codes to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"hi": "hi_IN-pratham-medium",
	"te": "te_IN-maya-medium",
}

const (
	dialTimeout    = 10 * time.Second
	defaultTimeout = 30 * time.Second
)

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint  string            // default host:port
	endpoints map[string]string // language -> host:port
	voices    map[string]string // language -> voice name
	dial      func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New creates a Piper synthesizer from config.
func New(cfg config.PiperConfig) (*Synthesizer, error) {
	s := &Synthesizer{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: make(map[string]string, len(cfg.Endpoints)),
		voices:    make(map[string]string, len(defaultVoices)+len(cfg.Voices)),
	}
	for lang, ep := range cfg.Endpoints {
		s.endpoints[lang] = cleanEndpoint(ep)
	}
	if s.endpoint == "" && len(s.endpoints) == 0 {
		return nil, fmt.Errorf("piper: no endpoint configured")
	}
	for k, v := range defaultVoices {
		s.voices[k] = v
	}
	for k, v := range cfg.Voices {
		s.voices[k] = v
	}
	d := &net.Dialer{Timeout: dialTimeout}
	s.dial = d.DialContext
	return s, nil
}

func cleanEndpoint(ep string) string {
	ep = strings.TrimPrefix(ep, "tcp://")
	return strings.TrimPrefix(ep, "http://")
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string { return "piper" }

// Synthesize sends text to Piper and returns the audio wrapped as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("piper: empty text")
	}

	voice := opts.Voice
	if voice == "" {
		voice = s.voices[opts.Language]
	}
	if voice == "" {
		return nil, fmt.Errorf("piper: no voice for language %q", opts.Language)
	}

	endpoint := s.endpoints[opts.Language]
	if endpoint == "" {
		endpoint = s.endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("piper: no endpoint for language %q", opts.Language)
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "language", opts.Language, "endpoint", endpoint)

	conn, err := s.dial(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("piper: connecting: %w", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	_ = conn.SetDeadline(deadline)

	req := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, req, nil); err != nil {
		return nil, fmt.Errorf("piper: sending synthesize: %w", err)
	}
	return collect(bufio.NewReader(conn))
}

// collect reads audio-start, audio-chunk* and audio-stop and assembles WAV.
func collect(r *bufio.Reader) (*tts.SynthesizeResult, error) {
	var (
		pcm        bytes.Buffer
		sampleRate = 22050
		channels   = 1
		width      = 2
	)
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("piper: %w", err)
		}
		switch evt.Type {
		case "audio-start":
			sampleRate = intField(evt.Data, "rate", sampleRate)
			channels = intField(evt.Data, "channels", channels)
			width = intField(evt.Data, "width", width)
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			if pcm.Len() == 0 {
				return nil, fmt.Errorf("piper: no audio produced")
			}
			return &tts.SynthesizeResult{
				Audio:       pcmToWAV(pcm.Bytes(), sampleRate, channels, width),
				ContentType: "audio/wav",
			}, nil
		case "error":
			msg, _ := evt.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper: server error: %s", msg)
		default:
			slog.Debug("piper unknown event", "type", evt.Type)
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }

var _ tts.Synthesizer = (*Synthesizer)(nil)
