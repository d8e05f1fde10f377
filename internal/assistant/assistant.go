// Package assistant implements the chat and voice pipelines.
//
// A chat request runs validate → resolve language → generate reply →
// optionally synthesize. A voice request adds a transcription step in front
// and always attempts synthesis. Steps run strictly in order; synthesis is
// the only step whose failure does not fail the request.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nadzzz/melabot/internal/audiostore"
	"github.com/nadzzz/melabot/internal/language"
	"github.com/nadzzz/melabot/internal/llm"
	"github.com/nadzzz/melabot/internal/message"
	"github.com/nadzzz/melabot/internal/observe"
	"github.com/nadzzz/melabot/internal/prompt"
	"github.com/nadzzz/melabot/internal/stt"
	"github.com/nadzzz/melabot/internal/tts"
)

// AudioPathPrefix is prepended to a blob id to form ChatResponse.AudioURL.
const AudioPathPrefix = "/audio/"

// Timeouts bound each collaborator call. Zero disables the per-call
// deadline; the request context still applies.
type Timeouts struct {
	Completion    time.Duration
	Transcription time.Duration
	Synthesis     time.Duration
}

// Deps are the collaborators an Assistant needs. Synthesizer may be nil,
// in which case replies are never spoken.
type Deps struct {
	Generator   llm.Generator
	Resolver    *language.Resolver
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Store       *audiostore.Store
	Prompts     *prompt.Pack
	Timeouts    Timeouts
	Metrics     *observe.Metrics
}

// Assistant answers pilgrims' questions.
type Assistant struct {
	gen         llm.Generator
	resolver    *language.Resolver
	transcriber stt.Transcriber
	synthesizer tts.Synthesizer
	store       *audiostore.Store
	prompts     *prompt.Pack
	timeouts    Timeouts
	metrics     *observe.Metrics
}

// New creates an Assistant.
func New(d Deps) (*Assistant, error) {
	switch {
	case d.Generator == nil:
		return nil, errors.New("assistant: generator is required")
	case d.Resolver == nil:
		return nil, errors.New("assistant: resolver is required")
	case d.Transcriber == nil:
		return nil, errors.New("assistant: transcriber is required")
	case d.Store == nil:
		return nil, errors.New("assistant: audio store is required")
	case d.Prompts == nil:
		return nil, errors.New("assistant: prompt pack is required")
	}
	m := d.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &Assistant{
		gen:         d.Generator,
		resolver:    d.Resolver,
		transcriber: d.Transcriber,
		synthesizer: d.Synthesizer,
		store:       d.Store,
		prompts:     d.Prompts,
		timeouts:    d.Timeouts,
		metrics:     m,
	}, nil
}

// SynthesisEnabled reports whether replies can be spoken.
func (a *Assistant) SynthesisEnabled() bool { return a.synthesizer != nil }

// HandleChat answers a text question. The returned error wraps
// ErrValidation, ErrUpstream or ErrTimeout.
func (a *Assistant) HandleChat(ctx context.Context, req message.ChatRequest) (*message.ChatResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, invalid(err)
	}

	ctx, span := observe.StartSpan(ctx, "assistant.chat")
	defer span.End()
	start := time.Now()
	logger := observe.Logger(ctx)
	logger.Info("received message", "message", observe.Truncate(req.Message, 50), "enable_tts", req.EnableTTS)

	lang := a.resolver.Resolve(ctx, req.Message)
	name := language.DisplayName(lang)
	span.SetAttributes(attribute.String("language", lang))
	logger.Info("detected language", "language", lang)

	reply, err := a.generate(ctx, a.prompts.Hint(lang, name)+req.Message)
	if err != nil {
		logger.Error("reply generation failed", "language", lang, "error", err)
		return nil, err
	}

	resp := &message.ChatResponse{
		Reply:            reply,
		DetectedLanguage: lang,
		LanguageName:     name,
		Status:           message.StatusSuccess,
	}
	if req.EnableTTS {
		resp.AudioURL = a.speak(ctx, reply, lang)
	}

	logger.Info("chat complete", "language", lang, "audio", resp.AudioURL != "", "duration", time.Since(start))
	return resp, nil
}

// HandleVoice answers a spoken question. filename is the client's upload
// name and must carry one of stt.Extensions. The reply is always spoken when
// a synthesizer is configured.
func (a *Assistant) HandleVoice(ctx context.Context, audio []byte, filename string) (*message.ChatResponse, error) {
	if !stt.Accepts(filename) {
		return nil, invalid(&message.ValidationError{
			Field:  "audio",
			Reason: "Invalid file type. Supported: " + strings.Join(stt.Extensions, ", "),
		})
	}
	if len(audio) == 0 {
		return nil, invalid(&message.ValidationError{Field: "audio", Reason: "Audio file is empty"})
	}

	ctx, span := observe.StartSpan(ctx, "assistant.voice")
	defer span.End()
	start := time.Now()
	logger := observe.Logger(ctx)
	logger.Info("received audio file", "filename", filename, "bytes", len(audio))

	transcript, err := a.transcribe(ctx, audio, filename)
	if err != nil {
		logger.Error("transcription failed", "error", err)
		return nil, err
	}
	logger.Info("transcribed audio", "transcript", observe.Truncate(transcript, 100))

	lang := a.resolver.Resolve(ctx, transcript)
	name := language.DisplayName(lang)
	span.SetAttributes(attribute.String("language", lang))
	logger.Info("detected language", "language", lang)

	// The transcript goes to the model unprefixed; the persona mirrors the
	// speaker's language on its own.
	reply, err := a.generate(ctx, transcript)
	if err != nil {
		logger.Error("reply generation failed", "language", lang, "error", err)
		return nil, err
	}

	resp := &message.ChatResponse{
		Reply:            reply,
		DetectedLanguage: lang,
		LanguageName:     name,
		Status:           message.StatusSuccess,
		AudioURL:         a.speak(ctx, reply, lang),
		Transcript:       transcript,
	}

	logger.Info("voice chat complete", "language", lang, "audio", resp.AudioURL != "", "duration", time.Since(start))
	return resp, nil
}

// generate asks the model for a reply under the assistant persona.
func (a *Assistant) generate(ctx context.Context, input string) (string, error) {
	ctx, span := observe.StartSpan(ctx, "llm.generate")
	defer span.End()

	callCtx, cancel := withTimeout(ctx, a.timeouts.Completion)
	defer cancel()

	start := time.Now()
	reply, err := a.gen.Generate(callCtx, a.prompts.Assistant, input)
	a.metrics.RecordProviderCall(ctx, a.gen.Name(), "llm", time.Since(start), err,
		attribute.String("persona", "assistant"))
	if err != nil {
		span.RecordError(err)
		return "", classify(callCtx, "completion", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: completion: empty reply", ErrUpstream)
	}
	return reply, nil
}

// transcribe converts audio to text with auto-detected language.
func (a *Assistant) transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	ctx, span := observe.StartSpan(ctx, "stt.transcribe")
	defer span.End()

	callCtx, cancel := withTimeout(ctx, a.timeouts.Transcription)
	defer cancel()

	start := time.Now()
	text, err := a.transcriber.Transcribe(callCtx, audio, filename)
	a.metrics.RecordProviderCall(ctx, a.transcriber.Name(), "stt", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return "", classify(callCtx, "transcription", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: transcription: no speech recognised", ErrUpstream)
	}
	return text, nil
}

// speak synthesizes text and stores it, returning the audio URL. Any failure
// is logged and yields "".
func (a *Assistant) speak(ctx context.Context, text, lang string) string {
	logger := observe.Logger(ctx)
	if a.synthesizer == nil {
		logger.Debug("speech synthesis disabled, skipping audio")
		return ""
	}

	ctx, span := observe.StartSpan(ctx, "tts.synthesize")
	defer span.End()

	callCtx, cancel := withTimeout(ctx, a.timeouts.Synthesis)
	defer cancel()

	start := time.Now()
	res, err := a.synthesizer.Synthesize(callCtx, text, tts.SynthesizeOpts{Language: lang})
	if err == nil && (res == nil || len(res.Audio) == 0) {
		err = errors.New("no audio returned")
	}
	a.metrics.RecordProviderCall(ctx, a.synthesizer.Name(), "tts", time.Since(start), err,
		attribute.String("language", lang))
	if err != nil {
		span.RecordError(err)
		logger.Warn("speech synthesis failed, continuing without audio", "language", lang, "error", err)
		return ""
	}

	id := a.store.Put(res.Audio, res.ContentType)
	logger.Info("generated speech", "audio_id", id, "bytes", len(res.Audio), "content_type", res.ContentType)
	return AudioPathPrefix + id
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
