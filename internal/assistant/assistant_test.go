package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/nadzzz/melabot/internal/audiostore"
	"github.com/nadzzz/melabot/internal/language"
	llmmock "github.com/nadzzz/melabot/internal/llm/mock"
	"github.com/nadzzz/melabot/internal/message"
	"github.com/nadzzz/melabot/internal/observe"
	"github.com/nadzzz/melabot/internal/prompt"
	sttmock "github.com/nadzzz/melabot/internal/stt/mock"
	ttsmock "github.com/nadzzz/melabot/internal/tts/mock"
)

type fixture struct {
	a       *Assistant
	gen     *llmmock.Generator
	stt     *sttmock.Transcriber
	tts     *ttsmock.Synthesizer
	store   *audiostore.Store
	prompts *prompt.Pack
}

type fixtureOpts struct {
	fallback        string
	resolverTimeout time.Duration
	timeouts        Timeouts
	noSynth         bool
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	if opts.fallback == "" {
		opts.fallback = "en"
	}
	p := prompt.Default()
	f := &fixture{
		gen:     &llmmock.Generator{Replies: map[string]string{}, Errs: map[string]error{}},
		stt:     &sttmock.Transcriber{},
		tts:     &ttsmock.Synthesizer{},
		store:   audiostore.New(16, time.Minute),
		prompts: p,
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	var ropts []language.ResolverOption
	ropts = append(ropts, language.WithMetrics(m))
	if opts.resolverTimeout > 0 {
		ropts = append(ropts, language.WithTimeout(opts.resolverTimeout))
	}
	r, err := language.NewResolver(f.gen, p.Detector, opts.fallback, ropts...)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	deps := Deps{
		Generator:   f.gen,
		Resolver:    r,
		Transcriber: f.stt,
		Synthesizer: f.tts,
		Store:       f.store,
		Prompts:     p,
		Timeouts:    opts.timeouts,
		Metrics:     m,
	}
	if opts.noSynth {
		deps.Synthesizer = nil
	}
	f.a, err = New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func (f *fixture) detect(label string) { f.gen.Replies[f.prompts.Detector] = label }
func (f *fixture) answer(reply string) { f.gen.Replies[f.prompts.Assistant] = reply }
func (f *fixture) answerErr(err error) { f.gen.Errs[f.prompts.Assistant] = err }
func (f *fixture) detectErr(err error) { f.gen.Errs[f.prompts.Detector] = err }

func (f *fixture) assistantCalls() []llmmock.Call {
	return f.gen.CallsFor(f.prompts.Assistant)
}

func TestHandleChat_RomanizedHindi(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.detect("hindi")
	f.answer("  शाही स्नान की तिथियां 2027 के करीब घोषित की जाएंगी।\n")

	resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "snan ka time kya hai"})
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if resp.DetectedLanguage != "hi" {
		t.Errorf("DetectedLanguage = %q, want hi", resp.DetectedLanguage)
	}
	if resp.LanguageName != "Hindi (हिंदी)" {
		t.Errorf("LanguageName = %q", resp.LanguageName)
	}
	if resp.Reply != "शाही स्नान की तिथियां 2027 के करीब घोषित की जाएंगी।" {
		t.Errorf("Reply = %q", resp.Reply)
	}
	if resp.Status != "success" {
		t.Errorf("Status = %q", resp.Status)
	}
	if resp.AudioURL != "" || resp.Transcript != "" {
		t.Errorf("unexpected audio/transcript: %+v", resp)
	}

	calls := f.assistantCalls()
	if len(calls) != 1 {
		t.Fatalf("assistant calls = %d, want 1", len(calls))
	}
	if want := "[Language: hi]\nsnan ka time kya hai"; calls[0].Input != want {
		t.Errorf("assistant input = %q, want %q", calls[0].Input, want)
	}
	if det := f.gen.CallsFor(f.prompts.Detector); len(det) != 1 || det[0].Input != "snan ka time kya hai" {
		t.Errorf("detector calls = %+v", det)
	}
	if f.tts.CallCount() != 0 {
		t.Errorf("synthesizer called without enable_tts")
	}
}

func TestHandleChat_Validation(t *testing.T) {
	for _, msg := range []string{"", "   \n\t", strings.Repeat("x", message.MaxMessageRunes+1)} {
		f := newFixture(t, fixtureOpts{})
		_, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: msg, EnableTTS: true})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("len %d: err = %v, want ErrValidation", len(msg), err)
		}
		var ve *message.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("len %d: err does not carry *message.ValidationError", len(msg))
		}
		if n := f.gen.CallCount(); n != 0 {
			t.Errorf("len %d: generator called %d times", len(msg), n)
		}
		if n := f.tts.CallCount(); n != 0 {
			t.Errorf("len %d: synthesizer called %d times", len(msg), n)
		}
	}
}

func TestHandleChat_DetectedLanguageAlwaysRegistered(t *testing.T) {
	labels := []string{"english", "Hindi", " MARATHI\n", "tamil", "telugu", "bengali", "gujarati",
		"klingon", "", "hindi or marathi", "I think this is Hindi."}
	for _, label := range labels {
		f := newFixture(t, fixtureOpts{})
		f.detect(label)
		f.answer("ok")
		resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "kuthe aahe mela"})
		if err != nil {
			t.Fatalf("label %q: HandleChat: %v", label, err)
		}
		if !language.IsSupported(resp.DetectedLanguage) {
			t.Errorf("label %q: DetectedLanguage %q not registered", label, resp.DetectedLanguage)
		}
	}
}

func TestHandleChat_DetectionFailureFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		fallback string
		setup    func(f *fixture)
		want     string
	}{
		{
			name:  "error",
			setup: func(f *fixture) { f.detectErr(errors.New("rate limited")) },
			want:  "en",
		},
		{
			name:  "unknown label",
			setup: func(f *fixture) { f.detect("french") },
			want:  "en",
		},
		{
			name:     "configured fallback",
			fallback: "mr",
			setup:    func(f *fixture) { f.detectErr(errors.New("boom")) },
			want:     "mr",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, fixtureOpts{fallback: tt.fallback})
			tt.setup(f)
			f.answer("reply")
			resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "What is the bathing time"})
			if err != nil {
				t.Fatalf("HandleChat: %v", err)
			}
			if resp.DetectedLanguage != tt.want {
				t.Errorf("DetectedLanguage = %q, want %q", resp.DetectedLanguage, tt.want)
			}
			calls := f.assistantCalls()
			if len(calls) != 1 || !strings.HasPrefix(calls[0].Input, "[Language: "+tt.want+"]\n") {
				t.Errorf("assistant calls = %+v", calls)
			}
		})
	}
}

func TestHandleChat_ReplyFailure(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.detect("english")
	f.answerErr(errors.New("503 from provider"))

	_, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "hello", EnableTTS: true})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("plain failure must not be reported as timeout")
	}
	if f.tts.CallCount() != 0 {
		t.Errorf("synthesis attempted after reply failure")
	}
}

func TestHandleChat_EmptyReply(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.detect("english")
	f.answer("   ")
	if _, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "hello"}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestHandleChat_Timeout(t *testing.T) {
	f := newFixture(t, fixtureOpts{
		resolverTimeout: 10 * time.Millisecond,
		timeouts:        Timeouts{Completion: 20 * time.Millisecond},
	})
	f.gen.Delay = time.Second
	f.answer("too late")

	start := time.Now()
	resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "hello"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v (resp %+v), want ErrTimeout", err, resp)
	}
	if errors.Is(err, ErrUpstream) {
		t.Errorf("timeout must be distinct from ErrUpstream")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("took %s, deadlines not applied", elapsed)
	}
}

func TestHandleChat_WithSpeech(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.detect("english")
	f.answer("Shahi Snan dates will be announced closer to 2027.")
	f.tts.Audio = []byte("ID3-mp3")

	resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "What is the bathing time", EnableTTS: true})
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if !strings.HasPrefix(resp.AudioURL, AudioPathPrefix) {
		t.Fatalf("AudioURL = %q", resp.AudioURL)
	}
	blob, err := f.store.Get(strings.TrimPrefix(resp.AudioURL, AudioPathPrefix))
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if string(blob.Audio) != "ID3-mp3" || blob.ContentType != "audio/mpeg" {
		t.Errorf("blob = %+v", blob)
	}

	if len(f.tts.Calls) != 1 {
		t.Fatalf("tts calls = %d", len(f.tts.Calls))
	}
	if c := f.tts.Calls[0]; c.Text != resp.Reply || c.Opts.Language != "en" {
		t.Errorf("tts call = %+v", c)
	}
}

func TestHandleChat_SpeechFailureDegrades(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.detect("tamil")
	f.answer("வணக்கம்")
	f.tts.Err = errors.New("tts quota exceeded")

	resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "enna time snan", EnableTTS: true})
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if resp.AudioURL != "" {
		t.Errorf("AudioURL = %q, want none", resp.AudioURL)
	}
	if resp.DetectedLanguage != "ta" || resp.Reply != "வணக்கம்" {
		t.Errorf("resp = %+v", resp)
	}
	if st := f.store.Stats(); st.Entries != 0 {
		t.Errorf("store entries = %d", st.Entries)
	}
}

func TestHandleChat_SynthesisTimeoutDegrades(t *testing.T) {
	f := newFixture(t, fixtureOpts{timeouts: Timeouts{Synthesis: 30 * time.Millisecond}})
	f.detect("bengali")
	f.answer("কুম্ভ মেলা নাসিকে হবে।")
	f.tts.Delay = 2 * time.Second

	start := time.Now()
	resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "ki bolchen apni", EnableTTS: true})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if resp.AudioURL != "" {
		t.Errorf("AudioURL = %q, want none", resp.AudioURL)
	}
	if resp.DetectedLanguage != "bn" || resp.Reply == "" {
		t.Errorf("resp = %+v", resp)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("took %s, synthesis deadline not applied", elapsed)
	}
	if f.tts.CallCount() != 1 {
		t.Errorf("tts calls = %d, want 1", f.tts.CallCount())
	}
	if st := f.store.Stats(); st.Entries != 0 {
		t.Errorf("store entries = %d", st.Entries)
	}
}

func TestHandleChat_SynthesisDisabled(t *testing.T) {
	f := newFixture(t, fixtureOpts{noSynth: true})
	f.detect("english")
	f.answer("hi")
	resp, err := f.a.HandleChat(context.Background(), message.ChatRequest{Message: "hello", EnableTTS: true})
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if resp.AudioURL != "" {
		t.Errorf("AudioURL = %q", resp.AudioURL)
	}
	if f.a.SynthesisEnabled() {
		t.Error("SynthesisEnabled = true")
	}
}

func TestHandleVoice_InvalidExtension(t *testing.T) {
	for _, name := range []string{"notes.txt", "clip.ogg", "noext", ""} {
		f := newFixture(t, fixtureOpts{})
		_, err := f.a.HandleVoice(context.Background(), []byte("audio"), name)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%q: err = %v, want ErrValidation", name, err)
		}
		if err != nil && !strings.Contains(err.Error(), "Invalid file type. Supported: .mp3, .mp4, .mpeg, .mpga, .m4a, .wav, .webm") {
			t.Errorf("%q: err = %v", name, err)
		}
		if f.stt.CallCount() != 0 || f.gen.CallCount() != 0 || f.tts.CallCount() != 0 {
			t.Errorf("%q: collaborator called before validation", name)
		}
	}
}

func TestHandleVoice_EmptyAudio(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	if _, err := f.a.HandleVoice(context.Background(), nil, "clip.mp3"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if f.stt.CallCount() != 0 {
		t.Error("transcriber called for empty audio")
	}
}

func TestHandleVoice(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.stt.Text = " kuthe aahe Ramkund "
	f.detect("marathi")
	f.answer("रामकुंड पंचवटी येथे गोदावरी नदीवर आहे.")

	resp, err := f.a.HandleVoice(context.Background(), []byte("webm-bytes"), "Recording.WEBM")
	if err != nil {
		t.Fatalf("HandleVoice: %v", err)
	}
	if resp.DetectedLanguage != "mr" || resp.LanguageName != "Marathi (मराठी)" {
		t.Errorf("language = %q / %q", resp.DetectedLanguage, resp.LanguageName)
	}
	if resp.Transcript != "kuthe aahe Ramkund" {
		t.Errorf("Transcript = %q", resp.Transcript)
	}
	if !strings.HasPrefix(resp.AudioURL, AudioPathPrefix) {
		t.Errorf("AudioURL = %q, voice replies are always spoken", resp.AudioURL)
	}

	if len(f.stt.Calls) != 1 || f.stt.Calls[0].Filename != "Recording.WEBM" || string(f.stt.Calls[0].Audio) != "webm-bytes" {
		t.Errorf("stt calls = %+v", f.stt.Calls)
	}
	calls := f.assistantCalls()
	if len(calls) != 1 || calls[0].Input != "kuthe aahe Ramkund" {
		t.Errorf("assistant input = %+v, want raw transcript", calls)
	}
	if len(f.tts.Calls) != 1 || f.tts.Calls[0].Opts.Language != "mr" {
		t.Errorf("tts calls = %+v", f.tts.Calls)
	}
}

func TestHandleVoice_TranscriptionFailure(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.stt.Err = errors.New("unsupported codec")
	if _, err := f.a.HandleVoice(context.Background(), []byte("x"), "clip.wav"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if f.gen.CallCount() != 0 {
		t.Error("generator called after transcription failure")
	}
}

func TestHandleVoice_NoSpeech(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.stt.Text = "  "
	if _, err := f.a.HandleVoice(context.Background(), []byte("x"), "clip.wav"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestHandleVoice_TranscriptionTimeout(t *testing.T) {
	f := newFixture(t, fixtureOpts{timeouts: Timeouts{Transcription: 10 * time.Millisecond}})
	f.stt.Delay = time.Second
	if _, err := f.a.HandleVoice(context.Background(), []byte("x"), "clip.m4a"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestHandleVoice_SpeechFailureDegrades(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.stt.Text = "ekkada undi kumbh mela"
	f.detect("telugu")
	f.answer("నాసిక్‌లో")
	f.tts.Err = errors.New("no voice")

	resp, err := f.a.HandleVoice(context.Background(), []byte("x"), "clip.mp3")
	if err != nil {
		t.Fatalf("HandleVoice: %v", err)
	}
	if resp.AudioURL != "" || resp.DetectedLanguage != "te" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("expected error")
	}
}
