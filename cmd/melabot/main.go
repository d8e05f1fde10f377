// Melabot is the multilingual pilgrim assistant for the Nashik Kumbh Mela
// 2027. It answers text and voice questions in the language they were asked
// in, optionally with a spoken reply.
//
// Usage:
//
//	melabot [flags]
//	melabot --config /path/to/melabot.yaml
//
// @title        Nashik Kumbh Mela 2027 AI Assistant
// @version      1.0.0
// @description  Multilingual pilgrim assistant for the Nashik Kumbh Mela 2027 (text and voice).
// @BasePath     /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/nadzzz/melabot/docs"
	"github.com/nadzzz/melabot/internal/assistant"
	"github.com/nadzzz/melabot/internal/audiostore"
	"github.com/nadzzz/melabot/internal/config"
	"github.com/nadzzz/melabot/internal/health"
	"github.com/nadzzz/melabot/internal/language"
	"github.com/nadzzz/melabot/internal/llm"
	localllm "github.com/nadzzz/melabot/internal/llm/local"
	openaillm "github.com/nadzzz/melabot/internal/llm/openai"
	"github.com/nadzzz/melabot/internal/observe"
	"github.com/nadzzz/melabot/internal/prompt"
	"github.com/nadzzz/melabot/internal/stt"
	localstt "github.com/nadzzz/melabot/internal/stt/local"
	openaistt "github.com/nadzzz/melabot/internal/stt/openai"
	"github.com/nadzzz/melabot/internal/transport"
	grpctransport "github.com/nadzzz/melabot/internal/transport/grpc"
	httptransport "github.com/nadzzz/melabot/internal/transport/http"
	"github.com/nadzzz/melabot/internal/tts"
	openaitts "github.com/nadzzz/melabot/internal/tts/openai"
	"github.com/nadzzz/melabot/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/melabot.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("melabot %s\n", version)
		os.Exit(0)
	}

	if err := run(*configFile); err != nil {
		slog.Error("melabot failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	config.SetupLogging(cfg.Logging)
	if err := cfg.Validate(language.Codes()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Info("melabot starting", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("initialising telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("telemetry shutdown", "error", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	prompts, err := prompt.Load(cfg.Prompts.File)
	if err != nil {
		return err
	}

	gen, model, err := newGenerator(cfg.LLM, cfg.Timeouts)
	if err != nil {
		return err
	}
	transcriber, err := newTranscriber(cfg.STT)
	if err != nil {
		return err
	}
	synthesizer, err := newSynthesizer(cfg.TTS)
	if err != nil {
		return err
	}
	if synthesizer != nil {
		defer synthesizer.Close()
	}

	resolver, err := language.NewResolver(gen, prompts.Detector, cfg.Language.Default,
		language.WithTimeout(cfg.Timeouts.Completion),
		language.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	store := audiostore.New(cfg.Audio.Capacity, cfg.Audio.TTL,
		audiostore.WithMetrics(metrics),
		audiostore.WithOnEvict(func(id, reason string) {
			slog.Debug("audio evicted", "id", id, "reason", reason)
		}),
	)

	deps := assistant.Deps{
		Generator:   gen,
		Resolver:    resolver,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Store:       store,
		Prompts:     prompts,
		Timeouts: assistant.Timeouts{
			Completion:    cfg.Timeouts.Completion,
			Transcription: cfg.Timeouts.Transcription,
			Synthesis:     cfg.Timeouts.Synthesis,
		},
		Metrics: metrics,
	}
	a, err := assistant.New(deps)
	if err != nil {
		return err
	}

	checks := health.New(
		health.Checker{Name: "audio_store", Check: store.Ping},
		health.Checker{Name: "prompts", Check: func(context.Context) error { return prompts.Validate() }},
	)

	httpT := httptransport.New(a, store, httptransport.Options{
		Port:              cfg.Server.Port,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		LLMModel:          model,
		Version:           version,
		Prompts:           prompts,
		Health:            checks,
		Metrics:           metrics,
	})
	transports := []transport.Transport{httpT}

	var grpcT *grpctransport.Transport
	if cfg.Transports.GRPC.Enabled {
		grpcT = grpctransport.New(cfg.Transports.GRPC.Port)
		transports = append(transports, grpcT)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(gctx); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			return nil
		})
	}

	checks.SetReady(true)
	if grpcT != nil {
		grpcT.SetServing(true)
	}
	slog.Info("melabot ready",
		"port", cfg.Server.Port,
		"llm_backend", gen.Name(),
		"llm_model", model,
		"stt_backend", transcriber.Name(),
		"tts_enabled", synthesizer != nil,
		"languages", len(language.Codes()))

	<-gctx.Done()
	slog.Info("shutdown signal received, draining...")
	checks.SetReady(false)
	if grpcT != nil {
		grpcT.SetServing(false)
	}

	err = g.Wait()
	slog.Info("melabot stopped")
	return err
}

func newGenerator(cfg config.LLMConfig, timeouts config.TimeoutsConfig) (llm.Generator, string, error) {
	switch cfg.Backend {
	case "openai":
		g, err := openaillm.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
			openaillm.WithBaseURL(cfg.OpenAI.BaseURL),
			openaillm.WithTemperature(cfg.OpenAI.Temperature),
			openaillm.WithMaxTokens(cfg.OpenAI.MaxTokens),
			// Backstop for calls made without a deadline.
			openaillm.WithTimeout(timeouts.Completion),
		)
		if err != nil {
			return nil, "", err
		}
		slog.Info("using OpenAI-compatible completion backend",
			"base_url", cfg.OpenAI.BaseURL, "model", g.Model())
		return g, g.Model(), nil
	case "local":
		g, err := localllm.New(cfg.Local)
		if err != nil {
			return nil, "", err
		}
		slog.Info("using local completion backend", "endpoint", cfg.Local.Endpoint, "model", g.Model())
		return g, g.Model(), nil
	default:
		return nil, "", fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}

func newTranscriber(cfg config.STTConfig) (stt.Transcriber, error) {
	switch cfg.Backend {
	case "openai":
		slog.Info("using OpenAI-compatible transcription backend",
			"base_url", cfg.OpenAI.BaseURL, "model", cfg.OpenAI.Model)
		return openaistt.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, openaistt.WithBaseURL(cfg.OpenAI.BaseURL))
	case "local":
		slog.Info("using local transcription backend", "endpoint", cfg.Local.Endpoint, "type", cfg.Local.Type)
		return localstt.New(cfg.Local)
	default:
		return nil, fmt.Errorf("unknown stt backend %q", cfg.Backend)
	}
}

// newSynthesizer returns nil when speech output is disabled.
func newSynthesizer(cfg config.TTSConfig) (tts.Synthesizer, error) {
	if !cfg.Enabled {
		slog.Info("text-to-speech disabled")
		return nil, nil
	}
	switch cfg.Backend {
	case "openai":
		slog.Info("using OpenAI-compatible speech backend", "model", cfg.OpenAI.Model, "voice", cfg.OpenAI.Voice)
		return openaitts.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
			openaitts.WithBaseURL(cfg.OpenAI.BaseURL),
			openaitts.WithVoice(cfg.OpenAI.Voice),
			openaitts.WithVoices(cfg.OpenAI.Voices),
		)
	case "piper":
		slog.Info("using Piper speech backend", "endpoint", cfg.Piper.Endpoint, "languages", len(cfg.Piper.Endpoints))
		return piper.New(cfg.Piper)
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.Backend)
	}
}
