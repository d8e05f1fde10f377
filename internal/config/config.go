// Package config handles loading and validating the melabot configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration for the melabot service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	LLM        LLMConfig        `mapstructure:"llm"`
	STT        STTConfig        `mapstructure:"stt"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Language   LanguageConfig   `mapstructure:"language"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Prompts    PromptsConfig    `mapstructure:"prompts"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// TransportsConfig holds settings for listeners other than the main HTTP API.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// GRPCConfig configures the gRPC health listener.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LLMConfig selects and configures the completion backend.
type LLMConfig struct {
	Backend string          `mapstructure:"backend"` // "openai" or "local"
	OpenAI  OpenAILLMConfig `mapstructure:"openai"`
	Local   LocalLLMConfig  `mapstructure:"local"`
}

// OpenAILLMConfig holds settings for any OpenAI-compatible chat API.
type OpenAILLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LocalLLMConfig holds self-hosted LLM settings.
type LocalLLMConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"` // Ollama model name (e.g., "llama3.2:1b")
	Temperature float64 `mapstructure:"temperature"`
}

// STTConfig selects and configures the transcription backend.
type STTConfig struct {
	Backend string          `mapstructure:"backend"` // "openai" or "local"
	OpenAI  OpenAISTTConfig `mapstructure:"openai"`
	Local   LocalSTTConfig  `mapstructure:"local"`
}

// OpenAISTTConfig holds settings for an OpenAI-compatible transcription API.
type OpenAISTTConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// LocalSTTConfig holds self-hosted whisper settings.
type LocalSTTConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Type     string `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	Model    string `mapstructure:"model"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool            `mapstructure:"enabled"`
	Backend string          `mapstructure:"backend"` // "openai" or "piper"
	OpenAI  OpenAITTSConfig `mapstructure:"openai"`
	Piper   PiperConfig     `mapstructure:"piper"`
}

// OpenAITTSConfig holds settings for an OpenAI-compatible speech API.
type OpenAITTSConfig struct {
	APIKey  string            `mapstructure:"api_key"`
	BaseURL string            `mapstructure:"base_url"`
	Model   string            `mapstructure:"model"`
	Voice   string            `mapstructure:"voice"`  // default voice
	Voices  map[string]string `mapstructure:"voices"` // ISO-639-1 code -> voice
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. Endpoints takes precedence.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`  // Default Wyoming TCP endpoint (host:port)
	Endpoints map[string]string `mapstructure:"endpoints"` // ISO-639-1 language code -> Wyoming TCP endpoint
	Voices    map[string]string `mapstructure:"voices"`    // ISO-639-1 language code -> Piper voice model name
}

// LanguageConfig controls language resolution.
type LanguageConfig struct {
	// Default is the code used when detection fails or is inconclusive.
	Default string `mapstructure:"default"`
}

// AudioConfig bounds the in-memory audio store.
type AudioConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// TimeoutsConfig holds per-collaborator call deadlines.
type TimeoutsConfig struct {
	Completion    time.Duration `mapstructure:"completion"`
	Transcription time.Duration `mapstructure:"transcription"`
	Synthesis     time.Duration `mapstructure:"synthesis"`
}

// PromptsConfig points at an optional persona file overriding the built-in one.
type PromptsConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from a .env file, a config file, environment
// variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./melabot.yaml, ./configs/melabot.yaml, /etc/melabot/melabot.yaml.
func Load(configFile string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	v := viper.New()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("llm.backend", "openai")
	v.SetDefault("llm.openai.api_key", "${GROQ_API_KEY}")
	v.SetDefault("llm.openai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.openai.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.openai.temperature", 0.3)
	v.SetDefault("llm.openai.max_tokens", 500)
	v.SetDefault("llm.local.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("llm.local.model", "llama3")
	v.SetDefault("llm.local.temperature", 0.3)
	v.SetDefault("stt.backend", "openai")
	v.SetDefault("stt.openai.api_key", "${GROQ_API_KEY}")
	v.SetDefault("stt.openai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("stt.openai.model", "whisper-large-v3")
	v.SetDefault("stt.local.endpoint", "http://localhost:9000/v1/audio/transcriptions")
	v.SetDefault("stt.local.type", "openai")
	v.SetDefault("tts.enabled", true)
	v.SetDefault("tts.backend", "openai")
	v.SetDefault("tts.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("tts.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("tts.openai.model", "gpt-4o-mini-tts")
	v.SetDefault("tts.openai.voice", "alloy")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("language.default", "en")
	v.SetDefault("audio.capacity", 512)
	v.SetDefault("audio.ttl", time.Hour)
	v.SetDefault("timeouts.completion", 30*time.Second)
	v.SetDefault("timeouts.transcription", 60*time.Second)
	v.SetDefault("timeouts.synthesis", 30*time.Second)
	v.SetDefault("prompts.file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("melabot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/melabot")
	}

	// Environment variables: MELABOT_SERVER_PORT, MELABOT_LLM_BACKEND, etc.
	v.SetEnvPrefix("MELABOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${GROQ_API_KEY}").
	cfg.LLM.OpenAI.APIKey = resolveEnvRef(cfg.LLM.OpenAI.APIKey)
	cfg.STT.OpenAI.APIKey = resolveEnvRef(cfg.STT.OpenAI.APIKey)
	cfg.TTS.OpenAI.APIKey = resolveEnvRef(cfg.TTS.OpenAI.APIKey)

	return &cfg, nil
}

// resolveEnvRef replaces a "${VAR_NAME}" value with the environment
// variable's value. An unset variable resolves to "" so that Validate
// reports the missing credential.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
