package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var codes = []string{"en", "hi", "mr", "ta", "te", "bn", "gu"}

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadDefaults(t)

	if cfg.Server.Port != 8000 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	if cfg.LLM.OpenAI.APIKey != "gsk-test" || cfg.STT.OpenAI.APIKey != "gsk-test" {
		t.Errorf("groq key not resolved: llm=%q stt=%q", cfg.LLM.OpenAI.APIKey, cfg.STT.OpenAI.APIKey)
	}
	if cfg.TTS.OpenAI.APIKey != "sk-test" {
		t.Errorf("tts key = %q", cfg.TTS.OpenAI.APIKey)
	}
	if cfg.LLM.OpenAI.Model != "llama-3.3-70b-versatile" || cfg.STT.OpenAI.Model != "whisper-large-v3" {
		t.Errorf("models = %q, %q", cfg.LLM.OpenAI.Model, cfg.STT.OpenAI.Model)
	}
	if cfg.Audio.Capacity != 512 || cfg.Audio.TTL != time.Hour {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Timeouts.Transcription != time.Minute {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
	if err := cfg.Validate(codes); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MELABOT_SERVER_PORT", "9001")
	t.Setenv("MELABOT_LANGUAGE_DEFAULT", "hi")
	t.Setenv("MELABOT_TIMEOUTS_COMPLETION", "5s")
	cfg := loadDefaults(t)

	if cfg.Server.Port != 9001 {
		t.Errorf("server.port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Language.Default != "hi" {
		t.Errorf("language.default = %q", cfg.Language.Default)
	}
	if cfg.Timeouts.Completion != 5*time.Second {
		t.Errorf("timeouts.completion = %s", cfg.Timeouts.Completion)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("MY_TTS_KEY", "sk-from-file-ref")
	path := filepath.Join(t.TempDir(), "melabot.yaml")
	data := `
llm:
  backend: local
  local:
    endpoint: http://ollama:11434/api/generate
    model: llama3.2:1b
tts:
  backend: piper
  openai:
    api_key: ${MY_TTS_KEY}
  piper:
    endpoints:
      hi: piper-hi:10200
audio:
  capacity: 64
  ttl: 10m
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Backend != "local" || cfg.LLM.Local.Model != "llama3.2:1b" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.TTS.Piper.Endpoints["hi"] != "piper-hi:10200" {
		t.Errorf("piper endpoints = %v", cfg.TTS.Piper.Endpoints)
	}
	if cfg.TTS.OpenAI.APIKey != "sk-from-file-ref" {
		t.Errorf("tts key = %q", cfg.TTS.OpenAI.APIKey)
	}
	if cfg.Audio.Capacity != 64 || cfg.Audio.TTL != 10*time.Minute {
		t.Errorf("audio = %+v", cfg.Audio)
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melabot.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("MELABOT_TEST_SECRET", "s3cret")
	tests := []struct {
		in, want string
	}{
		{"${MELABOT_TEST_SECRET}", "s3cret"},
		{"${MELABOT_TEST_UNSET_VAR}", ""},
		{"literal-key", "literal-key"},
		{"${PARTIAL", "${PARTIAL"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := resolveEnvRef(tt.in); got != tt.want {
			t.Errorf("resolveEnvRef(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing groq key", func(c *Config) { c.LLM.OpenAI.APIKey = "" }, "llm.openai.api_key"},
		{"unknown llm backend", func(c *Config) { c.LLM.Backend = "bard" }, "unknown llm.backend"},
		{"local llm without endpoint", func(c *Config) {
			c.LLM.Backend = "local"
			c.LLM.Local.Endpoint = ""
		}, "llm.local.endpoint"},
		{"bad stt local type", func(c *Config) {
			c.STT.Backend = "local"
			c.STT.Local.Type = "kaldi"
		}, "stt.local.type"},
		{"tts key missing", func(c *Config) { c.TTS.OpenAI.APIKey = "" }, "tts.openai.api_key"},
		{"tts key missing but disabled", func(c *Config) {
			c.TTS.Enabled = false
			c.TTS.OpenAI.APIKey = ""
		}, ""},
		{"piper without endpoints", func(c *Config) {
			c.TTS.Backend = "piper"
			c.TTS.Piper.Endpoint = ""
		}, "tts.piper.endpoint"},
		{"unsupported default language", func(c *Config) { c.Language.Default = "fr" }, "language.default"},
		{"zero capacity", func(c *Config) { c.Audio.Capacity = 0 }, "audio.capacity"},
		{"zero ttl", func(c *Config) { c.Audio.TTL = 0 }, "audio.ttl"},
		{"zero timeout", func(c *Config) { c.Timeouts.Synthesis = 0 }, "timeouts"},
		{"grpc port clash", func(c *Config) { c.Transports.GRPC.Port = c.Server.Port }, "transports.grpc.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.mutate(cfg)
			err := cfg.Validate(codes)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Server.Port = 0
	cfg.Audio.Capacity = -1
	cfg.Language.Default = "xx"
	err := cfg.Validate(codes)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "audio.capacity", "language.default"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
