package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for problems that would otherwise only
// surface on the first request: missing credentials for a selected hosted
// backend, unknown backends, and non-positive limits. All problems are
// reported together.
//
// supportedLanguages is the set of registry codes language.default must be
// one of.
func (c *Config) Validate(supportedLanguages []string) error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}
	if c.Transports.GRPC.Enabled && c.Transports.GRPC.Port <= 0 {
		errs = append(errs, fmt.Errorf("transports.grpc.port must be positive, got %d", c.Transports.GRPC.Port))
	}
	if c.Transports.GRPC.Enabled && c.Transports.GRPC.Port == c.Server.Port {
		errs = append(errs, fmt.Errorf("transports.grpc.port must differ from server.port"))
	}

	switch c.LLM.Backend {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("llm.openai.api_key is required (set GROQ_API_KEY or MELABOT_LLM_OPENAI_API_KEY)"))
		}
	case "local":
		if c.LLM.Local.Endpoint == "" {
			errs = append(errs, errors.New("llm.local.endpoint is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm.backend %q (want openai or local)", c.LLM.Backend))
	}

	switch c.STT.Backend {
	case "openai":
		if c.STT.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("stt.openai.api_key is required (set GROQ_API_KEY or MELABOT_STT_OPENAI_API_KEY)"))
		}
	case "local":
		if c.STT.Local.Endpoint == "" {
			errs = append(errs, errors.New("stt.local.endpoint is required"))
		}
		if c.STT.Local.Type != "" && c.STT.Local.Type != "openai" && c.STT.Local.Type != "asr" {
			errs = append(errs, fmt.Errorf("unknown stt.local.type %q (want openai or asr)", c.STT.Local.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown stt.backend %q (want openai or local)", c.STT.Backend))
	}

	if c.TTS.Enabled {
		switch c.TTS.Backend {
		case "openai":
			if c.TTS.OpenAI.APIKey == "" {
				errs = append(errs, errors.New("tts.openai.api_key is required (set OPENAI_API_KEY or MELABOT_TTS_OPENAI_API_KEY)"))
			}
		case "piper":
			if c.TTS.Piper.Endpoint == "" && len(c.TTS.Piper.Endpoints) == 0 {
				errs = append(errs, errors.New("tts.piper.endpoint or tts.piper.endpoints is required"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown tts.backend %q (want openai or piper)", c.TTS.Backend))
		}
	}

	found := false
	for _, code := range supportedLanguages {
		if code == c.Language.Default {
			found = true
			break
		}
	}
	if !found {
		errs = append(errs, fmt.Errorf("language.default %q is not a supported language %v", c.Language.Default, supportedLanguages))
	}

	if c.Audio.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("audio.capacity must be positive, got %d", c.Audio.Capacity))
	}
	if c.Audio.TTL <= 0 {
		errs = append(errs, fmt.Errorf("audio.ttl must be positive, got %s", c.Audio.TTL))
	}
	if c.Timeouts.Completion <= 0 || c.Timeouts.Transcription <= 0 || c.Timeouts.Synthesis <= 0 {
		errs = append(errs, errors.New("timeouts.completion, timeouts.transcription and timeouts.synthesis must be positive"))
	}

	return errors.Join(errs...)
}
