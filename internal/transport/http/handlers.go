package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/nadzzz/melabot/internal/audiostore"
	"github.com/nadzzz/melabot/internal/language"
	"github.com/nadzzz/melabot/internal/message"
	"github.com/nadzzz/melabot/internal/observe"
)

const (
	serviceName  = "Nashik Kumbh Mela 2027 AI Assistant"
	location     = "Nashik & Trimbakeshwar, Maharashtra"
	eventYear    = 2027
	sacredRiver  = "Godavari (Gautami Ganga)"
	audioMissing = "Audio not found"
)

// RootResponse describes the service.
type RootResponse struct {
	Status             string            `json:"status" example:"online"`
	Service            string            `json:"service"`
	Location           string            `json:"location"`
	EventYear          int               `json:"event_year" example:"2027"`
	SacredRiver        string            `json:"sacred_river"`
	SupportedLanguages map[string]string `json:"supported_languages"`
	TotalLanguages     int               `json:"total_languages" example:"7"`
	Features           []string          `json:"features"`
}

// LanguagesResponse lists the supported languages.
type LanguagesResponse struct {
	Languages map[string]string `json:"languages"`
	Count     int               `json:"count" example:"7"`
	Codes     []string          `json:"codes"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status             string   `json:"status" example:"healthy"`
	LLMModel           string   `json:"llm_model" example:"llama-3.3-70b-versatile"`
	LanguagesSupported []string `json:"languages_supported"`
	TotalLanguages     int      `json:"total_languages" example:"7"`
	LanguageNames      []string `json:"language_names"`
	TTSEnabled         bool     `json:"tts_enabled"`
}

// StatusResponse reports runtime statistics.
type StatusResponse struct {
	Status        string           `json:"status" example:"online"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	AudioCache    AudioCacheStatus `json:"audio_cache"`
}

// AudioCacheStatus mirrors audiostore.Stats.
type AudioCacheStatus struct {
	Entries    int    `json:"entries"`
	Capacity   int    `json:"capacity"`
	TTLSeconds int64  `json:"ttl_seconds"`
	Evictions  uint64 `json:"evictions"`
}

// handleRoot serves the service descriptor.
//
// @Summary  Service descriptor
// @Tags     info
// @Produce  json
// @Success  200  {object}  RootResponse
// @Router   / [get]
func (t *Transport) handleRoot(w http.ResponseWriter, _ *http.Request) {
	features := []string{"text_chat", "voice_input"}
	if t.assistant.SynthesisEnabled() {
		features = append(features, "text_to_speech")
	}
	writeJSON(w, http.StatusOK, RootResponse{
		Status:             "online",
		Service:            serviceName,
		Location:           location,
		EventYear:          eventYear,
		SacredRiver:        sacredRiver,
		SupportedLanguages: language.Names(),
		TotalLanguages:     len(language.All()),
		Features:           features,
	})
}

// handleLanguages lists the supported languages.
//
// @Summary  Supported languages
// @Tags     info
// @Produce  json
// @Success  200  {object}  LanguagesResponse
// @Router   /languages [get]
func (t *Transport) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	codes := language.Codes()
	writeJSON(w, http.StatusOK, LanguagesResponse{
		Languages: language.Names(),
		Count:     len(codes),
		Codes:     codes,
	})
}

// handleHealth reports model and language details.
//
// @Summary  Detailed health
// @Tags     info
// @Produce  json
// @Success  200  {object}  HealthResponse
// @Router   /health [get]
func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	codes := language.Codes()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:             "healthy",
		LLMModel:           t.opts.LLMModel,
		LanguagesSupported: codes,
		TotalLanguages:     len(codes),
		LanguageNames:      language.DisplayNames(),
		TTSEnabled:         t.assistant.SynthesisEnabled(),
	})
}

// handleStatus reports uptime and audio cache statistics.
//
// @Summary  Runtime status
// @Tags     info
// @Produce  json
// @Success  200  {object}  StatusResponse
// @Router   /status [get]
func (t *Transport) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := t.store.Stats()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:        "online",
		Version:       t.opts.Version,
		UptimeSeconds: int64(time.Since(t.started).Seconds()),
		AudioCache: AudioCacheStatus{
			Entries:    st.Entries,
			Capacity:   st.Capacity,
			TTLSeconds: int64(st.TTL.Seconds()),
			Evictions:  st.Evictions,
		},
	})
}

// handleChat answers a text question.
//
// @Summary     Ask a question
// @Description Detects the language of the message (English, Hindi, Marathi, Tamil, Telugu,
// @Description Bengali, Gujarati, native script or romanized) and answers in the same language.
// @Description With enable_tts the reply is also synthesized and exposed under audio_url.
// @Tags        chat
// @Accept      json
// @Produce     json
// @Param       request  body      message.ChatRequest    true  "Question"
// @Success     200      {object}  message.ChatResponse
// @Failure     422      {object}  message.ErrorResponse  "Empty or over-long message"
// @Failure     500      {object}  message.ErrorResponse  "Multilingual apology"
// @Failure     504      {object}  message.ErrorResponse  "Upstream timeout"
// @Router      /chat [post]
func (t *Transport) handleChat(w http.ResponseWriter, r *http.Request) {
	var req message.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body: "+err.Error())
		return
	}

	resp, err := t.assistant.HandleChat(r.Context(), req)
	if err != nil {
		t.writeError(w, r, err, http.StatusUnprocessableEntity, t.opts.Prompts.Errors.Chat)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVoice answers a spoken question. The reply is always synthesized.
//
// @Summary     Ask a question by voice
// @Description Transcribes the upload, detects its language and answers in the same language,
// @Description with synthesized audio. Supported: .mp3, .mp4, .mpeg, .mpga, .m4a, .wav, .webm
// @Tags        chat
// @Accept      multipart/form-data
// @Produce     json
// @Param       audio  formData  file                   true  "Recorded question"
// @Success     200    {object}  message.ChatResponse
// @Failure     400    {object}  message.ErrorResponse  "Unsupported file type"
// @Failure     413    {object}  message.ErrorResponse  "Upload too large"
// @Failure     422    {object}  message.ErrorResponse  "Missing audio field"
// @Failure     500    {object}  message.ErrorResponse  "Multilingual apology"
// @Failure     504    {object}  message.ErrorResponse  "Upstream timeout"
// @Router      /chat/voice [post]
func (t *Transport) handleVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	file, hdr, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeDetail(w, http.StatusRequestEntityTooLarge, "Audio file too large")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeDetail(w, http.StatusUnprocessableEntity, "audio: field required")
		default:
			writeDetail(w, http.StatusUnprocessableEntity, "Invalid multipart body: "+err.Error())
		}
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		observe.Logger(r.Context()).Error("reading upload", "error", err)
		writeDetail(w, http.StatusBadRequest, "Could not read audio file")
		return
	}
	if len(audio) > maxUploadBytes {
		writeDetail(w, http.StatusRequestEntityTooLarge, "Audio file too large")
		return
	}

	resp, err := t.assistant.HandleVoice(r.Context(), audio, hdr.Filename)
	if err != nil {
		t.writeError(w, r, err, http.StatusBadRequest, t.opts.Prompts.Errors.Voice)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAudio streams a stored reply.
//
// @Summary  Fetch synthesized audio
// @Tags     audio
// @Produce  audio/mpeg
// @Produce  audio/wav
// @Param    id   path      string  true  "Audio id from audio_url"
// @Success  200  {file}    binary
// @Failure  404  {object}  message.ErrorResponse
// @Router   /audio/{id} [get]
func (t *Transport) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	blob, err := t.store.Get(id)
	if errors.Is(err, audiostore.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, audioMissing)
		return
	}
	if err != nil {
		observe.Logger(r.Context()).Error("audio lookup failed", "id", id, "error", err)
		writeDetail(w, http.StatusInternalServerError, audioMissing)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Audio)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": "response_" + id + extensionFor(blob.ContentType),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Audio)
}

// extensionFor picks a download extension for a stored content type.
func extensionFor(contentType string) string {
	switch contentType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	default:
		return ".mp3"
	}
}
