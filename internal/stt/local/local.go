// Package local implements stt.Transcriber against a self-hosted whisper
// server.
//
// Two flavours are supported:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nadzzz/melabot/internal/config"
	"github.com/nadzzz/melabot/internal/stt"
)

// Transcriber posts audio to a local whisper endpoint.
type Transcriber struct {
	endpoint string
	flavour  string
	model    string
	client   *http.Client
}

// New creates a local transcriber from config.
func New(cfg config.LocalSTTConfig) (*Transcriber, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("stt/local: endpoint must not be empty")
	}
	flavour := cfg.Type
	if flavour == "" {
		flavour = "openai"
	}
	return &Transcriber{
		endpoint: cfg.Endpoint,
		flavour:  flavour,
		model:    cfg.Model,
		client:   &http.Client{},
	}, nil
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "local" }

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	switch t.flavour {
	case "asr":
		return t.transcribeASR(ctx, audio, filename)
	default:
		return t.transcribeOpenAI(ctx, audio, filename)
	}
}

// transcribeASR handles the whisper-asr-webservice format.
// API: POST /asr?task=transcribe&output=json&encode=true
// Body: multipart/form-data with field "audio_file"
func (t *Transcriber) transcribeASR(ctx context.Context, audio []byte, filename string) (string, error) {
	body, contentType, err := multipartAudio("audio_file", filename, audio, nil)
	if err != nil {
		return "", err
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	reqURL := t.endpoint + "?" + q.Encode()

	slog.Debug("whisper-asr request", "url", reqURL)
	return t.post(ctx, reqURL, body, contentType)
}

// transcribeOpenAI handles OpenAI-compatible whisper endpoints.
func (t *Transcriber) transcribeOpenAI(ctx context.Context, audio []byte, filename string) (string, error) {
	fields := map[string]string{"response_format": "json"}
	if t.model != "" {
		fields["model"] = t.model
	}
	body, contentType, err := multipartAudio("file", filename, audio, fields)
	if err != nil {
		return "", err
	}
	return t.post(ctx, t.endpoint, body, contentType)
}

func (t *Transcriber) post(ctx context.Context, reqURL string, body *bytes.Buffer, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("local transcription complete", "text_length", len(result.Text), "language", result.Language)
	return strings.TrimSpace(result.Text), nil
}

// multipartAudio builds a form with audio under field plus extra text fields.
func multipartAudio(field, filename string, audio []byte, extra map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	name := filepath.Base(filename)
	if name == "." || name == "/" || name == "" {
		name = "audio.webm"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": name,
	}))
	h.Set("Content-Type", stt.ContentType(name))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}
	for k, v := range extra {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

var _ stt.Transcriber = (*Transcriber)(nil)
