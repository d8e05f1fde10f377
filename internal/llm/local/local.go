// Package local implements llm.Generator against a self-hosted model.
//
// It speaks either the OpenAI-compatible /v1/chat/completions format (vLLM,
// llama.cpp server, Ollama's compatibility layer) or Ollama's native
// /api/generate format, selected by the endpoint suffix.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nadzzz/melabot/internal/config"
	"github.com/nadzzz/melabot/internal/llm"
)

// Generator calls a self-hosted completion endpoint over HTTP.
type Generator struct {
	endpoint    string
	model       string
	temperature float64
	client      *http.Client
}

// New creates a local generator from config.
func New(cfg config.LocalLLMConfig) (*Generator, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("local: endpoint must not be empty")
	}
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &Generator{
		endpoint:    cfg.Endpoint,
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{},
	}, nil
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "local" }

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// Generate sends persona and input to the local endpoint.
func (g *Generator) Generate(ctx context.Context, persona, input string) (string, error) {
	var reqBody map[string]any
	if strings.HasSuffix(g.endpoint, "/api/generate") {
		reqBody = map[string]any{
			"model":  g.model,
			"system": persona,
			"prompt": input,
			"stream": false,
			"options": map[string]any{
				"temperature": g.temperature,
			},
		}
	} else {
		reqBody = map[string]any{
			"model": g.model,
			"messages": []map[string]string{
				{"role": "system", "content": persona},
				{"role": "user", "content": input},
			},
			"temperature": g.temperature,
			"stream":      false,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody)
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading LLM response: %w", err)
	}

	content := strings.TrimSpace(extractContent(respData))
	if content == "" {
		return "", fmt.Errorf("empty response from local LLM")
	}
	return content, nil
}

// extractContent pulls the generated text out of either response shape.
func extractContent(data []byte) string {
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Response != "" {
		return ollamaResp.Response
	}

	return ""
}

var _ llm.Generator = (*Generator)(nil)
