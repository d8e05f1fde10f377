// Package message defines the request and response bodies of the assistant
// API.
package message

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageRunes is the longest accepted chat message after trimming.
const MaxMessageRunes = 1000

// StatusSuccess is the only status a successful response carries.
const StatusSuccess = "success"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	// Message is the pilgrim's question in any supported language,
	// native script or romanized.
	Message string `json:"message" example:"snan ka time kya hai"`

	// EnableTTS asks for a spoken reply. Defaults to false.
	EnableTTS bool `json:"enable_tts" example:"false"`
}

// ValidationError describes a request rejected before any external call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Normalize trims Message in place and checks its length.
func (r *ChatRequest) Normalize() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return &ValidationError{Field: "message", Reason: "Message cannot be empty"}
	}
	if n := utf8.RuneCountInString(r.Message); n > MaxMessageRunes {
		return &ValidationError{
			Field:  "message",
			Reason: fmt.Sprintf("Message must be at most %d characters, got %d", MaxMessageRunes, n),
		}
	}
	return nil
}

// ChatResponse is returned by both POST /chat and POST /chat/voice.
type ChatResponse struct {
	// Reply is the assistant's answer, in the language of the question.
	Reply string `json:"reply"`

	// DetectedLanguage is the registry code of the question's language.
	DetectedLanguage string `json:"detected_language" example:"hi"`

	// LanguageName is the registry display name for DetectedLanguage.
	LanguageName string `json:"language_name" example:"Hindi (हिंदी)"`

	// Status is always "success".
	Status string `json:"status" example:"success"`

	// AudioURL points at the spoken reply when synthesis succeeded.
	AudioURL string `json:"audio_url,omitempty" example:"/audio/3f0c2c1e-8d7e-4a52-9d8e-2b8f0e6a9c41"`

	// Transcript is what was heard, set only on the voice path.
	Transcript string `json:"transcript,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
