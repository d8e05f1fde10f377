// Package stt defines the speech-to-text collaborator used by the voice path.
package stt

import (
	"context"
	"path/filepath"
	"strings"
)

// Transcriber converts recorded speech to text.
//
// Implementations never receive a language hint; the backend is always asked
// to auto-detect.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Transcribe converts audio to text. filename carries the original
	// upload name; backends use its extension to pick the decoder.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Extensions lists the accepted upload extensions in presentation order.
var Extensions = []string{".mp3", ".mp4", ".mpeg", ".mpga", ".m4a", ".wav", ".webm"}

// Ext returns the lower-cased extension of filename, including the dot.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Accepts reports whether filename has one of the accepted extensions.
// Matching is case-insensitive.
func Accepts(filename string) bool {
	ext := Ext(filename)
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ContentType guesses a MIME type from filename's extension.
func ContentType(filename string) string {
	switch Ext(filename) {
	case ".mp3", ".mpeg", ".mpga":
		return "audio/mpeg"
	case ".mp4", ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}
