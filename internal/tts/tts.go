// Package tts defines the text-to-speech collaborator.
//
// Replies are spoken back in the language the resolver picked, so every
// backend selects its voice from SynthesizeOpts.Language unless Voice
// overrides it.
package tts

import "context"

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the registry code (e.g., "hi", "ta") used to select the voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier (e.g., "openai", "piper").
	Name() string

	// Synthesize generates a complete audio file for text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is a complete, playable file (MP3 or WAV).
	Audio []byte

	// ContentType is the MIME type of Audio (e.g., "audio/mpeg").
	ContentType string
}
