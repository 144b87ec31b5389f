// Package stt routes transcription requests between the local whisper
// engine and the remote API fallback.
package stt

import "context"

// Engine transcribes a recorded audio file into text.
type Engine interface {
	// Transcribe converts the audio at audioPath to text. An empty
	// transcript with a nil error is a valid result (silence).
	Transcribe(ctx context.Context, audioPath string) (string, error)
	// Name identifies the engine in logs and results.
	Name() string
}

// ModelInfo describes one entry of a model catalog.
type ModelInfo struct {
	Name string
	Size string // on-disk size
	RAM  string // approximate memory requirement
}
