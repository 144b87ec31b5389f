package stt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"talkback/pkg/config"
	"talkback/pkg/probe"
	"talkback/pkg/voice"
)

// supportedExtensions lists the audio container types the engines accept.
var supportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// Result is a completed transcription and the backend that produced it.
type Result struct {
	Text    string
	Backend voice.BackendKind
}

// Transcriber routes an audio file to the local whisper engine or the
// remote API fallback.
type Transcriber struct {
	cfg    *config.STTConfig
	local  Engine
	remote Engine

	// availCheck is swappable so routing is testable without a whisper
	// install.
	availCheck probe.CheckFunc
}

// NewTranscriber creates a Transcriber over the given engines. availCheck
// reports whether the local engine is usable.
func NewTranscriber(cfg *config.STTConfig, local, remote Engine, availCheck probe.CheckFunc) *Transcriber {
	return &Transcriber{
		cfg:        cfg,
		local:      local,
		remote:     remote,
		availCheck: availCheck,
	}
}

// TranscribeFile validates and transcribes an audio file. override forces a
// backend and skips the availability probe; BackendAuto lets the probe
// decide. Returns the transcript (possibly empty) and the backend used.
func (t *Transcriber) TranscribeFile(ctx context.Context, audioPath string, override voice.BackendKind) (*Result, error) {
	if err := validateAudioFile(audioPath); err != nil {
		return nil, err
	}

	var probeErr error
	if override == voice.BackendAuto {
		result := probe.RunOne(ctx, probe.Probe{
			Name:    "whisper availability",
			Check:   t.availCheck,
			Timeout: 5 * time.Second,
		})
		probeErr = result.Error
		if result.OK() {
			slog.Debug("Local whisper available, transcribing locally")
		} else {
			slog.Debug("Local whisper unavailable, using remote API", "error", result.Error)
		}
	}

	choice := voice.Choose(probeErr == nil, override)

	var text string
	backend, err := voice.Run(ctx, choice,
		func(ctx context.Context) error {
			out, err := t.local.Transcribe(ctx, audioPath)
			if err != nil {
				return fmt.Errorf("%s: %w", t.local.Name(), err)
			}
			text = out
			return nil
		},
		func(ctx context.Context) error {
			out, err := t.remote.Transcribe(ctx, audioPath)
			if err != nil {
				return fmt.Errorf("%s: %w", t.remote.Name(), err)
			}
			text = out
			return nil
		},
		probeErr)
	if err != nil {
		return nil, err
	}

	return &Result{Text: text, Backend: backend}, nil
}

// VerifyLocal confirms the local whisper engine is usable. Run before a
// forced-local pass, where a missing install should stop the invocation
// up front rather than surface as an engine error mid-flight.
func (t *Transcriber) VerifyLocal(ctx context.Context) error {
	results := probe.Run(ctx, []probe.Probe{{
		Name:     "whisper availability",
		Check:    t.availCheck,
		Timeout:  5 * time.Second,
		Critical: true,
	}})
	return probe.AnalyzeResults(results)
}

func validateAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return voice.NewInputError("audio file not found: %s", path)
	}
	if info.IsDir() {
		return voice.NewInputError("not an audio file: %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return voice.NewInputError("unsupported audio format %q (expected wav, mp3, m4a, flac or ogg)", ext)
	}
	return nil
}
