// Package openai provides the remote transcription fallback via the
// OpenAI audio API.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"talkback/pkg/config"
	"talkback/pkg/history"
	"talkback/pkg/tracker"
)

// Engine transcribes audio through the hosted Whisper API. Requires an API
// key; without one this path fails and nothing else is tried.
type Engine struct {
	cfg     config.OpenAIConfig
	tracker *tracker.Tracker

	client *goopenai.Client
}

// NewEngine creates a remote transcription engine.
func NewEngine(cfg config.OpenAIConfig, t *tracker.Tracker) *Engine {
	e := &Engine{cfg: cfg, tracker: t}
	if cfg.Key != "" {
		e.client = goopenai.NewClient(cfg.Key)
	}
	return e
}

func (e *Engine) Name() string { return "openai" }

// Transcribe uploads the audio file and returns the transcript.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if e.client == nil {
		return "", fmt.Errorf("no OpenAI API key configured (set OPENAI_API_KEY)")
	}

	model := e.cfg.Model
	if model == "" {
		model = goopenai.Whisper1
	}

	slog.Debug("Uploading audio for transcription", "path", audioPath, "model", model)
	resp, err := e.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    model,
		FilePath: audioPath,
	})
	if err != nil {
		e.tracker.TrackAPIFailure("OPENAI")
		history.Log("OPENAI", audioPath, 0, err)
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		e.tracker.TrackAPIZero("OPENAI")
	} else {
		e.tracker.TrackAPISuccess("OPENAI")
	}
	history.Log("OPENAI", audioPath, 200, nil)
	return text, nil
}
