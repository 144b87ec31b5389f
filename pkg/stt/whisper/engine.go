// Package whisper runs local transcription through the whisper.cpp CLI.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"talkback/pkg/config"
	"talkback/pkg/history"
	"talkback/pkg/stt"
	"talkback/pkg/tracker"
)

// Engine shells out to whisper-cli for fully offline transcription.
type Engine struct {
	cfg     config.WhisperConfig
	tracker *tracker.Tracker
}

// NewEngine creates a local whisper engine.
func NewEngine(cfg config.WhisperConfig, t *tracker.Tracker) *Engine {
	return &Engine{cfg: cfg, tracker: t}
}

func (e *Engine) Name() string { return "whisper" }

// Transcribe runs whisper-cli against the audio file and returns the
// trimmed transcript.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := buildArgs(e.cfg, audioPath)
	slog.Debug("Running whisper", "binary", e.cfg.Binary, "args", args)

	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)
	out, err := cmd.Output()
	if err != nil {
		e.tracker.TrackAPIFailure("WHISPER")
		history.Log("WHISPER", audioPath, 0, err)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("whisper-cli failed: %s", firstLine(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("whisper-cli failed: %w", err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		e.tracker.TrackAPIZero("WHISPER")
	} else {
		e.tracker.TrackAPISuccess("WHISPER")
	}
	history.Log("WHISPER", audioPath, 200, nil)
	return text, nil
}

// buildArgs assembles the whisper-cli invocation. --no-timestamps keeps the
// output a plain transcript.
func buildArgs(cfg config.WhisperConfig, audioPath string) []string {
	args := []string{
		"-m", cfg.ModelPath,
		"-f", audioPath,
		"--no-timestamps",
	}
	if cfg.Language != "" {
		args = append(args, "-l", cfg.Language)
	}
	return args
}

// AvailabilityCheck reports whether the whisper binary and its model file
// are both present. Used as the routing probe for local transcription.
func AvailabilityCheck(cfg config.WhisperConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := exec.LookPath(cfg.Binary); err != nil {
			return fmt.Errorf("whisper binary %q not found: %w", cfg.Binary, err)
		}
		if _, err := os.Stat(cfg.ModelPath); err != nil {
			return fmt.Errorf("whisper model %q not found: %w", cfg.ModelPath, err)
		}
		return nil
	}
}

// Models lists the downloadable ggml model sizes with their approximate
// resource needs.
func Models() []stt.ModelInfo {
	return []stt.ModelInfo{
		{Name: "tiny", Size: "75 MB", RAM: "~273 MB"},
		{Name: "base", Size: "142 MB", RAM: "~388 MB"},
		{Name: "small", Size: "466 MB", RAM: "~852 MB"},
		{Name: "medium", Size: "1.5 GB", RAM: "~2.1 GB"},
		{Name: "large", Size: "2.9 GB", RAM: "~3.9 GB"},
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
