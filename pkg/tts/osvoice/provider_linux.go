//go:build linux

package osvoice

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"talkback/pkg/history"
	"talkback/pkg/tts"
)

// Synthesize renders text to a WAV file using espeak-ng.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID, outputPath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".wav") {
		fullPath += ".wav"
	}

	args := []string{"-w", fullPath}
	if voiceID != "" {
		args = append(args, "-v", voiceID)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, "espeak-ng", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		history.Log("OSVOICE", text, 0, err)
		return "", fmt.Errorf("espeak-ng failed: %w\n%s", err, out)
	}

	history.Log("OSVOICE", text, 200, nil)
	return "wav", nil
}

// Voices lists the English espeak-ng voices.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	out, err := exec.CommandContext(ctx, "espeak-ng", "--voices=en").Output()
	if err != nil {
		// Enumeration never fails an invocation; an empty catalog is valid.
		return nil, nil
	}
	return parseEspeakVoices(string(out)), nil
}
