//go:build darwin

package osvoice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"talkback/pkg/history"
	"talkback/pkg/tts"
)

// Synthesize renders text to a WAV file using the macOS `say` engine.
// `say` outputs AIFF natively, so we write a temp AIFF next to the target
// and convert with afconvert.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID, outputPath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".wav") {
		fullPath += ".wav"
	}
	aiff := fullPath + ".aiff"

	args := []string{"-o", aiff}
	if voiceID != "" {
		args = append(args, "-v", voiceID)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, "say", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		history.Log("OSVOICE", text, 0, err)
		return "", fmt.Errorf("say failed: %w\n%s", err, out)
	}
	defer func() { _ = os.Remove(aiff) }()

	cmd = exec.CommandContext(ctx, "afconvert", "-f", "WAVE", "-d", "LEI16", aiff, fullPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		history.Log("OSVOICE", text, 0, err)
		return "", fmt.Errorf("aiff to wav conversion failed: %w\n%s", err, out)
	}

	history.Log("OSVOICE", text, 200, nil)
	return "wav", nil
}

// Voices lists the installed English voices in `say -v ?` order.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	out, err := exec.CommandContext(ctx, "say", "-v", "?").Output()
	if err != nil {
		// Enumeration never fails an invocation; an empty catalog is valid.
		return nil, nil
	}
	return parseSayVoices(string(out)), nil
}
