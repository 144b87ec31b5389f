package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"talkback/pkg/artifact"
	"talkback/pkg/config"
	"talkback/pkg/probe"
	"talkback/pkg/voice"
)

// Player plays a synthesized audio file to completion.
type Player interface {
	PlayFile(path string) error
}

// Speaker routes a speech request to the online neural voice or the offline
// OS voice, plays the result, and guarantees artifact cleanup.
type Speaker struct {
	cfg      *config.TTSConfig
	primary  Provider
	fallback Provider
	player   Player

	// probeCheck is swappable so the selection policy is testable without
	// touching the network.
	probeCheck probe.CheckFunc
}

// NewSpeaker creates a Speaker over the given providers.
func NewSpeaker(cfg *config.TTSConfig, primary, fallback Provider, player Player) *Speaker {
	return &Speaker{
		cfg:        cfg,
		primary:    primary,
		fallback:   fallback,
		player:     player,
		probeCheck: ConnectivityCheck(cfg.Probe.Host),
	}
}

// Speak synthesizes and plays text. voiceIndex selects the offline fallback
// voice by its 1-based catalog position; 0 means no override, which lets the
// connectivity probe decide the backend. An explicit index skips the probe
// entirely and goes straight to the offline voice, matching the command-line
// contract: the user asked for that exact installed voice.
// Returns the backend that produced the audio.
func (s *Speaker) Speak(ctx context.Context, text string, voiceIndex int) (voice.BackendKind, error) {
	if text == "" {
		return voice.BackendAuto, voice.NewInputError("no text to speak")
	}

	fallbackVoice, err := s.resolveFallbackVoice(ctx, voiceIndex)
	if err != nil {
		return voice.BackendAuto, err
	}

	override := voice.BackendAuto
	var probeErr error
	if voiceIndex > 0 {
		override = voice.BackendFallback
	} else {
		result := probe.RunOne(ctx, probe.Probe{
			Name:    "edge-tts connectivity",
			Check:   s.probeCheck,
			Timeout: time.Duration(s.cfg.Probe.Timeout),
		})
		probeErr = result.Error
		if result.OK() {
			slog.Debug("Connectivity probe passed, using online voice")
		} else {
			slog.Debug("Connectivity probe failed, using offline voice", "error", result.Error)
		}
	}

	choice := voice.Choose(probeErr == nil, override)

	return voice.Run(ctx, choice,
		func(ctx context.Context) error {
			return s.synthesizeAndPlay(ctx, s.primary, text, s.cfg.EdgeTTS.VoiceID, ".mp3")
		},
		func(ctx context.Context) error {
			return s.synthesizeAndPlay(ctx, s.fallback, text, fallbackVoice, ".wav")
		},
		probeErr)
}

// resolveFallbackVoice maps a 1-based catalog index to a voice ID.
// An explicit out-of-range index is an input error, never a silent clamp.
// With no override, a default index that doesn't fit the installed catalog
// degrades to the first voice.
func (s *Speaker) resolveFallbackVoice(ctx context.Context, voiceIndex int) (string, error) {
	voices, err := s.fallback.Voices(ctx)
	if err != nil || len(voices) == 0 {
		// No catalog to validate against; let the engine pick its default.
		if voiceIndex > 0 {
			return "", voice.NewInputError("voice index %d requested but no voices are installed", voiceIndex)
		}
		return "", nil
	}

	if voiceIndex > 0 {
		if voiceIndex > len(voices) {
			return "", voice.NewInputError("voice index %d out of range (1-%d)", voiceIndex, len(voices))
		}
		return voices[voiceIndex-1].ID, nil
	}

	idx := s.cfg.OSVoice.DefaultVoiceIndex
	if idx < 1 || idx > len(voices) {
		slog.Warn("Default fallback voice index not in catalog, using first voice", "index", idx, "catalog_size", len(voices))
		idx = 1
	}
	return voices[idx-1].ID, nil
}

func (s *Speaker) synthesizeAndPlay(ctx context.Context, p Provider, text, voiceID, ext string) error {
	out := artifact.New("tts", ext)
	defer out.Cleanup()

	format, err := p.Synthesize(ctx, text, voiceID, out.Path())
	if err != nil {
		return err
	}

	info, err := os.Stat(out.Path())
	if err != nil {
		return fmt.Errorf("synthesized file missing: %w", err)
	}
	if info.Size() < MinAudioSize {
		return fmt.Errorf("synthesized %s file too small (%d bytes), treating as failed", format, info.Size())
	}

	if err := s.player.PlayFile(out.Path()); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

// ListVoices writes the offline voice catalog to w, marking the default
// fallback voice. Read-only; enumeration problems yield an empty listing,
// not an error.
func (s *Speaker) ListVoices(ctx context.Context, w io.Writer) {
	voices, err := s.fallback.Voices(ctx)
	if err != nil {
		slog.Debug("Voice enumeration unavailable", "error", err)
		voices = nil
	}

	fmt.Fprintln(w, "Available OS voices (fallback):")
	fmt.Fprintln(w, "--------------------------------------------------")
	for i, v := range voices {
		marker := ""
		if i+1 == s.cfg.OSVoice.DefaultVoiceIndex {
			marker = " <- DEFAULT FALLBACK"
		}
		lang := v.Language
		if lang == "" {
			lang = "unknown"
		}
		fmt.Fprintf(w, "%2d. %s (%s)%s\n", i+1, v.Name, lang, marker)
	}
	fmt.Fprintf(w, "\nPrimary voice: %s (requires internet)\n", s.cfg.EdgeTTS.VoiceID)
}
