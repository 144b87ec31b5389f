// Package audio provides speaker playback and microphone capture.
package audio

import (
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const targetSampleRate = beep.SampleRate(48000)

// Player plays synthesized audio files through the default output device
// using gopxl/beep. PlayFile blocks until playback completes.
type Player struct {
	mu                 sync.Mutex
	volume             float64
	speakerInitialized bool
}

// NewPlayer creates a Player with the given volume (0.0 to 1.0).
func NewPlayer(volume float64) *Player {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	return &Player{volume: volume}
}

// PlayFile decodes and plays an audio file, blocking until the last sample
// has been handed to the device.
func (p *Player) PlayFile(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	streamer, format, err := decodeStreamer(path)
	if err != nil {
		return err
	}
	defer streamer.Close()

	if !p.speakerInitialized {
		if err := speaker.Init(targetSampleRate, targetSampleRate.N(time.Second/10)); err != nil {
			slog.Error("Failed to initialize speaker", "error", err)
			return err
		}
		p.speakerInitialized = true
	}

	resampled := beep.Resample(3, format.SampleRate, targetSampleRate, streamer)
	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(p.volume),
		Silent:   p.volume <= 0.01,
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(volStreamer, beep.Callback(func() {
		close(done)
	})))
	<-done

	slog.Debug("Playback finished", "path", path)
	return nil
}

// decodeStreamer opens an audio file as MP3 first, then WAV. Edge TTS
// produces MP3, the OS voices produce WAV.
func decodeStreamer(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to open audio file", "path", path, "error", err)
		return nil, beep.Format{}, err
	}

	streamer, format, err := mp3.Decode(f)
	if err == nil {
		return streamer, format, nil
	}

	// Reopen for the WAV attempt; a failed MP3 decode leaves the reader
	// position uncertain.
	f.Close()
	f, err = os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	streamer, format, err = wav.Decode(f)
	if err != nil {
		f.Close()
		slog.Error("Failed to decode audio file", "path", path, "error", err)
		return nil, beep.Format{}, err
	}

	return streamer, format, nil
}

// volumeToPower maps linear 0..1 volume to beep's base-2 exponent.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}
