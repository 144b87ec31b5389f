// Package dictation drives the record-then-transcribe workflow: fixed
// duration recordings, pre-recorded files, and the interactive live toggle.
package dictation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"talkback/pkg/artifact"
	"talkback/pkg/stt"
	"talkback/pkg/voice"
)

// State tracks where a dictation attempt is in its lifecycle.
type State int

const (
	Idle State = iota
	Recording
	Stopped
	Transcribing
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	case Transcribing:
		return "transcribing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Capture is an in-progress microphone recording (implemented by
// audio.Capture).
type Capture interface {
	Stop() error
	WriteWAV(path string) error
	Duration() time.Duration
}

// RecordFunc captures for a fixed duration into outputPath (implemented by
// audio.Recorder.Record).
type RecordFunc func(ctx context.Context, d time.Duration, outputPath string) error

// StartFunc opens the microphone and begins capturing.
type StartFunc func() (Capture, error)

// Transcriber turns a finished audio file into text (implemented by
// stt.Transcriber).
type Transcriber interface {
	TranscribeFile(ctx context.Context, audioPath string, override voice.BackendKind) (*stt.Result, error)
}

// Session runs dictation attempts. Not safe for concurrent use.
type Session struct {
	record      RecordFunc
	start       StartFunc
	transcriber Transcriber
	override    voice.BackendKind

	state State
}

// NewSession creates a Session. record serves fixed-duration attempts,
// start serves the live toggle. override forces a transcription backend;
// BackendAuto routes by the whisper availability probe.
func NewSession(record RecordFunc, start StartFunc, t Transcriber, override voice.BackendKind) *Session {
	return &Session{
		record:      record,
		start:       start,
		transcriber: t,
		override:    override,
		state:       Idle,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

func (s *Session) transition(to State) {
	slog.Debug("Dictation state", "from", s.state, "to", to)
	s.state = to
}

// RecordAndTranscribe captures for the given duration, then transcribes.
// The recording artifact is removed on every path. Device failures abort
// without a transcription attempt.
func (s *Session) RecordAndTranscribe(ctx context.Context, d time.Duration) (*stt.Result, error) {
	out := artifact.New("stt", ".wav")
	defer out.Cleanup()

	s.transition(Recording)
	if err := s.record(ctx, d, out.Path()); err != nil {
		s.transition(Idle)
		return nil, err
	}
	s.transition(Stopped)

	return s.transcribe(ctx, out.Path())
}

// FromFile transcribes a pre-recorded audio file. No recording phase; the
// caller owns the file, so nothing is removed.
func (s *Session) FromFile(ctx context.Context, path string) (*stt.Result, error) {
	return s.transcribe(ctx, path)
}

// finishCapture writes a live capture to a temp WAV, transcribes it, and
// cleans up. Short or silent captures are submitted like any other; the
// engine decides what silence transcribes to.
func (s *Session) finishCapture(ctx context.Context, capture Capture) (*stt.Result, error) {
	out := artifact.New("stt", ".wav")
	defer out.Cleanup()

	if err := capture.WriteWAV(out.Path()); err != nil {
		s.transition(Idle)
		return nil, fmt.Errorf("failed to write recording: %w", err)
	}
	slog.Debug("Recording captured", "duration", capture.Duration(), "path", out.Path())

	return s.transcribe(ctx, out.Path())
}

func (s *Session) transcribe(ctx context.Context, path string) (*stt.Result, error) {
	s.transition(Transcribing)
	result, err := s.transcriber.TranscribeFile(ctx, path, s.override)
	if err != nil {
		s.transition(Idle)
		return nil, err
	}
	s.transition(Done)
	return result, nil
}

// Live runs the interactive toggle loop: space starts and stops a
// recording, q quits. Quitting is only honored while idle, so a recording
// in progress can't be abandoned by a stray keystroke. Each toggle pair
// produces exactly one transcription, printed to out.
func (s *Session) Live(ctx context.Context, keys <-chan rune, out io.Writer) error {
	fmt.Fprintln(out, "Live dictation: SPACE to start/stop recording, q to quit.")

	var capture Capture
	cleanup := func() {
		if capture != nil {
			_ = capture.Stop()
			capture = nil
		}
		s.transition(Idle)
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return ctx.Err()
		case key, ok := <-keys:
			if !ok {
				cleanup()
				return nil
			}
			switch {
			case key == ' ' && s.state == Idle:
				c, err := s.start()
				if err != nil {
					return err
				}
				capture = c
				s.transition(Recording)
				fmt.Fprintln(out, "Recording... press SPACE to stop.")

			case key == ' ' && s.state == Recording:
				if err := capture.Stop(); err != nil {
					capture = nil
					return err
				}
				s.transition(Stopped)

				result, err := s.finishCapture(ctx, capture)
				capture = nil
				if err != nil {
					fmt.Fprintf(out, "Transcription failed: %v\n", err)
				} else if result.Text == "" {
					fmt.Fprintln(out, "(no speech detected)")
				} else {
					fmt.Fprintln(out, result.Text)
				}
				s.transition(Idle)

			case key == 'q' || key == 'Q':
				if s.state != Idle {
					slog.Debug("Quit ignored while recording")
					continue
				}
				fmt.Fprintln(out, "Bye.")
				return nil
			}
		}
	}
}
