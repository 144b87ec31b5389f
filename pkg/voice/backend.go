// Package voice holds the backend selection policy shared by the tts and
// stt tools: a pure choice function fed by a fresh availability probe, and a
// runner that executes the chosen backend with a single-shot fallback.
package voice

import (
	"context"
	"log/slog"
)

// BackendKind identifies which of the two backends served a request.
type BackendKind int

const (
	// BackendAuto means no explicit override; the probe decides.
	BackendAuto BackendKind = iota
	// BackendPrimary is the preferred engine (online neural voice for TTS,
	// local whisper model for STT).
	BackendPrimary
	// BackendFallback is the secondary engine (offline OS voice for TTS,
	// remote API for STT).
	BackendFallback
)

// String implements fmt.Stringer.
func (k BackendKind) String() string {
	switch k {
	case BackendPrimary:
		return "primary"
	case BackendFallback:
		return "fallback"
	default:
		return "auto"
	}
}

// Choose decides which backend to use. Pure: no I/O, fully unit-testable.
// An explicit override always wins; otherwise the probe result routes the
// request. Callers must not invoke the probe at all when an override is set.
func Choose(probeOK bool, override BackendKind) BackendKind {
	if override == BackendPrimary || override == BackendFallback {
		return override
	}
	if probeOK {
		return BackendPrimary
	}
	return BackendFallback
}

// Attempt executes one backend against the current request.
type Attempt func(ctx context.Context) error

// Run executes the chosen backend and returns the kind that actually
// produced the result.
//
// If the primary backend fails at call time (after the probe passed), the
// fallback is tried exactly once before the combined failure propagates.
// This is a single-shot fallback, not a retry loop: at most two backend
// attempts happen per invocation.
//
// probeErr carries the routing reason when choice is already BackendFallback,
// so a subsequent fallback failure can describe both causes.
func Run(ctx context.Context, choice BackendKind, primary, fallback Attempt, probeErr error) (BackendKind, error) {
	if choice == BackendFallback {
		if err := fallback(ctx); err != nil {
			return BackendFallback, &TotalError{PrimaryErr: probeErr, FallbackErr: err}
		}
		return BackendFallback, nil
	}

	err := primary(ctx)
	if err == nil {
		return BackendPrimary, nil
	}

	slog.Warn("Primary backend failed, falling back", "error", err)

	if fbErr := fallback(ctx); fbErr != nil {
		return BackendFallback, &TotalError{PrimaryErr: err, FallbackErr: fbErr}
	}
	return BackendFallback, nil
}
