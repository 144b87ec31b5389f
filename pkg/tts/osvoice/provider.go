// Package osvoice implements tts.Provider on top of the operating system's
// installed voices: `say` on macOS, espeak-ng on Linux, SAPI5 on Windows.
// It needs no network and serves as the fallback engine.
package osvoice

import (
	"sync"
)

// Provider implements tts.Provider using the platform speech engine.
type Provider struct {
	mu sync.Mutex
}

// NewProvider creates a new OS voice provider.
func NewProvider() *Provider {
	return &Provider{}
}
