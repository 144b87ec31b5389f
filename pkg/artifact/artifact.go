// Package artifact manages transient audio files scoped to one invocation.
// Every artifact is uniquely named and removed before process exit, on both
// success and error paths.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Artifact is a transient audio file owned by the current invocation.
type Artifact struct {
	path    string
	removed bool
}

// New reserves a unique path in the OS temp directory. The file itself is
// created by whoever synthesizes or records into it.
func New(prefix, ext string) *Artifact {
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.New().String(), ext)
	return &Artifact{path: filepath.Join(os.TempDir(), name)}
}

// Path returns the artifact's filesystem path.
func (a *Artifact) Path() string {
	return a.path
}

// Cleanup removes the artifact. Safe to call multiple times and on paths that
// were never written. Intended for defer so error paths are covered too.
func (a *Artifact) Cleanup() {
	if a.removed {
		return
	}
	a.removed = true

	if err := os.Remove(a.path); err == nil {
		slog.Debug("Artifact removed", "path", a.path)
	} else if !os.IsNotExist(err) {
		slog.Warn("Failed to remove artifact", "path", a.path, "error", err)
	}
}
