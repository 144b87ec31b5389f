package whisper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkback/pkg/config"
)

func TestBuildArgs(t *testing.T) {
	cfg := config.WhisperConfig{
		Binary:    "whisper-cli",
		ModelPath: "/models/ggml-tiny.bin",
	}
	args := buildArgs(cfg, "/tmp/clip.wav")
	assert.Equal(t, []string{"-m", "/models/ggml-tiny.bin", "-f", "/tmp/clip.wav", "--no-timestamps"}, args)
}

func TestBuildArgsWithLanguage(t *testing.T) {
	cfg := config.WhisperConfig{
		ModelPath: "/models/ggml-base.bin",
		Language:  "en",
	}
	args := buildArgs(cfg, "clip.wav")
	assert.Contains(t, args, "-l")
	assert.Contains(t, args, "en")
}

func TestAvailabilityCheckMissingBinary(t *testing.T) {
	check := AvailabilityCheck(config.WhisperConfig{
		Binary:    "definitely-not-installed-whisper",
		ModelPath: "/nonexistent/model.bin",
	})
	err := check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary")
}

func TestAvailabilityCheckMissingModel(t *testing.T) {
	// `ls` stands in for an installed binary.
	check := AvailabilityCheck(config.WhisperConfig{
		Binary:    "ls",
		ModelPath: filepath.Join(t.TempDir(), "missing.bin"),
	})
	err := check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestAvailabilityCheckOK(t *testing.T) {
	model := filepath.Join(t.TempDir(), "ggml-tiny.bin")
	require.NoError(t, os.WriteFile(model, []byte("weights"), 0o644))

	check := AvailabilityCheck(config.WhisperConfig{Binary: "ls", ModelPath: model})
	assert.NoError(t, check(context.Background()))
}

func TestModels(t *testing.T) {
	models := Models()
	require.NotEmpty(t, models)
	assert.Equal(t, "tiny", models[0].Name)
	for _, m := range models {
		assert.NotEmpty(t, m.Size)
		assert.NotEmpty(t, m.RAM)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "error: bad model", firstLine("error: bad model\nusage: ...\n"))
	assert.Equal(t, "single", firstLine("single"))
	assert.Equal(t, "", firstLine("\n\n"))
}
