package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "talkback.yaml")

	tests := []struct {
		name          string
		setup         func()
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func() {}, // No file
			validate: func(t *testing.T, cfg *Config) {
				if cfg.TTS.EdgeTTS.VoiceID != "en-US-AriaNeural" {
					t.Errorf("expected default edge voice 'en-US-AriaNeural', got '%s'", cfg.TTS.EdgeTTS.VoiceID)
				}
				if cfg.TTS.OSVoice.DefaultVoiceIndex != 7 {
					t.Errorf("expected default voice index 7, got %d", cfg.TTS.OSVoice.DefaultVoiceIndex)
				}
				if cfg.STT.Record.SampleRate != 16000 {
					t.Errorf("expected sample rate 16000, got %d", cfg.STT.Record.SampleRate)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "voice: en-US-AriaNeural") {
					t.Error("config file missing default values")
				}
				if !strings.Contains(string(content), "default_voice_index: 7") {
					t.Error("config file missing default_voice_index")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func() {
				err := os.WriteFile(configPath, []byte("tts:\n  edge_tts:\n    voice: en-GB-SoniaNeural\nstt:\n  whisper:\n    model: base\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.TTS.EdgeTTS.VoiceID != "en-GB-SoniaNeural" {
					t.Errorf("expected edge voice 'en-GB-SoniaNeural', got '%s'", cfg.TTS.EdgeTTS.VoiceID)
				}
				if cfg.STT.Whisper.Model != "base" {
					t.Errorf("expected whisper model 'base', got '%s'", cfg.STT.Whisper.Model)
				}
				// Unset fields keep defaults
				if cfg.TTS.Probe.Host != "speech.platform.bing.com:443" {
					t.Errorf("expected default probe host, got '%s'", cfg.TTS.Probe.Host)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "voice: en-GB-SoniaNeural") {
					t.Error("config file should keep custom value untouched")
				}
			},
		},
		{
			name: "InvalidVoiceIndex",
			setup: func() {
				err := os.WriteFile(configPath, []byte("tts:\n  os_voice:\n    default_voice_index: 0\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "InvalidEdgeVoice",
			setup: func() {
				err := os.WriteFile(configPath, []byte("tts:\n  edge_tts:\n    voice: Aria\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup()

			cfg, err := Load(configPath)
			if tt.expectedError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
			if tt.checkFile != nil {
				tt.checkFile(t)
			}
		})
	}
}

func TestEnvCredentialFallback(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "talkback.yaml")

	if err := os.WriteFile(configPath, []byte("stt:\n  openai:\n    key: \"\"\n"), 0o644); err != nil {
		t.Fatalf("failed to setup test file: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.STT.OpenAI.Key != "sk-test-123" {
		t.Errorf("expected key from env, got '%s'", cfg.STT.OpenAI.Key)
	}

	// Explicit config value wins over env
	if err := os.WriteFile(configPath, []byte("stt:\n  openai:\n    key: sk-from-file\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite test file: %v", err)
	}
	cfg, err = Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.STT.OpenAI.Key != "sk-from-file" {
		t.Errorf("expected key from file, got '%s'", cfg.STT.OpenAI.Key)
	}
}

func TestGenerateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "talkback.yaml")

	if err := GenerateDefault(configPath); err != nil {
		t.Fatalf("GenerateDefault() failed: %v", err)
	}

	// Second call is a no-op on an existing file
	if err := os.WriteFile(configPath, []byte("# custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := GenerateDefault(configPath); err != nil {
		t.Fatalf("GenerateDefault() on existing file failed: %v", err)
	}
	content, _ := os.ReadFile(configPath)
	if string(content) != "# custom\n" {
		t.Error("GenerateDefault overwrote an existing file")
	}
}
