package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration shared by the voice tools.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
	TTS     TTSConfig     `yaml:"tts"`
	STT     STTConfig     `yaml:"stt"`
	Audio   AudioConfig   `yaml:"audio"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// HistoryConfig holds settings for the backend call history log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EdgeTTSConfig holds settings for the Edge TTS online voice.
type EdgeTTSConfig struct {
	VoiceID            string `yaml:"voice"` // e.g. "en-US-AriaNeural"
	BaseURL            string `yaml:"base_url"`
	Origin             string `yaml:"origin"`
	UserAgent          string `yaml:"user_agent"`
	TrustedClientToken string `yaml:"trusted_client_token"`
	SecMSGecVersion    string `yaml:"sec_ms_gec_version"`
}

// OSVoiceConfig holds settings for the offline OS voice fallback.
type OSVoiceConfig struct {
	// DefaultVoiceIndex is the 1-based index into the enumerated voice
	// catalog used when no explicit index is given on the command line.
	DefaultVoiceIndex int `yaml:"default_voice_index"`
}

// ProbeConfig holds settings for the connectivity probe.
type ProbeConfig struct {
	Host    string   `yaml:"host"` // host:port dialed to decide online vs offline
	Timeout Duration `yaml:"timeout"`
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	EdgeTTS EdgeTTSConfig `yaml:"edge_tts"`
	OSVoice OSVoiceConfig `yaml:"os_voice"`
	Probe   ProbeConfig   `yaml:"probe"`
}

// WhisperConfig holds settings for the local whisper.cpp engine.
type WhisperConfig struct {
	Binary    string `yaml:"binary"` // whisper-cli binary, resolved via PATH if bare
	ModelPath string `yaml:"model_path"`
	Model     string `yaml:"model"`    // model size name, e.g. "tiny"
	Language  string `yaml:"language"` // "" = auto-detect
}

// OpenAIConfig holds settings for the remote transcription fallback.
type OpenAIConfig struct {
	Key   string `yaml:"key"` // falls back to OPENAI_API_KEY
	Model string `yaml:"model"`
}

// RecordConfig holds microphone capture settings.
type RecordConfig struct {
	SampleRate  int      `yaml:"sample_rate"`
	Channels    int      `yaml:"channels"`
	ChunkFrames int      `yaml:"chunk_frames"`
	Duration    Duration `yaml:"duration"` // default fixed-recording length
}

// STTConfig holds Speech-To-Text settings.
type STTConfig struct {
	Whisper WhisperConfig `yaml:"whisper"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Record  RecordConfig  `yaml:"record"`
}

// AudioConfig holds playback settings.
type AudioConfig struct {
	Volume float64 `yaml:"volume"` // 0.0 to 1.0
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Path:  "./logs/talkback.log",
			Level: "INFO",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./logs/history.log",
		},
		TTS: TTSConfig{
			EdgeTTS: EdgeTTSConfig{
				VoiceID:            "en-US-AriaNeural",
				BaseURL:            "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1",
				Origin:             "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold",
				UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0",
				TrustedClientToken: "6A5AA1D4EAFF4E9FB37E23D68491D6F4",
				SecMSGecVersion:    "1-130.0.2849.68",
			},
			OSVoice: OSVoiceConfig{
				DefaultVoiceIndex: 7,
			},
			Probe: ProbeConfig{
				Host:    "speech.platform.bing.com:443",
				Timeout: Duration(3 * time.Second),
			},
		},
		STT: STTConfig{
			Whisper: WhisperConfig{
				Binary:    "whisper-cli",
				ModelPath: "./models/ggml-tiny.bin",
				Model:     "tiny",
				Language:  "en",
			},
			OpenAI: OpenAIConfig{
				Key:   "",
				Model: "whisper-1",
			},
			Record: RecordConfig{
				SampleRate:  16000,
				Channels:    1,
				ChunkFrames: 1024,
				Duration:    Duration(5 * time.Second),
			},
		},
		Audio: AudioConfig{
			Volume: 1.0,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		applyEnv(cfg)
		return cfg, validate(cfg)
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, validate(cfg)
}

// applyEnv fills credentials and endpoint overrides from the environment.
// Env wins over an empty config value but never over an explicit one.
func applyEnv(cfg *Config) {
	if cfg.STT.OpenAI.Key == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.STT.OpenAI.Key = key
		}
	}
	if v := os.Getenv("EDGE_TTS_BASE_URL"); v != "" {
		cfg.TTS.EdgeTTS.BaseURL = v
	}
	if v := os.Getenv("EDGE_TTS_TRUSTED_CLIENT_TOKEN"); v != "" {
		cfg.TTS.EdgeTTS.TrustedClientToken = v
	}
}

func validate(cfg *Config) error {
	if cfg.TTS.OSVoice.DefaultVoiceIndex < 1 {
		return fmt.Errorf("invalid default_voice_index %d: must be >= 1", cfg.TTS.OSVoice.DefaultVoiceIndex)
	}
	if cfg.STT.Record.SampleRate <= 0 {
		return fmt.Errorf("invalid sample_rate %d", cfg.STT.Record.SampleRate)
	}
	if !isValidVoiceID(cfg.TTS.EdgeTTS.VoiceID) {
		return fmt.Errorf("invalid edge voice %q: expected locale-Name format (e.g. 'en-US-AriaNeural')", cfg.TTS.EdgeTTS.VoiceID)
	}
	return nil
}

func isValidVoiceID(s string) bool {
	matched, _ := regexp.MatchString(`^[a-z]{2}-[A-Z]{2}-\w+$`, s)
	return matched
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Talkback Configuration
# ----------------------
# Voice tools for CLI assistant hooks.
# Duration units: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for fields whose values are easy to get wrong.
	reIdx := regexp.MustCompile(`(?m)^(\s+)default_voice_index:`)
	data = reIdx.ReplaceAll(data, []byte("${1}# 1-based index into the --list-voices output\n${1}default_voice_index:"))

	reModel := regexp.MustCompile(`(?m)^(\s+)model: tiny`)
	data = reModel.ReplaceAll(data, []byte("${1}# Options: tiny, base, small, medium, large\n${1}model: tiny"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
