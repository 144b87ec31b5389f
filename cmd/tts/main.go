// Command tts speaks text aloud. It prefers the online neural voice and
// falls back to the local OS voice when offline.
//
// Usage:
//
//	tts "text to speak" [fallbackVoiceIndex]
//	tts --list-voices
//	tts --init-config
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"talkback/pkg/audio"
	"talkback/pkg/config"
	"talkback/pkg/history"
	"talkback/pkg/logging"
	"talkback/pkg/tracker"
	"talkback/pkg/tts"
	"talkback/pkg/tts/edgetts"
	"talkback/pkg/tts/osvoice"
	"talkback/pkg/version"
	"talkback/pkg/voice"
)

const defaultConfigPath = "configs/talkback.yaml"

var (
	listVoices = flag.Bool("list-voices", false, "List installed fallback voices and exit")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Config file path")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		if voice.IsInputError(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Speech failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  tts "text to speak" [fallbackVoiceIndex]
  tts --list-voices
  tts --init-config

The optional voice index selects an installed OS voice (see --list-voices)
and skips the online backend entirely.
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	history.SetLogPath(cfg.History.Path)
	history.SetEnabled(cfg.History.Enabled)

	slog.Debug("talkback tts", "version", version.Version)

	tr := tracker.New()
	defer tr.LogSummary()

	speaker := tts.NewSpeaker(&cfg.TTS,
		edgetts.NewProvider(cfg.TTS.EdgeTTS, tr),
		osvoice.NewProvider(),
		audio.NewPlayer(cfg.Audio.Volume))

	if *listVoices {
		speaker.ListVoices(ctx, os.Stdout)
		return nil
	}

	text, voiceIndex, err := parseArgs(flag.Args())
	if err != nil {
		usage()
		return err
	}

	backend, err := speaker.Speak(ctx, text, voiceIndex)
	if err != nil {
		return err
	}
	slog.Info("Speech complete", "backend", backend)
	return nil
}

// parseArgs extracts the text and optional 1-based fallback voice index.
func parseArgs(args []string) (string, int, error) {
	if len(args) < 1 {
		return "", 0, voice.NewInputError("no text to speak")
	}
	text := args[0]

	voiceIndex := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return "", 0, voice.NewInputError("invalid voice index %q: expected a positive number", args[1])
		}
		voiceIndex = n
	}
	return text, voiceIndex, nil
}
