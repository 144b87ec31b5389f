// Command stt transcribes speech to text. It records from the microphone
// or reads an audio file, preferring the local whisper model and falling
// back to the hosted API.
//
// Usage:
//
//	stt                      record for the configured duration
//	stt --record 10          record for 10 seconds
//	stt recording.wav        transcribe an existing file
//	stt --live               interactive toggle mode
//	stt --models             list whisper model sizes
//	stt --init-config
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"talkback/pkg/audio"
	"talkback/pkg/config"
	"talkback/pkg/dictation"
	"talkback/pkg/history"
	"talkback/pkg/logging"
	"talkback/pkg/stt"
	"talkback/pkg/stt/openai"
	"talkback/pkg/stt/whisper"
	"talkback/pkg/tracker"
	"talkback/pkg/version"
	"talkback/pkg/voice"
)

const defaultConfigPath = "configs/talkback.yaml"

var (
	recordSecs  = flag.Float64("record", 0, "Record for the given number of seconds (0 = config default)")
	live        = flag.Bool("live", false, "Interactive mode: SPACE toggles recording, q quits")
	listModels  = flag.Bool("models", false, "List whisper model sizes and exit")
	forceLocal  = flag.Bool("local", false, "Force the local whisper engine, skip the availability probe")
	forceRemote = flag.Bool("remote", false, "Force the remote API, skip the availability probe")
	initConfig  = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath  = flag.String("config", defaultConfigPath, "Config file path")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if *listModels {
		printModels(os.Stdout)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Transcription failed: %v\n", err)
		os.Exit(1)
	}
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

	slog.Debug("talkback stt", "version", version.Version)

	tr := tracker.New()
	defer tr.LogSummary()

	override, err := overrideFromFlags()
	if err != nil {
		return err
	}

	transcriber := stt.NewTranscriber(&cfg.STT,
		whisper.NewEngine(cfg.STT.Whisper, tr),
		openai.NewEngine(cfg.STT.OpenAI, tr),
		whisper.AvailabilityCheck(cfg.STT.Whisper))

	// A forced-local run has no point if whisper isn't usable; fail fast
	// with the probe's diagnosis instead of a cryptic engine error.
	if *forceLocal {
		if err := transcriber.VerifyLocal(ctx); err != nil {
			return err
		}
	}

	recorder := audio.NewRecorder(cfg.STT.Record)
	session := dictation.NewSession(
		recorder.Record,
		func() (dictation.Capture, error) { return recorder.Start() },
		transcriber, override)

	switch {
	case *live:
		return runLive(ctx, session)

	case flag.NArg() > 0:
		result, err := session.FromFile(ctx, flag.Arg(0))
		if err != nil {
			return err
		}
		printResult(result)
		return nil

	default:
		d := time.Duration(cfg.STT.Record.Duration)
		if *recordSecs > 0 {
			d = time.Duration(*recordSecs * float64(time.Second))
		}
		fmt.Fprintf(os.Stderr, "Recording for %s...\n", d)
		result, err := session.RecordAndTranscribe(ctx, d)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	}
}

func runLive(ctx context.Context, session *dictation.Session) error {
	keys, restore, err := dictation.ListenKeys()
	if err != nil {
		return fmt.Errorf("failed to open terminal for key input: %w", err)
	}
	defer restore()

	return session.Live(ctx, keys, &dictation.TerminalWriter{W: os.Stdout})
}

func overrideFromFlags() (voice.BackendKind, error) {
	switch {
	case *forceLocal && *forceRemote:
		return voice.BackendAuto, voice.NewInputError("--local and --remote are mutually exclusive")
	case *forceLocal:
		return voice.BackendPrimary, nil
	case *forceRemote:
		return voice.BackendFallback, nil
	default:
		return voice.BackendAuto, nil
	}
}

func printResult(result *stt.Result) {
	slog.Info("Transcription complete", "backend", result.Backend)
	// Transcript is the program output; empty means silence, still success.
	fmt.Println(result.Text)
}

func printModels(w *os.File) {
	fmt.Fprintln(w, "Available whisper models:")
	fmt.Fprintln(w, "Model    Disk     RAM")
	fmt.Fprintln(w, "-----------------------------")
	for _, m := range whisper.Models() {
		fmt.Fprintf(w, "%-8s %-8s %s\n", m.Name, m.Size, m.RAM)
	}
	fmt.Fprintln(w, "\nDownload: https://huggingface.co/ggerganov/whisper.cpp/tree/main")
}
