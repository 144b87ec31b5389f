package tts

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"talkback/pkg/config"
	"talkback/pkg/voice"
)

type fakeProvider struct {
	calls     int
	lastVoice string
	failWith  error
	voices    []Voice
	voicesErr error
}

func (f *fakeProvider) Synthesize(ctx context.Context, text, voiceID, outputPath string) (string, error) {
	f.calls++
	f.lastVoice = voiceID
	if f.failWith != nil {
		return "", f.failWith
	}
	// Write something comfortably above MinAudioSize.
	return "wav", os.WriteFile(outputPath, bytes.Repeat([]byte{0xFF}, 2048), 0o644)
}

func (f *fakeProvider) Voices(ctx context.Context) ([]Voice, error) {
	return f.voices, f.voicesErr
}

type fakePlayer struct {
	played []string
	err    error
}

func (f *fakePlayer) PlayFile(path string) error {
	f.played = append(f.played, path)
	return f.err
}

func testConfig() *config.TTSConfig {
	return &config.TTSConfig{
		EdgeTTS: config.EdgeTTSConfig{VoiceID: "en-US-AriaNeural"},
		OSVoice: config.OSVoiceConfig{DefaultVoiceIndex: 2},
		Probe:   config.ProbeConfig{Host: "example.invalid:443", Timeout: config.Duration(time.Second)},
	}
}

func catalog() []Voice {
	return []Voice{
		{ID: "voice.alex", Name: "Alex", Language: "en_US"},
		{ID: "voice.daniel", Name: "Daniel", Language: "en_GB"},
		{ID: "voice.karen", Name: "Karen", Language: "en_AU"},
	}
}

func newTestSpeaker(primary, fallback *fakeProvider, player *fakePlayer, probeErr error) *Speaker {
	s := NewSpeaker(testConfig(), primary, fallback, player)
	s.probeCheck = func(ctx context.Context) error { return probeErr }
	return s
}

func TestSpeakOnlineReachable(t *testing.T) {
	primary := &fakeProvider{}
	fallback := &fakeProvider{voices: catalog()}
	player := &fakePlayer{}

	used, err := newTestSpeaker(primary, fallback, player, nil).Speak(context.Background(), "Hello", 0)
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if used != voice.BackendPrimary {
		t.Errorf("expected primary backend, got %v", used)
	}
	if primary.calls != 1 || fallback.calls != 0 {
		t.Errorf("expected 1 primary / 0 fallback synth calls, got %d / %d", primary.calls, fallback.calls)
	}
	if len(player.played) != 1 {
		t.Errorf("expected 1 playback, got %d", len(player.played))
	}
	// Artifact is cleaned up after playback.
	if _, err := os.Stat(player.played[0]); !os.IsNotExist(err) {
		t.Errorf("artifact %s not cleaned up", player.played[0])
	}
}

func TestSpeakOnlineUnreachable(t *testing.T) {
	primary := &fakeProvider{}
	fallback := &fakeProvider{voices: catalog()}
	player := &fakePlayer{}

	used, err := newTestSpeaker(primary, fallback, player, errors.New("offline")).Speak(context.Background(), "Hello", 0)
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if used != voice.BackendFallback {
		t.Errorf("expected fallback backend, got %v", used)
	}
	if primary.calls != 0 {
		t.Errorf("primary must not be called when probe fails, got %d calls", primary.calls)
	}
	// Default fallback voice (index 2 in test config) is used.
	if fallback.lastVoice != "voice.daniel" {
		t.Errorf("expected default fallback voice 'voice.daniel', got %q", fallback.lastVoice)
	}
}

func TestSpeakExplicitIndexSkipsProbe(t *testing.T) {
	primary := &fakeProvider{}
	fallback := &fakeProvider{voices: catalog()}
	player := &fakePlayer{}

	s := NewSpeaker(testConfig(), primary, fallback, player)
	probeInvoked := false
	s.probeCheck = func(ctx context.Context) error {
		probeInvoked = true
		return nil
	}

	used, err := s.Speak(context.Background(), "Hello", 3)
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if probeInvoked {
		t.Error("probe must not be invoked when an explicit voice index is given")
	}
	if used != voice.BackendFallback {
		t.Errorf("expected fallback backend, got %v", used)
	}
	if fallback.lastVoice != "voice.karen" {
		t.Errorf("expected voice.karen for index 3, got %q", fallback.lastVoice)
	}
}

func TestSpeakIndexOutOfRange(t *testing.T) {
	primary := &fakeProvider{}
	fallback := &fakeProvider{voices: catalog()}
	player := &fakePlayer{}

	_, err := newTestSpeaker(primary, fallback, player, nil).Speak(context.Background(), "Hello", 99)
	if !voice.IsInputError(err) {
		t.Fatalf("expected InputError for out-of-range index, got %v", err)
	}
	if primary.calls != 0 || fallback.calls != 0 {
		t.Error("no backend may be attempted on input errors")
	}
}

func TestSpeakEmptyText(t *testing.T) {
	_, err := newTestSpeaker(&fakeProvider{}, &fakeProvider{voices: catalog()}, &fakePlayer{}, nil).
		Speak(context.Background(), "", 0)
	if !voice.IsInputError(err) {
		t.Fatalf("expected InputError for empty text, got %v", err)
	}
}

func TestSpeakRuntimeFallback(t *testing.T) {
	primary := &fakeProvider{failWith: errors.New("turn.end never received")}
	fallback := &fakeProvider{voices: catalog()}
	player := &fakePlayer{}

	used, err := newTestSpeaker(primary, fallback, player, nil).Speak(context.Background(), "Hello", 0)
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if used != voice.BackendFallback {
		t.Errorf("expected fallback after primary runtime failure, got %v", used)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("expected exactly one attempt per backend, got %d / %d", primary.calls, fallback.calls)
	}
}

func TestSpeakBothFail(t *testing.T) {
	primary := &fakeProvider{failWith: errors.New("dial failed")}
	fallback := &fakeProvider{voices: catalog(), failWith: errors.New("say not found")}
	player := &fakePlayer{}

	_, err := newTestSpeaker(primary, fallback, player, nil).Speak(context.Background(), "Hello", 0)
	var total *voice.TotalError
	if !errors.As(err, &total) {
		t.Fatalf("expected TotalError, got %v", err)
	}
	if len(player.played) != 0 {
		t.Error("nothing may be played when both backends fail")
	}
}

func TestSpeakRejectsTinyAudio(t *testing.T) {
	// Provider "succeeds" but writes nothing worth playing.
	primary := &fakeProvider{}
	fallback := &fakeProvider{voices: catalog()}
	player := &fakePlayer{}

	s := newTestSpeaker(primary, fallback, player, nil)
	small := &smallOutputProvider{}
	s.primary = small

	used, err := s.Speak(context.Background(), "Hello", 0)
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if used != voice.BackendFallback {
		t.Errorf("undersized primary output should route to fallback, got %v", used)
	}
}

type smallOutputProvider struct{}

func (p *smallOutputProvider) Synthesize(ctx context.Context, text, voiceID, outputPath string) (string, error) {
	return "mp3", os.WriteFile(outputPath, []byte("x"), 0o644)
}

func (p *smallOutputProvider) Voices(ctx context.Context) ([]Voice, error) {
	return nil, nil
}

func TestListVoices(t *testing.T) {
	fallback := &fakeProvider{voices: catalog()}
	s := newTestSpeaker(&fakeProvider{}, fallback, &fakePlayer{}, nil)

	var first, second bytes.Buffer
	s.ListVoices(context.Background(), &first)
	s.ListVoices(context.Background(), &second)

	out := first.String()
	if !strings.Contains(out, " 2. Daniel (en_GB) <- DEFAULT FALLBACK") {
		t.Errorf("missing default marker:\n%s", out)
	}
	if !strings.Contains(out, "en-US-AriaNeural") {
		t.Errorf("missing primary voice mention:\n%s", out)
	}

	// Idempotent: two consecutive listings are identical.
	if first.String() != second.String() {
		t.Error("ListVoices output differs between calls")
	}
}

func TestListVoicesEmptyCatalog(t *testing.T) {
	fallback := &fakeProvider{voicesErr: errors.New("enumeration unavailable")}
	s := newTestSpeaker(&fakeProvider{}, fallback, &fakePlayer{}, nil)

	var buf bytes.Buffer
	s.ListVoices(context.Background(), &buf)
	if !strings.Contains(buf.String(), "Available OS voices") {
		t.Error("listing should still print its header with an empty catalog")
	}
}
