package audio

import (
	"context"
	"encoding/binary"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	gaudio "github.com/go-audio/audio"
	gwav "github.com/go-audio/wav"
	"github.com/gen2brain/malgo"

	"talkback/pkg/config"
	"talkback/pkg/voice"
)

// Recorder captures microphone audio via miniaudio and writes WAV files
// suitable for speech recognition (16-bit PCM, mono, 16 kHz by default).
type Recorder struct {
	cfg config.RecordConfig
}

// NewRecorder creates a Recorder using the given capture settings.
func NewRecorder(cfg config.RecordConfig) *Recorder {
	return &Recorder{cfg: cfg}
}

// Record captures for the given duration (or until ctx is cancelled) and
// writes the result to outputPath. Device failures are fatal; there is no
// fallback microphone.
func (r *Recorder) Record(ctx context.Context, d time.Duration, outputPath string) error {
	capture, err := r.Start()
	if err != nil {
		return err
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
	}

	if err := capture.Stop(); err != nil {
		return err
	}
	return capture.WriteWAV(outputPath)
}

// Start opens the default capture device and begins accumulating samples.
// The caller must Stop the returned Capture.
func (r *Recorder) Start() (*Capture, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("miniaudio", "msg", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, &voice.DeviceError{Op: "context init", Err: err}
	}

	c := &Capture{
		mctx:       mctx,
		sampleRate: r.cfg.SampleRate,
		channels:   r.cfg.Channels,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(r.cfg.Channels)
	deviceConfig.SampleRate = uint32(r.cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(r.cfg.ChunkFrames)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			c.appendPCM(input)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		c.teardownContext()
		return nil, &voice.DeviceError{Op: "open", Err: err}
	}
	c.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		c.teardownContext()
		return nil, &voice.DeviceError{Op: "start", Err: err}
	}

	slog.Debug("Recording started",
		"sample_rate", r.cfg.SampleRate,
		"channels", r.cfg.Channels)
	return c, nil
}

// Capture is an in-progress microphone recording.
type Capture struct {
	mctx   *malgo.AllocatedContext
	device *malgo.Device

	mu         sync.Mutex
	samples    []int
	sampleRate int
	channels   int
	stopped    bool
}

func (c *Capture) appendPCM(input []byte) {
	decoded := decodePCM16(input)
	c.mu.Lock()
	c.samples = append(c.samples, decoded...)
	c.mu.Unlock()
}

// Stop halts capture and releases the device. Safe to call once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	if c.device != nil {
		if err := c.device.Stop(); err != nil {
			slog.Warn("Failed to stop capture device", "error", err)
		}
		c.device.Uninit()
		c.device = nil
	}
	c.teardownContext()

	slog.Debug("Recording stopped", "duration", c.Duration())
	return nil
}

func (c *Capture) teardownContext() {
	if c.mctx != nil {
		_ = c.mctx.Uninit()
		c.mctx.Free()
		c.mctx = nil
	}
}

// Duration returns the captured audio length so far.
func (c *Capture) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sampleDuration(len(c.samples), c.sampleRate, c.channels)
}

// WriteWAV encodes the captured samples as 16-bit PCM WAV.
func (c *Capture) WriteWAV(path string) error {
	c.mu.Lock()
	samples := c.samples
	c.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := gwav.NewEncoder(f, c.sampleRate, 16, c.channels, 1)
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: c.channels,
			SampleRate:  c.sampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// decodePCM16 converts little-endian signed 16-bit PCM bytes to samples.
// A trailing odd byte is dropped.
func decodePCM16(input []byte) []int {
	n := len(input) / 2
	samples := make([]int, n)
	for i := 0; i < n; i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(input[i*2:])))
	}
	return samples
}

func sampleDuration(samples, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := samples / channels
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
