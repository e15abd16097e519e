package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/odaacabeef/stems/internal/midi"
	"github.com/odaacabeef/stems/internal/playback"
	"github.com/odaacabeef/stems/internal/queue"
	"github.com/odaacabeef/stems/internal/sample"
	"github.com/odaacabeef/stems/internal/track"
	"github.com/odaacabeef/stems/internal/transport"
	"github.com/odaacabeef/stems/internal/writer"
	"github.com/odaacabeef/stems/reaper"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrInvalidPlaybackFile marks an audio[] entry that failed to decode or
// didn't match the engine's sample rate/channel layout — a configuration
// error (§4.10, §7), not a device error, even though it only surfaces once
// Open has resolved the device's sample rate. cmd/root.go checks
// errors.Is(err, ErrInvalidPlaybackFile) to pick the right exit code.
var ErrInvalidPlaybackFile = errors.New("invalid playback file")

// Open resolves the device's channel counts and sample rate (§4.9 steps
// 1-3), pre-allocates tracks/playback sources/queues (step 4), and opens the
// audio backend (step 5). It does not start streams or spawn workers; call
// Start for that.
func Open(device *portaudio.DeviceInfo, monitorStart int, trackDefaults map[int]TrackDefault, playbackFiles []PlaybackFile, outputDir string) (*Engine, error) {
	inputChannels := device.MaxInputChannels
	outputChannels := device.MaxOutputChannels
	if inputChannels < 1 {
		return nil, fmt.Errorf("engine: device %q has no input channels", device.Name)
	}
	if outputChannels < monitorStart+2 {
		return nil, fmt.Errorf("engine: device %q has %d output channels, monitor range needs %d", device.Name, outputChannels, monitorStart+2)
	}

	cfg := Config{
		InputChannels:   inputChannels,
		OutputChannels:  outputChannels,
		MonitorStart:    monitorStart,
		MonitorEnd:      monitorStart + 1,
		FramesPerBuffer: FramesPerBuffer,
		TrackDefaults:   trackDefaults,
		PlaybackFiles:   playbackFiles,
	}

	backend := NewPortAudioBackend(device, inputChannels, outputChannels)

	e, err := build(cfg, PreferredSampleRate, backend, outputDir)
	if err != nil {
		return nil, err
	}

	if err := backend.Open(float64(PreferredSampleRate), inputChannels, outputChannels, FramesPerBuffer, e.audioCallback); err != nil {
		slog.Warn("engine: preferred sample rate unsupported, falling back to device default", "preferred", PreferredSampleRate, "fallback", device.DefaultSampleRate)
		fallback := int(device.DefaultSampleRate)
		e, err = build(cfg, fallback, backend, outputDir)
		if err != nil {
			return nil, err
		}
		if err := backend.Open(device.DefaultSampleRate, inputChannels, outputChannels, FramesPerBuffer, e.audioCallback); err != nil {
			return nil, fmt.Errorf("engine: open stream at fallback rate %v: %w", device.DefaultSampleRate, err)
		}
	}

	return e, nil
}

// build allocates every piece of engine state sized for sampleRate, without
// touching the audio backend.
func build(cfg Config, sampleRate int, backend AudioBackend, outputDir string) (*Engine, error) {
	cfg.SampleRate = sampleRate

	tracks := make([]*track.Track, cfg.InputChannels)
	for i := range tracks {
		tr := track.New(i)
		if d, ok := cfg.TrackDefaults[i+1]; ok {
			tr.SetArm(d.Arm)
			tr.SetMonitor(d.Monitor)
			tr.SetSolo(d.Solo)
			tr.SetLevel(d.Level)
			tr.SetPan(d.Pan)
		}
		tracks[i] = tr
	}

	playbacks := make([]*playback.Source, 0, len(cfg.PlaybackFiles))
	for _, pf := range cfg.PlaybackFiles {
		src, err := playback.Load(pf.Path, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("engine: load playback file: %w: %w", ErrInvalidPlaybackFile, err)
		}
		src.SetMonitor(pf.Monitor)
		src.SetSolo(pf.Solo)
		src.SetLevel(pf.Level)
		src.SetPan(pf.Pan)
		playbacks = append(playbacks, src)
	}

	e := &Engine{
		cfg:       cfg,
		backend:   backend,
		tracks:    tracks,
		playbacks: playbacks,
	}
	e.transport = transport.New(func() {
		for _, p := range e.playbacks {
			p.ResetPosition()
		}
	})

	e.trackQueue = queue.New[sample.Recorded](sampleRate * trackQueueSeconds * cfg.InputChannels)
	e.monitorQueue = queue.New[float32](int(float64(sampleRate) * 2 * monitorQueueSeconds))
	e.mixQueue = queue.New[float32](sampleRate * mixQueueSeconds * 2)

	e.trackWriter = writer.NewTrackWriter(e.trackQueue, e.transport, tracks, sampleRate, outputDir)
	e.mixWriter = writer.NewMixWriter(e.mixQueue, e.transport, sampleRate, outputDir)

	return e, nil
}

func (e *Engine) audioCallback(in, out []float32) {
	frames := len(in) / e.cfg.InputChannels
	e.processInput(in, frames)
	e.processOutput(out, frames)
}

// Start opens the MIDI input port, spawns the writer workers and the MIDI
// listener, registers shutdown with the reaper, and starts the audio
// streams (§4.9 steps 6-7).
func (e *Engine) Start(midiIn drivers.In, clockObserver midi.ClockObserver) error {
	listener, err := midi.Listen(midiIn, e.transport, clockObserver)
	if err != nil {
		return fmt.Errorf("engine: start midi listener: %w", err)
	}
	e.midiListener = listener

	reaper.Register("track-writer")
	go func() {
		defer reaper.Done("track-writer")
		e.trackWriter.Run()
	}()

	reaper.Register("mix-writer")
	go func() {
		defer reaper.Done("mix-writer")
		e.mixWriter.Run()
	}()

	reaper.Callback("engine", e.shutdown)

	e.running = true
	return e.backend.Start()
}

// shutdown implements §4.9's reverse teardown order: idle the transport so
// no more samples are produced, stop the stream, let the workers drain and
// exit, then release the device.
func (e *Engine) shutdown() {
	e.transport.Stop()

	if err := e.backend.Stop(); err != nil {
		slog.Error("engine: stop stream", "error", err)
	}

	e.trackWriter.Stop()
	e.mixWriter.Stop()
	e.midiListener.Close()

	if err := e.backend.Close(); err != nil {
		slog.Error("engine: close stream", "error", err)
	}

	slog.Info("engine: stopped",
		"track_overflow", e.TrackQueueDropped(),
		"monitor_overflow", e.MonitorQueueDropped(),
		"mix_overflow", e.MixQueueDropped(),
	)

	e.running = false
}
