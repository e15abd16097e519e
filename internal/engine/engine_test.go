package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/odaacabeef/stems/internal/playback"
	"github.com/odaacabeef/stems/internal/queue"
	"github.com/odaacabeef/stems/internal/sample"
	"github.com/odaacabeef/stems/internal/track"
	"github.com/odaacabeef/stems/internal/transport"
)

func newTestEngine(numTracks, numOut int) *Engine {
	tracks := make([]*track.Track, numTracks)
	for i := range tracks {
		tracks[i] = track.New(i)
	}
	e := &Engine{
		cfg: Config{
			InputChannels:  numTracks,
			OutputChannels: numOut,
			MonitorStart:   0,
			MonitorEnd:     1,
		},
		tracks:       tracks,
		transport:    transport.New(nil),
		trackQueue:   queue.New[sample.Recorded](1024),
		monitorQueue: queue.New[float32](1024),
		mixQueue:     queue.New[float32](1024),
	}
	return e
}

// armToRunning drives the transport from Idle to Running without a real
// MIDI listener.
func armToRunning(tp *transport.Transport) {
	tp.Start()
	tp.Clock()
}

// newTestPlaybackSource writes a mono 16-bit PCM WAV file with the given
// frame values and loads it back through playback.Load, so the source
// exercised here goes through the same decode path a real audio[] file
// does rather than a hand-built struct.
func newTestPlaybackSource(t *testing.T, frames []float32, sampleRate int) *playback.Source {
	t.Helper()

	path := filepath.Join(t.TempDir(), "src.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}

	const bitDepth = 16
	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, 1)

	data := make([]int, len(frames))
	for i, s := range frames {
		data[i] = int(s * 32767)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	src, err := playback.Load(path, sampleRate)
	if err != nil {
		t.Fatalf("playback.Load: %v", err)
	}
	return src
}

func TestProcessInputPushesTwoMonitorSamplesPerFrame(t *testing.T) {
	e := newTestEngine(2, 2)
	e.tracks[0].SetMonitor(true)

	frames := 16
	in := make([]float32, frames*2)
	e.processInput(in, frames)

	if got := e.monitorQueue.Len(); got != frames*2 {
		t.Fatalf("monitor queue len = %d, want %d", got, frames*2)
	}
}

func TestProcessInputRecordsOnlyArmedTracksWhileRunning(t *testing.T) {
	e := newTestEngine(2, 2)
	e.tracks[0].SetArm(true)
	armToRunning(e.transport)

	frames := 8
	in := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		in[f*2] = 0.5
		in[f*2+1] = 0.25
	}
	e.processInput(in, frames)

	count := 0
	for {
		s, ok := e.trackQueue.Pop()
		if !ok {
			break
		}
		if s.TrackID != 0 {
			t.Fatalf("unexpected recorded sample from unarmed track %d", s.TrackID)
		}
		count++
	}
	if count != frames {
		t.Fatalf("recorded %d samples, want %d", count, frames)
	}
}

func TestProcessInputNoRecordingWithoutRunningTransport(t *testing.T) {
	e := newTestEngine(1, 2)
	e.tracks[0].SetArm(true)
	// transport stays Idle

	in := make([]float32, 8)
	e.processInput(in, 8)

	if e.trackQueue.Len() != 0 {
		t.Fatalf("expected no recorded samples while Idle, got %d", e.trackQueue.Len())
	}
}

func TestProcessInputSoloGatesMonitor(t *testing.T) {
	e := newTestEngine(2, 2)
	e.tracks[0].SetMonitor(true)
	e.tracks[1].SetMonitor(true)
	e.tracks[1].SetSolo(true)

	in := []float32{1.0, 1.0} // one frame, track0=1.0, track1=1.0
	e.processInput(in, 1)

	l, _ := e.monitorQueue.Pop()
	r, _ := e.monitorQueue.Pop()

	// Only track 1 (soloed) should contribute; center pan => 0.707 each side.
	want := float32(0.70710677)
	if absF(l-want) > 1e-5 || absF(r-want) > 1e-5 {
		t.Fatalf("monitor = (%v,%v), want only soloed track's contribution (%v,%v)", l, r, want, want)
	}
}

func TestProcessOutputRoutesMonitorToConfiguredChannels(t *testing.T) {
	e := newTestEngine(1, 4)
	e.cfg.MonitorStart = 2
	e.cfg.MonitorEnd = 3

	e.monitorQueue.Push(0.5)
	e.monitorQueue.Push(-0.5)

	out := make([]float32, 4)
	e.processOutput(out, 1)

	if out[2] != 0.5 || out[3] != -0.5 {
		t.Fatalf("out = %v, want L at index 2 and R at index 3", out)
	}
	if out[0] != 0 || out[1] != 0 {
		t.Fatalf("unrouted channels should stay zero, got %v", out)
	}
}

func TestProcessOutputUnderrunYieldsSilence(t *testing.T) {
	e := newTestEngine(1, 2)

	out := make([]float32, 2)
	e.processOutput(out, 1) // queue is empty

	if out[0] != 0 || out[1] != 0 {
		t.Fatalf("underrun should yield silence, got %v", out)
	}
}

// TestProcessInputMixesPlaybackWhileRunning exercises step 5 of processInput
// (the playback loop in input.go): a monitoring, center-panned playback
// source should contribute to the monitor mix at equal-power gain, same as
// an input track does.
func TestProcessInputMixesPlaybackWhileRunning(t *testing.T) {
	e := newTestEngine(1, 2)
	armToRunning(e.transport)

	src := newTestPlaybackSource(t, []float32{1.0}, 48000)
	src.SetMonitor(true)
	e.playbacks = []*playback.Source{src}

	in := make([]float32, 1) // one frame, one (silent) input track
	e.processInput(in, 1)

	l, ok := e.monitorQueue.Pop()
	if !ok {
		t.Fatal("monitor queue empty")
	}
	r, ok := e.monitorQueue.Pop()
	if !ok {
		t.Fatal("monitor queue missing right channel")
	}

	want := float32(0.70710677) // cos/sin(pi/4) applied to ~1.0 after 16-bit quantization
	if absF(l-want) > 1e-3 || absF(r-want) > 1e-3 {
		t.Fatalf("monitor = (%v,%v), want playback's contribution near (%v,%v)", l, r, want, want)
	}

	if got := src.Position(); got != 0 {
		t.Fatalf("position after advancing a 1-frame loop = %d, want 0 (wrapped)", got)
	}
}

// TestProcessInputPushesMixQueueWhenMixArmed exercises step 7: the stereo
// mix bus is only pushed to when the transport is recording AND mix-arm is
// set, never otherwise.
func TestProcessInputPushesMixQueueWhenMixArmed(t *testing.T) {
	e := newTestEngine(1, 2)
	armToRunning(e.transport)
	e.transport.SetMixArm(true)

	frames := 4
	in := make([]float32, frames)
	e.processInput(in, frames)

	if got := e.mixQueue.Len(); got != frames*2 {
		t.Fatalf("mix queue len = %d, want %d", got, frames*2)
	}
}

func TestProcessInputSkipsMixQueueWhenNotMixArmed(t *testing.T) {
	e := newTestEngine(1, 2)
	armToRunning(e.transport)
	// mix-arm left off

	in := make([]float32, 4)
	e.processInput(in, 4)

	if got := e.mixQueue.Len(); got != 0 {
		t.Fatalf("mix queue len = %d, want 0 when mix-arm is off", got)
	}
}
