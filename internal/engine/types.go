// Package engine assembles the real-time audio path: the input and output
// callbacks, the queues feeding the writer workers, and the device streams
// that drive them.
package engine

import (
	"math"
	"sync/atomic"

	"github.com/odaacabeef/stems/internal/playback"
	"github.com/odaacabeef/stems/internal/queue"
	"github.com/odaacabeef/stems/internal/sample"
	"github.com/odaacabeef/stems/internal/track"
	"github.com/odaacabeef/stems/internal/midi"
	"github.com/odaacabeef/stems/internal/transport"
	"github.com/odaacabeef/stems/internal/writer"
)

// FramesPerBuffer is the preferred host buffer size (§4.9 step 5). The
// backend may deliver a different size if the host doesn't honor it; the
// callbacks place no assumption on buffer length.
const FramesPerBuffer = 256

// PreferredSampleRate is tried first; if opening the device at this rate
// fails, the engine falls back to the device's default sample rate (§4.9
// step 3) since PortAudio exposes no enumerable list of supported rates to
// pick a minimum from.
const PreferredSampleRate = 48000

// trackQueueSeconds / monitorQueueSeconds / mixQueueSeconds size the three
// queues per §3 so steady-state backpressure from a live writer is
// impossible; they only matter if a writer stalls.
const (
	trackQueueSeconds   = 10
	monitorQueueSeconds = 0.050
	mixQueueSeconds     = 5
)

// Config is the fully resolved, validated set of parameters C10 needs to
// open streams and build the engine's state. It is handed in by the
// configuration loader (A1) and the CLI (A2); the engine never re-reads a
// file or a flag itself.
type Config struct {
	SampleRate      int
	InputChannels   int
	OutputChannels  int
	MonitorStart    int // 0-indexed
	MonitorEnd      int // 0-indexed, == MonitorStart+1
	FramesPerBuffer int

	TrackDefaults map[int]TrackDefault
	PlaybackFiles []PlaybackFile
}

// TrackDefault carries the configuration loader's per-track defaults (§4.10)
// for the track with the given 1-based number.
type TrackDefault struct {
	Arm     bool
	Monitor bool
	Solo    bool
	Level   float32
	Pan     float32
}

// PlaybackFile carries one configured playback entry before decoding.
type PlaybackFile struct {
	Path    string
	Monitor bool
	Solo    bool
	Level   float32
	Pan     float32
}

// Engine owns every core component (C1-C10): the tracks, the playback
// sources, the transport, the three queues, the audio backend, and the
// writer/listener goroutines. Nothing outside this package touches a queue
// or a real-time callback.
type Engine struct {
	cfg Config

	backend AudioBackend

	tracks    []*track.Track
	playbacks []*playback.Source
	transport *transport.Transport

	trackQueue   *queue.SPSC[sample.Recorded]
	monitorQueue *queue.SPSC[float32]
	mixQueue     *queue.SPSC[float32]

	trackWriter  *writer.TrackWriter
	mixWriter    *writer.MixWriter
	midiListener *midi.Listener

	mixPeak atomic.Uint32

	running bool
}

// Tracks returns the engine's input track control blocks, indexed by 0-based
// input channel. The UI mutates these directly through Track's setters.
func (e *Engine) Tracks() []*track.Track { return e.tracks }

// Playbacks returns the engine's playback sources.
func (e *Engine) Playbacks() []*playback.Source { return e.playbacks }

// Transport returns the shared transport state machine.
func (e *Engine) Transport() *transport.Transport { return e.transport }

// TrackQueueDropped, MonitorQueueDropped and MixQueueDropped expose the
// overflow counters for A6/A4 (§3 "Overflow counters").
func (e *Engine) TrackQueueDropped() uint64   { return e.trackQueue.Dropped() }
func (e *Engine) MonitorQueueDropped() uint64 { return e.monitorQueue.Dropped() }
func (e *Engine) MixQueueDropped() uint64     { return e.mixQueue.Dropped() }

// QueueFillPercent returns the fullest of the three queues' occupancy as a
// percentage of its capacity, a leading indicator of overflow risk before a
// drop counter above ever moves.
func (e *Engine) QueueFillPercent() int {
	fill := func(l, c int) int {
		if c == 0 {
			return 0
		}
		return l * 100 / c
	}
	pct := fill(e.trackQueue.Len(), e.trackQueue.Cap())
	if p := fill(e.monitorQueue.Len(), e.monitorQueue.Cap()); p > pct {
		pct = p
	}
	if p := fill(e.mixQueue.Len(), e.mixQueue.Cap()); p > pct {
		pct = p
	}
	return pct
}

// MixPeak returns the stereo mix bus's current peak meter value, mirroring
// track.Track's meter for the mix-record row (§4.15).
func (e *Engine) MixPeak() float32 { return math.Float32frombits(e.mixPeak.Load()) }

// DecayMixPeak lowers the stored mix peak toward zero by the given fraction.
func (e *Engine) DecayMixPeak(fraction float32) {
	for {
		old := e.mixPeak.Load()
		oldF := math.Float32frombits(old)
		newF := oldF - oldF*fraction
		if newF < 0 {
			newF = 0
		}
		if e.mixPeak.CompareAndSwap(old, math.Float32bits(newF)) {
			return
		}
	}
}

// updateMixPeak raises the stored mix peak to max(current, |l|, |r|). Called
// once per frame from the input routine while the mix bus is armed.
func (e *Engine) updateMixPeak(l, r float32) {
	abs := l
	if abs < 0 {
		abs = -abs
	}
	if r < 0 {
		r = -r
	}
	if r > abs {
		abs = r
	}
	for {
		old := e.mixPeak.Load()
		if abs <= math.Float32frombits(old) {
			return
		}
		if e.mixPeak.CompareAndSwap(old, math.Float32bits(abs)) {
			return
		}
	}
}
