// Package playback holds pre-decoded audio files that get mixed in alongside
// live input, advancing in lock-step with the transport.
package playback

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/go-audio/wav"
)

// Source is one pre-loaded audio file. The decoded sample buffer is
// immutable after construction; only the atomic controls and the play-head
// change at runtime.
type Source struct {
	Path string

	channels   int
	frameCount uint64
	samples    []float32 // interleaved, immutable

	position atomic.Uint64

	monitor atomic.Bool
	solo    atomic.Bool
	level   atomic.Uint32
	pan     atomic.Uint32
	peak    atomic.Uint32
}

// Load decodes a mono or stereo WAV file at the given sample rate. The file
// must already be at the engine's input sample rate; this package performs
// no resampling (out of scope per spec).
func Load(path string, expectedSampleRate int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("playback: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("playback: %s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("playback: decode %s: %w", path, err)
	}

	if int(dec.SampleRate) != expectedSampleRate {
		return nil, fmt.Errorf("playback: %s is %d Hz, engine is running at %d Hz", path, dec.SampleRate, expectedSampleRate)
	}

	channels := int(dec.NumChans)
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("playback: %s has %d channels, only mono or stereo supported", path, channels)
	}

	samples := make([]float32, len(buf.Data))
	maxVal := float32(int(1) << (buf.SourceBitDepth - 1))
	if buf.SourceBitDepth == 0 {
		maxVal = float32(1 << 15)
	}
	for i, v := range buf.Data {
		samples[i] = float32(v) / maxVal
	}

	frameCount := uint64(len(samples) / channels)
	if frameCount == 0 {
		return nil, fmt.Errorf("playback: %s has no audio frames", path)
	}

	s := &Source{
		Path:       path,
		channels:   channels,
		frameCount: frameCount,
		samples:    samples,
	}
	s.level.Store(math.Float32bits(1.0))
	s.pan.Store(math.Float32bits(0.0))
	return s, nil
}

// Channels reports 1 (mono) or 2 (stereo).
func (s *Source) Channels() int { return s.channels }

// FrameCount reports the total number of frames in the decoded buffer.
func (s *Source) FrameCount() uint64 { return s.frameCount }

// Position returns the current play-head, in frames.
func (s *Source) Position() uint64 { return s.position.Load() }

// ResetPosition sets the play-head back to zero. Called on MIDI Start.
func (s *Source) ResetPosition() { s.position.Store(0) }

// FrameAt returns the (left, right) samples at the given frame index, mono
// files duplicated to both channels.
func (s *Source) FrameAt(frame uint64) (l, r float32) {
	if s.channels == 1 {
		v := s.samples[frame]
		return v, v
	}
	base := frame * 2
	return s.samples[base], s.samples[base+1]
}

// Advance moves the play-head forward by one frame, wrapping modulo
// FrameCount, and returns the frame that was current before advancing (the
// frame the caller should have just read).
func (s *Source) Advance() uint64 {
	for {
		old := s.position.Load()
		next := (old + 1) % s.frameCount
		if s.position.CompareAndSwap(old, next) {
			return old
		}
	}
}

func (s *Source) Monitoring() bool { return s.monitor.Load() }
func (s *Source) Solo() bool       { return s.solo.Load() }

func (s *Source) SetMonitor(v bool) { s.monitor.Store(v) }
func (s *Source) SetSolo(v bool)    { s.solo.Store(v) }

func (s *Source) Level() float32 { return math.Float32frombits(s.level.Load()) }

func (s *Source) SetLevel(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.level.Store(math.Float32bits(v))
}

func (s *Source) Pan() float32 { return math.Float32frombits(s.pan.Load()) }

func (s *Source) SetPan(v float32) {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	s.pan.Store(math.Float32bits(v))
}

// Peak returns the current peak meter value, mirroring track.Track's meter
// for display (§4.15's "peak-level indicator per row").
func (s *Source) Peak() float32 {
	return math.Float32frombits(s.peak.Load())
}

// DecayPeak lowers the stored peak toward zero by the given fraction.
func (s *Source) DecayPeak(fraction float32) {
	for {
		old := s.peak.Load()
		oldF := math.Float32frombits(old)
		newF := oldF - oldF*fraction
		if newF < 0 {
			newF = 0
		}
		if s.peak.CompareAndSwap(old, math.Float32bits(newF)) {
			return
		}
	}
}

// UpdatePeak raises the stored peak to max(current, |l|, |r|). Called once
// per frame from the input routine while the source is producing audio.
func (s *Source) UpdatePeak(l, r float32) {
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
		old := s.peak.Load()
		if abs <= math.Float32frombits(old) {
			return
		}
		if s.peak.CompareAndSwap(old, math.Float32bits(abs)) {
			return
		}
	}
}
