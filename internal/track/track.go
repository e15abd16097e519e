// Package track holds the atomic per-channel control and meter state read
// every frame by the real-time input routine and written only by the UI.
package track

import (
	"math"
	"sync/atomic"
)

// Track is the control block for one live input channel. All fields are
// independently atomic; there is no cross-field consistency requirement, so
// a read from the audio thread never blocks on a write from the UI thread.
type Track struct {
	channel int // 0-based input channel this track is bound to

	arm     atomic.Bool
	monitor atomic.Bool
	solo    atomic.Bool
	level   atomic.Uint32 // float32 bits, default 1.0
	pan     atomic.Uint32 // float32 bits, default 0.0
	peak    atomic.Uint32 // float32 bits, |sample| high-water mark
}

// New returns a track bound to the given 0-based input channel, with the
// defaults from the configuration spec: armed=false, monitor=false,
// solo=false, level=1.0, pan=0.0.
func New(channel int) *Track {
	t := &Track{channel: channel}
	t.level.Store(math.Float32bits(1.0))
	t.pan.Store(math.Float32bits(0.0))
	t.peak.Store(math.Float32bits(0.0))
	return t
}

// Channel returns the 0-based input channel this track reads from.
func (t *Track) Channel() int { return t.channel }

func (t *Track) Armed() bool     { return t.arm.Load() }
func (t *Track) Monitoring() bool { return t.monitor.Load() }
func (t *Track) Solo() bool      { return t.solo.Load() }

func (t *Track) SetArm(v bool)     { t.arm.Store(v) }
func (t *Track) SetMonitor(v bool) { t.monitor.Store(v) }
func (t *Track) SetSolo(v bool)    { t.solo.Store(v) }

// Level returns the linear gain applied before monitor/record, in [0,1].
func (t *Track) Level() float32 { return math.Float32frombits(t.level.Load()) }

// SetLevel clamps to [0,1] and stores the gain.
func (t *Track) SetLevel(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	t.level.Store(math.Float32bits(v))
}

// Pan returns the equal-power pan position in [-1,1].
func (t *Track) Pan() float32 { return math.Float32frombits(t.pan.Load()) }

// SetPan clamps to [-1,1] and stores the pan position.
func (t *Track) SetPan(v float32) {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	t.pan.Store(math.Float32bits(v))
}

// Peak returns the current peak meter value. Only the real-time path raises
// it (UpdatePeak); the UI is responsible for lowering it between frames via
// DecayPeak, so repeated reads without a decay call see the same value.
func (t *Track) Peak() float32 {
	return math.Float32frombits(t.peak.Load())
}

// DecayPeak lowers the stored peak toward zero by the given fraction,
// mirroring the meter's visible fall time instead of snapping to zero every
// refresh.
func (t *Track) DecayPeak(fraction float32) {
	for {
		old := t.peak.Load()
		oldF := math.Float32frombits(old)
		newF := oldF - oldF*fraction
		if newF < 0 {
			newF = 0
		}
		if t.peak.CompareAndSwap(old, math.Float32bits(newF)) {
			return
		}
	}
}

// UpdatePeak raises the stored peak to max(current, |sample|). Called once
// per frame from the input routine; relaxed staleness of one frame is
// acceptable per the design, so a plain load/CAS loop (no locking) suffices.
func (t *Track) UpdatePeak(sample float32) {
	abs := sample
	if abs < 0 {
		abs = -abs
	}
	for {
		old := t.peak.Load()
		if abs <= math.Float32frombits(old) {
			return
		}
		if t.peak.CompareAndSwap(old, math.Float32bits(abs)) {
			return
		}
	}
}
