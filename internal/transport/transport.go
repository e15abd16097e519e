// Package transport implements the MIDI-driven state machine that gates
// recording and playback advancement. It is a single atomic state word plus
// two atomic counters, shared without locking between the MIDI listener
// goroutine, the real-time audio callbacks, and the UI.
package transport

import "sync/atomic"

// State is one of the three transport states.
type State int32

const (
	Idle State = iota
	Armed
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Armed:
		return "Armed"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// Transport is the shared state block described in §4.3. All mutation goes
// through Start/Clock/Stop; there is no setter for state from outside this
// package, so the valid edges are enforced by construction.
type Transport struct {
	state        atomic.Int32
	frameCounter atomic.Uint64
	clockCount   atomic.Uint64

	mixArm atomic.Bool

	// onStart is invoked synchronously from Start, right after the
	// Idle->Armed edge and before Start returns, so playback sources can
	// reset their play-heads (they only advance once Running).
	onStart func()
}

// New returns a transport in the Idle state. onStart, if non-nil, is called
// from Start to reset playback positions (§4.3: "reset playback positions to
// 0" is a side effect of the Idle->Armed edge).
func New(onStart func()) *Transport {
	return &Transport{onStart: onStart}
}

// State returns the current transport state.
func (t *Transport) State() State {
	return State(t.state.Load())
}

// FrameCounter returns the number of frames processed while Running.
func (t *Transport) FrameCounter() uint64 { return t.frameCounter.Load() }

// ClockCount returns the number of MIDI clocks received since the last
// Start.
func (t *Transport) ClockCount() uint64 { return t.clockCount.Load() }

// MixArmed reports whether the stereo mix recording is armed.
func (t *Transport) MixArmed() bool { return t.mixArm.Load() }

// SetMixArm sets the mix-record flag. Called only by the UI.
func (t *Transport) SetMixArm(v bool) { t.mixArm.Store(v) }

// Start handles a MIDI Start message: Idle->Armed (a Start received while
// Armed or Running is ignored, matching "exactly one atomic state word" with
// transitions only along the documented edges).
func (t *Transport) Start() {
	if !t.state.CompareAndSwap(int32(Idle), int32(Armed)) {
		return
	}
	t.clockCount.Store(0)
	if t.onStart != nil {
		t.onStart()
	}
}

// Clock handles a MIDI Clock message: Armed->Running on the first clock
// after Start, Running->Running incrementing clock_count otherwise. A Clock
// received while Idle is ignored.
func (t *Transport) Clock() {
	for {
		cur := State(t.state.Load())
		switch cur {
		case Armed:
			if t.state.CompareAndSwap(int32(Armed), int32(Running)) {
				t.clockCount.Store(1)
				return
			}
			// lost the race to another Clock call; retry against new state
		case Running:
			t.clockCount.Add(1)
			return
		default:
			return
		}
	}
}

// Stop handles a MIDI Stop message, or a UI-initiated shutdown: any state ->
// Idle.
func (t *Transport) Stop() {
	t.state.Store(int32(Idle))
}

// Recording reports whether the engine should currently be writing samples
// and advancing playback positions, i.e. state == Running.
func (t *Transport) Recording() bool {
	return State(t.state.Load()) == Running
}

// IncrementFrameCounter advances frame_counter by one. Called once per
// frame from the input routine while Recording().
func (t *Transport) IncrementFrameCounter() {
	t.frameCounter.Add(1)
}
