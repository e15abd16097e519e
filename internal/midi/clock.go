package midi

import (
	"sync"
	"time"
)

// clockPulsesPerBeat is the MIDI spec's 24 clocks-per-quarter-note.
const clockPulsesPerBeat = 24

// ClockSyncState mirrors the display-only sync state derived from the
// observed MIDI byte stream; it is intentionally a separate state machine
// from transport.State (§9: "Display-vs-engine separation").
type ClockSyncState int

const (
	SyncStopped ClockSyncState = iota
	SyncWaitingForClock
	SyncRunning
)

// ClockAnalyzer estimates tempo and detects clock loss from the same
// Start/Stop/Clock stream the transport consumes, without ever influencing
// it. It satisfies the ClockObserver interface.
type ClockAnalyzer struct {
	mu sync.Mutex

	state         ClockSyncState
	clockCount    uint32
	lastClockTime time.Time
	intervals     []time.Duration
	maxIntervals  int
	lastActivity  time.Time
	timeout       time.Duration
}

// NewClockAnalyzer returns an analyzer averaging over one beat (24 clocks)
// and considering the clock lost after 2 seconds of silence, matching the
// reference implementation's MidiClock.
func NewClockAnalyzer() *ClockAnalyzer {
	return &ClockAnalyzer{
		maxIntervals: clockPulsesPerBeat,
		timeout:      2 * time.Second,
		lastActivity: time.Now(),
	}
}

func (c *ClockAnalyzer) ObserveStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = SyncWaitingForClock
	c.clockCount = 0
	c.intervals = c.intervals[:0]
	c.lastClockTime = time.Time{}
	c.lastActivity = time.Now()
}

func (c *ClockAnalyzer) ObserveStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = SyncStopped
	c.clockCount = 0
	c.lastActivity = time.Now()
}

func (c *ClockAnalyzer) ObserveClock() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.state = SyncRunning
	c.clockCount++
	c.lastActivity = now

	if !c.lastClockTime.IsZero() {
		interval := now.Sub(c.lastClockTime)
		c.intervals = append(c.intervals, interval)
		if len(c.intervals) > c.maxIntervals {
			c.intervals = c.intervals[1:]
		}
	}
	c.lastClockTime = now
}

// Stats is a snapshot of the analyzer's current state for display.
type Stats struct {
	State      ClockSyncState
	ClockCount uint32
	TempoBPM   float64 // 0 when unknown
	Synced     bool
}

// Snapshot returns the analyzer's current state. Synced is false once more
// than the timeout has elapsed since the last clock byte while not Stopped.
func (c *ClockAnalyzer) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	timedOut := c.state != SyncStopped && time.Since(c.lastActivity) > c.timeout

	return Stats{
		State:      c.state,
		ClockCount: c.clockCount,
		TempoBPM:   c.tempoLocked(),
		Synced:     c.state == SyncRunning && !timedOut,
	}
}

func (c *ClockAnalyzer) tempoLocked() float64 {
	if len(c.intervals) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range c.intervals {
		total += d
	}
	avg := total / time.Duration(len(c.intervals))
	beatSeconds := avg.Seconds() * clockPulsesPerBeat
	if beatSeconds <= 0 {
		return 0
	}
	return 60.0 / beatSeconds
}
