package midi

import (
	"testing"
	"time"
)

func TestClockStateMachine(t *testing.T) {
	c := NewClockAnalyzer()

	if c.Snapshot().State != SyncStopped {
		t.Fatal("new analyzer should start Stopped")
	}

	c.ObserveStart()
	if c.Snapshot().State != SyncWaitingForClock {
		t.Fatal("state after Start should be WaitingForClock")
	}

	c.ObserveClock()
	if got := c.Snapshot(); got.State != SyncRunning || got.ClockCount != 1 {
		t.Fatalf("state after first clock = %+v, want Running/1", got)
	}

	c.ObserveClock()
	if got := c.Snapshot().ClockCount; got != 2 {
		t.Fatalf("clock count = %d, want 2", got)
	}

	c.ObserveStop()
	if got := c.Snapshot(); got.State != SyncStopped || got.ClockCount != 0 {
		t.Fatalf("state after Stop = %+v, want Stopped/0", got)
	}
}

func TestTempoCalculation(t *testing.T) {
	c := NewClockAnalyzer()
	c.state = SyncRunning

	// 120 BPM: 1 beat every 0.5s, 24 clocks per beat => 20833us per clock.
	interval := 20833 * time.Microsecond
	for i := 0; i < clockPulsesPerBeat; i++ {
		c.intervals = append(c.intervals, interval)
	}

	tempo := c.Snapshot().TempoBPM
	if diff := tempo - 120.0; diff < -1.0 || diff > 1.0 {
		t.Fatalf("tempo = %.2f, want ~120 BPM", tempo)
	}
}

func TestNeverSyncedWithoutClocks(t *testing.T) {
	c := NewClockAnalyzer()
	if c.Snapshot().Synced {
		t.Fatal("should not report synced before any clock is seen")
	}
}
