package transport

import "testing"

func TestIdleToArmedToRunning(t *testing.T) {
	tr := New(nil)
	if tr.State() != Idle {
		t.Fatalf("initial state = %v, want Idle", tr.State())
	}

	tr.Start()
	if tr.State() != Armed {
		t.Fatalf("state after Start = %v, want Armed", tr.State())
	}

	tr.Clock()
	if tr.State() != Running {
		t.Fatalf("state after first Clock = %v, want Running", tr.State())
	}
	if tr.ClockCount() != 1 {
		t.Fatalf("clock count = %d, want 1", tr.ClockCount())
	}

	tr.Clock()
	if tr.ClockCount() != 2 {
		t.Fatalf("clock count after second clock = %d, want 2", tr.ClockCount())
	}

	tr.Stop()
	if tr.State() != Idle {
		t.Fatalf("state after Stop = %v, want Idle", tr.State())
	}
}

func TestStopFromArmedIgnoresPending(t *testing.T) {
	tr := New(nil)
	tr.Start()
	tr.Stop()
	if tr.State() != Idle {
		t.Fatalf("state = %v, want Idle", tr.State())
	}
	if tr.ClockCount() != 0 {
		t.Fatalf("clock count = %d, want 0", tr.ClockCount())
	}
}

func TestClockWhileIdleIsIgnored(t *testing.T) {
	tr := New(nil)
	tr.Clock()
	if tr.State() != Idle {
		t.Fatalf("state = %v, want Idle (Clock while Idle must be a no-op)", tr.State())
	}
}

func TestStartResetsClockCountAndInvokesOnStart(t *testing.T) {
	called := false
	tr := New(func() { called = true })

	tr.Start()
	tr.Clock()
	tr.Clock()
	tr.Stop()

	tr.Start()
	if !called {
		t.Fatal("onStart callback was not invoked")
	}
	if tr.ClockCount() != 0 {
		t.Fatalf("clock count after fresh Start = %d, want 0", tr.ClockCount())
	}
}

func TestFrameCounterOnlyAdvancesExplicitly(t *testing.T) {
	tr := New(nil)
	tr.Start()
	tr.Clock()
	for i := 0; i < 10; i++ {
		tr.IncrementFrameCounter()
	}
	if tr.FrameCounter() != 10 {
		t.Fatalf("frame counter = %d, want 10", tr.FrameCounter())
	}
}

func TestMixArmDefaultsFalse(t *testing.T) {
	tr := New(nil)
	if tr.MixArmed() {
		t.Fatal("mix arm should default to false")
	}
	tr.SetMixArm(true)
	if !tr.MixArmed() {
		t.Fatal("mix arm should be true after SetMixArm(true)")
	}
}
