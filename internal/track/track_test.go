package track

import "testing"

func TestDefaults(t *testing.T) {
	tr := New(0)
	if tr.Armed() || tr.Monitoring() || tr.Solo() {
		t.Fatal("new track should default to arm=false, monitor=false, solo=false")
	}
	if tr.Level() != 1.0 {
		t.Fatalf("level = %v, want 1.0", tr.Level())
	}
	if tr.Pan() != 0.0 {
		t.Fatalf("pan = %v, want 0.0", tr.Pan())
	}
}

func TestLevelClamped(t *testing.T) {
	tr := New(0)
	tr.SetLevel(5)
	if tr.Level() != 1.0 {
		t.Fatalf("level = %v, want clamped to 1.0", tr.Level())
	}
	tr.SetLevel(-5)
	if tr.Level() != 0.0 {
		t.Fatalf("level = %v, want clamped to 0.0", tr.Level())
	}
}

func TestPanClamped(t *testing.T) {
	tr := New(0)
	tr.SetPan(5)
	if tr.Pan() != 1.0 {
		t.Fatalf("pan = %v, want clamped to 1.0", tr.Pan())
	}
	tr.SetPan(-5)
	if tr.Pan() != -1.0 {
		t.Fatalf("pan = %v, want clamped to -1.0", tr.Pan())
	}
}

func TestPeakIsMonotonicUntilDecay(t *testing.T) {
	tr := New(0)
	tr.UpdatePeak(0.2)
	tr.UpdatePeak(-0.9)
	tr.UpdatePeak(0.1)
	if got := tr.Peak(); got != 0.9 {
		t.Fatalf("peak = %v, want 0.9 (max of absolute values)", got)
	}

	tr.DecayPeak(0.5)
	if got := tr.Peak(); got != 0.45 {
		t.Fatalf("peak after 50%% decay = %v, want 0.45", got)
	}
}

func TestChannelBinding(t *testing.T) {
	tr := New(3)
	if tr.Channel() != 3 {
		t.Fatalf("channel = %d, want 3", tr.Channel())
	}
}
