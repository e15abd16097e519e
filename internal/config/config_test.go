package config

import "testing"

func TestParseMonitorChannelsValid(t *testing.T) {
	start, end, err := ParseMonitorChannels("1-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 0 || end != 1 {
		t.Fatalf("got (%d,%d), want (0,1)", start, end)
	}
}

func TestParseMonitorChannelsRejectsNonAdjacent(t *testing.T) {
	if _, _, err := ParseMonitorChannels("1-3"); err == nil {
		t.Fatal("expected error for non-adjacent range")
	}
}

func TestParseMonitorChannelsRejectsBelowOne(t *testing.T) {
	if _, _, err := ParseMonitorChannels("0-1"); err == nil {
		t.Fatal("expected error for start < 1")
	}
}

func TestParseMonitorChannelsRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "3", "a-b", "3-4-5"} {
		if _, _, err := ParseMonitorChannels(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestValidateRejectsOutOfRangeLevel(t *testing.T) {
	bad := float32(1.5)
	c := &Config{Tracks: map[int]TrackConfig{1: {Level: &bad}}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for level > 1")
	}
}

func TestValidateRejectsTrackNumberBelowOne(t *testing.T) {
	c := &Config{Tracks: map[int]TrackConfig{0: {}}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for track number 0")
	}
}

func TestTrackDefaultsAppliesFileDefaults(t *testing.T) {
	level := float32(0.8)
	c := &Config{Tracks: map[int]TrackConfig{1: {Level: &level}}}
	defaults := c.TrackDefaults()

	d, ok := defaults[1]
	if !ok {
		t.Fatal("expected track 1 in defaults")
	}
	if d.Level != 0.8 {
		t.Fatalf("level = %v, want 0.8", d.Level)
	}
	if d.Pan != DefaultPan {
		t.Fatalf("pan = %v, want default %v", d.Pan, DefaultPan)
	}
}
