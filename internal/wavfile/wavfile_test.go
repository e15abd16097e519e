package wavfile

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"
)

func TestRoundTripMono(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01-test.wav")

	w, err := Create(path, 48000, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	want := make([]float32, 4800)
	for i := range want {
		want[i] = rng.Float32()*2 - 1
	}

	if err := w.WriteSamples(want); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, channels, sampleRate, err := ReadSamples(path)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if channels != 1 {
		t.Fatalf("channels = %d, want 1", channels)
	}
	if sampleRate != 48000 {
		t.Fatalf("sampleRate = %d, want 48000", sampleRate)
	}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %v (bits %x), want %v (bits %x)",
				i, got[i], math.Float32bits(got[i]), want[i], math.Float32bits(want[i]))
		}
	}
}

func TestRoundTripStereoConstant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mix-test.wav")

	w, err := Create(path, 48000, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := make([]float32, 200)
	for i := range want {
		if i%2 == 0 {
			want[i] = 0.5
		} else {
			want[i] = -0.25
		}
	}

	if err := w.WriteSamples(want); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, channels, _, err := ReadSamples(path)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if channels != 2 {
		t.Fatalf("channels = %d, want 2", channels)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
