package writer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/odaacabeef/stems/internal/queue"
	"github.com/odaacabeef/stems/internal/transport"
	"github.com/odaacabeef/stems/internal/wavfile"
)

// TestMixWriterDrainsInFlightSamplesBeforeClosing guards against closing the
// mix file before a final drain: samples queued before transport.Stop()
// took effect but not yet popped must land in the same run's mix file
// instead of fragmenting into a second, freshly-timestamped one.
func TestMixWriterDrainsInFlightSamplesBeforeClosing(t *testing.T) {
	dir := t.TempDir()
	q := queue.New[float32](1024)
	tp := transport.New(nil)
	tp.SetMixArm(true)

	w := NewMixWriter(q, tp, 48000, dir)

	tp.Start()
	tp.Clock() // Idle -> Armed -> Running

	const beforeFrames = 25
	for i := 0; i < beforeFrames; i++ {
		q.Push(float32(i))
		q.Push(-float32(i))
	}

	go w.Run()
	time.Sleep(idlePoll * 5)

	const inFlightFrames = 5
	for i := beforeFrames; i < beforeFrames+inFlightFrames; i++ {
		q.Push(float32(i))
		q.Push(-float32(i))
	}
	tp.Stop()

	time.Sleep(idlePoll * 5)
	w.Stop()

	matches, err := filepath.Glob(filepath.Join(dir, "mix-*.wav"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("mix files written = %d, want 1 (in-flight samples should not fragment into a second file)", len(matches))
	}

	got, channels, _, err := wavfile.ReadSamples(matches[0])
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if channels != 2 {
		t.Fatalf("channels = %d, want 2", channels)
	}

	wantFrames := beforeFrames + inFlightFrames
	if len(got) != wantFrames*2 {
		t.Fatalf("samples written = %d, want %d", len(got), wantFrames*2)
	}
	for i := 0; i < wantFrames; i++ {
		if got[i*2] != float32(i) || got[i*2+1] != -float32(i) {
			t.Fatalf("frame %d = (%v,%v), want (%v,%v)", i, got[i*2], got[i*2+1], float32(i), -float32(i))
		}
	}
}
