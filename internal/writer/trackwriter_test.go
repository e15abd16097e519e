package writer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/odaacabeef/stems/internal/queue"
	"github.com/odaacabeef/stems/internal/sample"
	"github.com/odaacabeef/stems/internal/track"
	"github.com/odaacabeef/stems/internal/transport"
	"github.com/odaacabeef/stems/internal/wavfile"
)

// TestTrackWriterDrainsInFlightSamplesBeforeClosing guards against closing a
// track's file before a final drain: samples the real-time callback queued
// before transport.Stop() took effect, but that this goroutine hasn't
// popped yet, must land in the file rather than being lost when the
// now-stale session stamp causes a fresh create() to truncate it.
func TestTrackWriterDrainsInFlightSamplesBeforeClosing(t *testing.T) {
	dir := t.TempDir()
	q := queue.New[sample.Recorded](1024)
	tp := transport.New(nil)
	tracks := []*track.Track{track.New(0)}

	w := NewTrackWriter(q, tp, tracks, 48000, dir)

	tp.Start()
	tp.Clock() // Idle -> Armed -> Running

	const before = 50
	for i := 0; i < before; i++ {
		q.Push(sample.Recorded{TrackID: 0, Sample: float32(i)})
	}

	go w.Run()
	time.Sleep(idlePoll * 5)

	const inFlight = 10
	for i := 0; i < inFlight; i++ {
		q.Push(sample.Recorded{TrackID: 0, Sample: float32(before + i)})
	}
	tp.Stop()

	time.Sleep(idlePoll * 5)
	w.Stop()

	matches, err := filepath.Glob(filepath.Join(dir, "01-*.wav"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("track files written = %d, want 1", len(matches))
	}

	got, channels, sampleRate, err := wavfile.ReadSamples(matches[0])
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if channels != 1 {
		t.Fatalf("channels = %d, want 1", channels)
	}
	if sampleRate != 48000 {
		t.Fatalf("sampleRate = %d, want 48000", sampleRate)
	}

	want := before + inFlight
	if len(got) != want {
		t.Fatalf("samples written = %d, want %d (in-flight samples were lost or the file was truncated)", len(got), want)
	}
	for i := range got {
		if got[i] != float32(i) {
			t.Fatalf("sample %d = %v, want %v", i, got[i], float32(i))
		}
	}
}
