// Package writer drains the engine's queues on ordinary goroutines and
// writes WAV files, following the teacher's diskWriter poll-with-default
// pattern so draining never blocks the real-time producer.
package writer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/odaacabeef/stems/internal/queue"
	"github.com/odaacabeef/stems/internal/sample"
	"github.com/odaacabeef/stems/internal/track"
	"github.com/odaacabeef/stems/internal/transport"
	"github.com/odaacabeef/stems/internal/wavfile"
)

// batchSize bounds how many elements TrackWriter drains per poll, matching
// §4.6 step 1.
const batchSize = 4096

// idlePoll is how long the writer sleeps after a poll that found the queue
// empty, whatever the transport state (the teacher's diskWriter pattern).
const idlePoll = 10 * time.Millisecond

// TrackWriter drains the track queue (C7): one mono WAV file per armed
// input channel, created lazily the first time a sample for that channel
// arrives after the transport starts running.
type TrackWriter struct {
	queue      *queue.SPSC[sample.Recorded]
	transport  *transport.Transport
	tracks     []*track.Track
	sampleRate int
	dir        string

	files        []*wavfile.Writer // indexed by track id, nil until first sample
	failed       []bool            // indexed by track id, latched true after a write error
	sessionStamp string            // shared timestamp for every file in the current run

	scratch [1]float32 // reused across write calls, avoids a per-sample allocation

	wasRunning bool
	stop       chan struct{}
	done       chan struct{}
}

// NewTrackWriter returns a writer ready to run in its own goroutine via Run.
// dir is the directory per-track files are created in.
func NewTrackWriter(q *queue.SPSC[sample.Recorded], tp *transport.Transport, tracks []*track.Track, sampleRate int, dir string) *TrackWriter {
	return &TrackWriter{
		queue:      q,
		transport:  tp,
		tracks:     tracks,
		sampleRate: sampleRate,
		dir:        dir,
		files:      make([]*wavfile.Writer, len(tracks)),
		failed:     make([]bool, len(tracks)),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run drains the queue until Stop is called, then drains it fully one last
// time (§4.1 "Draining on shutdown") before closing any open files.
func (w *TrackWriter) Run() {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			w.drain()
			w.closeAll()
			return
		default:
		}

		running := w.transport.Recording()
		if running && !w.wasRunning {
			w.sessionStamp = time.Now().Format("20060102-150405")
			for i := range w.failed {
				w.failed[i] = false
			}
		}
		if !running && w.wasRunning {
			// Drain whatever the real-time callback pushed before
			// transport.Stop() took effect but this goroutine hasn't popped
			// yet, so every in-flight sample lands in the file before it's
			// closed (§4.1 "Draining on shutdown").
			w.drain()
			w.closeAll()
		}
		w.wasRunning = running

		drained := w.drainBatch()
		if drained == 0 {
			time.Sleep(idlePoll)
		}
	}
}

// Stop signals Run to drain and exit. It blocks until Run has returned.
func (w *TrackWriter) Stop() {
	close(w.stop)
	<-w.done
}

func (w *TrackWriter) drain() {
	for w.drainBatch() > 0 {
	}
}

func (w *TrackWriter) drainBatch() int {
	n := 0
	for n < batchSize {
		s, ok := w.queue.Pop()
		if !ok {
			break
		}
		w.write(s)
		n++
	}
	return n
}

// write appends one sample to its track's file, creating the file on first
// use. Once a track has failed (a create or write error), it latches and no
// further writes are attempted for that track until the next Running
// session, per the "stops further writes for that track" policy: a retry
// would call create again with the same session-stamped name and truncate
// whatever was already written.
func (w *TrackWriter) write(s sample.Recorded) {
	if w.failed[s.TrackID] {
		return
	}

	f := w.files[s.TrackID]
	if f == nil {
		var err error
		f, err = w.create(s.TrackID)
		if err != nil {
			slog.Error("trackwriter: create file", "track", s.TrackID, "error", err)
			w.failed[s.TrackID] = true
			return
		}
		w.files[s.TrackID] = f
	}

	w.scratch[0] = s.Sample
	if err := f.WriteSamples(w.scratch[:]); err != nil {
		slog.Error("trackwriter: write sample, closing file", "track", s.TrackID, "error", err)
		f.Close()
		w.files[s.TrackID] = nil
		w.failed[s.TrackID] = true
	}
}

func (w *TrackWriter) create(trackID uint16) (*wavfile.Writer, error) {
	stamp := w.sessionStamp
	if stamp == "" {
		stamp = time.Now().Format("20060102-150405")
	}
	name := fmt.Sprintf("%s/%02d-%s.wav", w.dir, trackID+1, stamp)
	return wavfile.Create(name, w.sampleRate, 1)
}

func (w *TrackWriter) closeAll() {
	for i, f := range w.files {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			slog.Error("trackwriter: close file", "track", i, "error", err)
		}
		w.files[i] = nil
	}
}
