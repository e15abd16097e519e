package writer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/odaacabeef/stems/internal/queue"
	"github.com/odaacabeef/stems/internal/transport"
	"github.com/odaacabeef/stems/internal/wavfile"
)

// MixWriter drains the mix queue (C8): a single interleaved stereo WAV file
// per recording run, created the moment mix-arm is on and the transport
// starts running.
type MixWriter struct {
	queue      *queue.SPSC[float32]
	transport  *transport.Transport
	sampleRate int
	dir        string

	file   *wavfile.Writer
	failed bool // latched true after a write error, until the next Running session

	batch []float32 // reused across drainBatch calls, sized to batchSize

	wasRunning bool
	stop       chan struct{}
	done       chan struct{}
}

// NewMixWriter returns a writer ready to run in its own goroutine via Run.
func NewMixWriter(q *queue.SPSC[float32], tp *transport.Transport, sampleRate int, dir string) *MixWriter {
	return &MixWriter{
		queue:      q,
		transport:  tp,
		sampleRate: sampleRate,
		dir:        dir,
		batch:      make([]float32, 0, batchSize),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (w *MixWriter) Run() {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			w.drain()
			w.close()
			return
		default:
		}

		running := w.transport.Recording() && w.transport.MixArmed()
		if running && !w.wasRunning {
			w.failed = false
		}
		if !running && w.wasRunning {
			// Drain whatever the real-time callback pushed before
			// transport.Stop() took effect but this goroutine hasn't popped
			// yet, so those samples land in the run's own mix file instead
			// of fragmenting into a second, freshly-timestamped one.
			w.drain()
			w.close()
		}
		w.wasRunning = running

		if w.drainBatch() == 0 {
			time.Sleep(idlePoll)
		}
	}
}

func (w *MixWriter) Stop() {
	close(w.stop)
	<-w.done
}

func (w *MixWriter) drain() {
	for w.drainBatch() > 0 {
	}
}

// drainBatch pops up to batchSize samples into the writer's reused scratch
// slice, matching §5's "allocate only at file rotation". Once the mix file
// has failed, the batch is still drained (so the queue doesn't back up and
// start dropping) but never written or recreated, per the "stops further
// writes" policy: recreating would call create again and truncate whatever
// was already written to the same run's mix file.
func (w *MixWriter) drainBatch() int {
	batch := w.batch[:0]
	for len(batch) < batchSize {
		s, ok := w.queue.Pop()
		if !ok {
			break
		}
		batch = append(batch, s)
	}
	w.batch = batch
	if len(batch) == 0 {
		return 0
	}
	if w.failed {
		return len(batch)
	}
	if w.file == nil {
		f, err := w.create()
		if err != nil {
			slog.Error("mixwriter: create file", "error", err)
			w.failed = true
			return len(batch)
		}
		w.file = f
	}
	if err := w.file.WriteSamples(batch); err != nil {
		slog.Error("mixwriter: write samples, closing file", "error", err)
		w.file.Close()
		w.file = nil
		w.failed = true
	}
	return len(batch)
}

func (w *MixWriter) create() (*wavfile.Writer, error) {
	name := fmt.Sprintf("%s/mix-%s.wav", w.dir, time.Now().Format("20060102-150405"))
	return wavfile.Create(name, w.sampleRate, 2)
}

func (w *MixWriter) close() {
	if w.file == nil {
		return
	}
	if err := w.file.Close(); err != nil {
		slog.Error("mixwriter: close file", "error", err)
	}
	w.file = nil
}
