package engine

import "github.com/odaacabeef/stems/internal/sample"

// processInput is the real-time input callback (C5). It never allocates,
// never locks, and never performs I/O: every track/source it touches is an
// atomic field, and the only calls are Push on a pre-sized SPSC queue.
//
// in is interleaved InputChannels()*frames samples from the host.
func (e *Engine) processInput(in []float32, frames int) {
	nIn := len(e.tracks)
	recording := e.transport.Recording()

	anySolo := false
	for _, t := range e.tracks {
		if t.Solo() {
			anySolo = true
			break
		}
	}
	if !anySolo {
		for _, p := range e.playbacks {
			if p.Solo() {
				anySolo = true
				break
			}
		}
	}

	for f := 0; f < frames; f++ {
		var l, r float32

		for t := 0; t < nIn; t++ {
			tr := e.tracks[t]
			x := in[f*nIn+t] * tr.Level()
			tr.UpdatePeak(x)

			if recording && tr.Armed() {
				e.trackQueue.Push(sample.Recorded{TrackID: uint16(t), Sample: x})
			}

			if tr.Monitoring() && (!anySolo || tr.Solo()) {
				gL, gR := panGains(tr.Pan())
				l += x * gL
				r += x * gR
			}
		}

		for _, p := range e.playbacks {
			if !recording {
				continue
			}

			sl, sr := p.FrameAt(p.Position())
			level := p.Level()
			sl *= level
			sr *= level
			p.UpdatePeak(sl, sr)

			if p.Monitoring() && (!anySolo || p.Solo()) {
				// Pan scales each channel's own gain rather than mixing L
				// into R; for a mono source sl==sr so this matches the
				// input-track pan law exactly.
				gL, gR := panGains(p.Pan())
				l += sl * gL
				r += sr * gR
			}

			p.Advance()
		}

		e.monitorQueue.Push(l)
		e.monitorQueue.Push(r)

		if recording && e.transport.MixArmed() {
			e.mixQueue.Push(l)
			e.mixQueue.Push(r)
			e.updateMixPeak(l, r)
		}

		if recording {
			e.transport.IncrementFrameCounter()
		}
	}
}
