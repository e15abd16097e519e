package engine

// processOutput is the real-time output callback (C6). out is interleaved
// OutputChannels()*frames samples the host will play; every sample not
// explicitly written stays at the zero this function fills in first.
func (e *Engine) processOutput(out []float32, frames int) {
	nOut := e.cfg.OutputChannels
	for i := range out {
		out[i] = 0
	}

	for f := 0; f < frames; f++ {
		l, _ := e.monitorQueue.Pop() // zero value on underrun, per §4.5 step 2
		r, _ := e.monitorQueue.Pop()

		out[f*nOut+e.cfg.MonitorStart] = l
		out[f*nOut+e.cfg.MonitorEnd] = r
	}
}
