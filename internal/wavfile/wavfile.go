// Package wavfile writes RIFF/WAVE files in WAVE_FORMAT_IEEE_FLOAT, used by
// both the track writer and the mix writer so recorded samples round-trip
// bit-for-bit instead of being rescaled into an integer PCM range.
package wavfile

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// formatIEEEFloat is the WAV format tag for 32-bit IEEE float samples
// (0x0003), as required by §4.6/§4.7. go-audio/wav expects this as the
// fifth argument to NewEncoder.
const formatIEEEFloat = 3

const bitDepth = 32

// Writer wraps a *wav.Encoder configured for IEEE float samples. Samples are
// packed as their raw IEEE-754 bit pattern in an int32 slot rather than
// rescaled, which is what lets a written file round-trip exactly: rescaling
// (as github.com/go-audio/transforms.PCMScaleF32 does) would corrupt the
// round-trip invariant in §8.
type Writer struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
}

// Create opens path and prepares a WAV encoder for the given channel count
// at sampleRate. Channels must be 1 (track file) or 2 (mix file).
func Create(path string, sampleRate, channels int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavfile: create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, formatIEEEFloat)

	return &Writer{
		file:    f,
		encoder: enc,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		},
	}, nil
}

// WriteSamples appends interleaved float32 samples (mono: one value per
// frame; stereo: L,R,L,R,...) verbatim, preserving exact bit patterns.
func (w *Writer) WriteSamples(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	} else {
		w.buf.Data = w.buf.Data[:len(samples)]
	}

	for i, s := range samples {
		w.buf.Data[i] = int(int32(math.Float32bits(s)))
	}

	return w.encoder.Write(w.buf)
}

// Close finalizes the WAV header (correct data chunk size) and closes the
// underlying file.
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("wavfile: close encoder: %w", err)
	}
	return w.file.Close()
}

// ReadSamples decodes a WAV file written by Writer back into its original
// float32 values, for round-trip verification. It assumes the file is
// WAVE_FORMAT_IEEE_FLOAT as produced by Create/WriteSamples.
func ReadSamples(path string) (samples []float32, channels int, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wavfile: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wavfile: decode %s: %w", path, err)
	}

	samples = make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = math.Float32frombits(uint32(int32(v)))
	}

	return samples, int(dec.NumChans), int(dec.SampleRate), nil
}
