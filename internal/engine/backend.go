package engine

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// AudioBackend is the narrow seam between the engine and a concrete audio
// API (§4.9, §9 "Dynamic dispatch over audio backends"). PortAudio is the
// only implementation; the interface exists so a low-latency native backend
// could be added later without changing the C5/C6 callback bodies, which
// only ever see plain []float32 slices.
type AudioBackend interface {
	// Open prepares a duplex stream at sampleRate with the given channel
	// counts and buffer size. callback is invoked on the host's real-time
	// thread once per buffer; in has InputChannels()*frames samples, out
	// has OutputChannels()*frames samples the callback must fill.
	Open(sampleRate float64, inputChannels, outputChannels, framesPerBuffer int, callback func(in, out []float32)) error
	Start() error
	Stop() error
	Close() error
	InputChannels() int
	OutputChannels() int
	SupportedSampleRates() []float64
}

// portAudioBackend is the only AudioBackend implementation. It wraps one
// full-duplex *portaudio.Stream opened against a single chosen device used
// for both input and output, following the StreamParameters/OpenStream
// shape used throughout the example pack's PortAudio integrations.
type portAudioBackend struct {
	device *portaudio.DeviceInfo
	stream *portaudio.Stream

	inputChannels  int
	outputChannels int
}

// NewPortAudioBackend returns a backend bound to device, which must support
// at least inputChannels input channels and outputChannels output channels.
// portaudio.Initialize must already have been called by the caller (A3/A2,
// at process start) and portaudio.Terminate deferred at process exit.
func NewPortAudioBackend(device *portaudio.DeviceInfo, inputChannels, outputChannels int) *portAudioBackend {
	return &portAudioBackend{
		device:         device,
		inputChannels:  inputChannels,
		outputChannels: outputChannels,
	}
}

func (b *portAudioBackend) Open(sampleRate float64, inputChannels, outputChannels, framesPerBuffer int, callback func(in, out []float32)) error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   b.device,
			Channels: inputChannels,
			Latency:  b.device.DefaultLowInputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   b.device,
			Channels: outputChannels,
			Latency:  b.device.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return fmt.Errorf("engine: open portaudio stream: %w", err)
	}
	b.stream = stream
	return nil
}

func (b *portAudioBackend) Start() error {
	if err := b.stream.Start(); err != nil {
		return fmt.Errorf("engine: start portaudio stream: %w", err)
	}
	return nil
}

func (b *portAudioBackend) Stop() error {
	if b.stream == nil {
		return nil
	}
	if err := b.stream.Stop(); err != nil {
		return fmt.Errorf("engine: stop portaudio stream: %w", err)
	}
	return nil
}

func (b *portAudioBackend) Close() error {
	if b.stream == nil {
		return nil
	}
	if err := b.stream.Close(); err != nil {
		return fmt.Errorf("engine: close portaudio stream: %w", err)
	}
	return nil
}

func (b *portAudioBackend) InputChannels() int  { return b.inputChannels }
func (b *portAudioBackend) OutputChannels() int { return b.outputChannels }

// SupportedSampleRates reports the device's default rate only; PortAudio
// exposes no enumerable rate list, so §4.9 step 3's fallback ladder is
// driven by the caller trying PreferredSampleRate first and falling back to
// this value.
func (b *portAudioBackend) SupportedSampleRates() []float64 {
	return []float64{b.device.DefaultSampleRate}
}
