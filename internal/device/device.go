// Package device enumerates and resolves audio and MIDI devices for the CLI
// front-end and the engine, following the reference implementation's
// name -> index -> system-default fallback chain.
package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Info describes one PortAudio host device for --list-devices and for
// display; it exists so callers outside this package never need to import
// portaudio directly just to print a device list.
type Info struct {
	Name              string
	Index             int
	IsDefault         bool
	MaxInputChannels  int
	MaxOutputChannels int
	SampleRates       []float64
}

// candidateSampleRates is the rate ladder compared against each device's
// default rate to populate Info.SampleRates. PortAudio has no direct
// "supported rates" query, so Info.SampleRates only ever holds the device's
// default rate, whether or not it appears in this list.
var candidateSampleRates = []float64{44100, 48000, 88200, 96000, 176400, 192000}

// ListAudioDevices enumerates every PortAudio host device.
func ListAudioDevices() ([]Info, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device: enumerate audio devices: %w", err)
	}

	def, _ := portaudio.DefaultInputDevice()

	infos := make([]Info, len(devices))
	for i, d := range devices {
		infos[i] = Info{
			Name:              d.Name,
			Index:             i,
			IsDefault:         def != nil && d.Name == def.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			SampleRates:       supportedRates(d),
		}
	}
	return infos, nil
}

func supportedRates(d *portaudio.DeviceInfo) []float64 {
	rates := make([]float64, 0, len(candidateSampleRates))
	for _, r := range candidateSampleRates {
		if r == d.DefaultSampleRate {
			rates = append(rates, r)
		}
	}
	if len(rates) == 0 {
		rates = append(rates, d.DefaultSampleRate)
	}
	return rates
}

// ResolveAudioDevice selects a *portaudio.DeviceInfo by 0-based index when
// selector parses as an integer, otherwise by case-insensitive substring
// match against the device name, falling back to the system default input
// device if selector is empty. A numeric selector is never matched by name.
func ResolveAudioDevice(selector string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device: enumerate audio devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("device: no audio devices available")
	}

	if selector == "" {
		return portaudio.DefaultInputDevice()
	}

	if idx, ok := parseIndex(selector); ok {
		if idx < 0 || idx >= len(devices) {
			return nil, fmt.Errorf("device: audio device index %d out of range (found %d devices)", idx, len(devices))
		}
		return devices[idx], nil
	}

	for _, d := range devices {
		if containsFold(d.Name, selector) {
			return d, nil
		}
	}

	return nil, fmt.Errorf("device: no audio device matching %q", selector)
}

func parseIndex(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
