// Package midi drives the transport state machine from MIDI realtime
// messages and, separately, estimates tempo for display purposes.
package midi

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Realtime status bytes recognized by the transport (§4.8); everything else
// is ignored.
const (
	statusClock    byte = 0xF8
	statusStart    byte = 0xFA
	statusContinue byte = 0xFB
	statusStop     byte = 0xFC
)

// Receiver is the narrow interface the listener drives. *transport.Transport
// satisfies it; a test fake can too.
type Receiver interface {
	Start()
	Clock()
	Stop()
}

// ClockObserver additionally gets every Start/Stop/Clock byte, independent
// of Receiver, purely for display purposes (A7). It never influences the
// transport.
type ClockObserver interface {
	ObserveStart()
	ObserveStop()
	ObserveClock()
}

// Listener owns one MIDI input port and fans its realtime messages out to a
// transport Receiver and an optional ClockObserver. It runs entirely on the
// MIDI driver's own callback thread; it never touches an audio queue.
type Listener struct {
	in       drivers.In
	stopFn   func()
	receiver Receiver
	observer ClockObserver
}

// ListPorts enumerates available MIDI input ports.
func ListPorts() ([]drivers.In, error) {
	return gomidi.InPorts()
}

// Open resolves a MIDI input port by name (case-insensitive substring) or
// 0-based index, falling back to the first available port if selector is
// empty. It does not yet start listening; call Listen for that.
func Open(selector string) (drivers.In, error) {
	ports, err := gomidi.InPorts()
	if err != nil {
		return nil, fmt.Errorf("midi: enumerate input ports: %w", err)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("midi: no input ports available")
	}

	if selector == "" {
		return ports[0], nil
	}

	if idx, ok := parseIndex(selector); ok {
		if idx < 0 || idx >= len(ports) {
			return nil, fmt.Errorf("midi: port index %d out of range (found %d ports)", idx, len(ports))
		}
		return ports[idx], nil
	}

	for _, p := range ports {
		if containsFold(p.String(), selector) {
			return p, nil
		}
	}

	return nil, fmt.Errorf("midi: no input port matching %q", selector)
}

// Listen starts receiving from in, calling receiver for transport edges and
// observer (if non-nil) for every realtime byte seen. It returns a Listener
// whose Close stops the underlying stream.
func Listen(in drivers.In, receiver Receiver, observer ClockObserver) (*Listener, error) {
	l := &Listener{in: in, receiver: receiver, observer: observer}

	stopFn, err := gomidi.ListenTo(in, l.handle, gomidi.UseSystemRealtime())
	if err != nil {
		return nil, fmt.Errorf("midi: listen on %s: %w", in.String(), err)
	}
	l.stopFn = stopFn
	return l, nil
}

func (l *Listener) handle(msg gomidi.Message, _ int32) {
	raw := msg.Bytes()
	if len(raw) == 0 {
		return
	}

	switch raw[0] {
	case statusStart:
		l.receiver.Start()
		if l.observer != nil {
			l.observer.ObserveStart()
		}
	case statusStop:
		l.receiver.Stop()
		if l.observer != nil {
			l.observer.ObserveStop()
		}
	case statusClock:
		l.receiver.Clock()
		if l.observer != nil {
			l.observer.ObserveClock()
		}
	case statusContinue:
		// Continue is not one of the three recognized transitions in §4.3;
		// it is ignored by both the transport and the observer, so it is
		// never counted as a clock pulse.
	default:
		// all other messages ignored, per §4.8
	}
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

// Close stops the listener. Safe to call once; idempotent after that is not
// guaranteed by the underlying driver, so callers should not call it twice.
func (l *Listener) Close() {
	if l.stopFn != nil {
		l.stopFn()
	}
	if err := l.in.Close(); err != nil {
		slog.Warn("midi: error closing input port", "error", err)
	}
}
