package ui

import (
	"strconv"

	"github.com/odaacabeef/stems/internal/engine"
	"github.com/odaacabeef/stems/internal/playback"
	"github.com/odaacabeef/stems/internal/track"
	"github.com/odaacabeef/stems/internal/transport"
)

// rowKind distinguishes the three kinds of row the track table can hold,
// each exposing a different subset of columns (§4.15: "only the columns
// applicable to that row's kind").
type rowKind int

const (
	rowTrack rowKind = iota
	rowPlayback
	rowMix
)

// uiRow is a uniform view over a track.Track, a playback.Source, or the
// engine's mix-record flag, so the table renderer and the key handler don't
// need to type-switch on every access. Every accessor reaches straight
// through to the underlying atomic; the UI never caches a value across a
// refresh.
type uiRow struct {
	kind  rowKind
	label string

	hasArm        bool
	hasMonitorSolo bool
	hasLevelPan   bool

	armed    func() bool
	setArmed func(bool)

	monitoring  func() bool
	setMonitor  func(bool)
	solo        func() bool
	setSolo     func(bool)
	level       func() float32
	setLevel    func(float32)
	pan         func() float32
	setPan      func(float32)

	peak      func() float32
	decayPeak func(fraction float32)
}

func newTrackRow(label string, t *track.Track) uiRow {
	return uiRow{
		kind:           rowTrack,
		label:          label,
		hasArm:         true,
		hasMonitorSolo: true,
		hasLevelPan:    true,
		armed:          t.Armed,
		setArmed:       t.SetArm,
		monitoring:     t.Monitoring,
		setMonitor:     t.SetMonitor,
		solo:           t.Solo,
		setSolo:        t.SetSolo,
		level:          t.Level,
		setLevel:       t.SetLevel,
		pan:            t.Pan,
		setPan:         t.SetPan,
		peak:           t.Peak,
		decayPeak:      t.DecayPeak,
	}
}

func newPlaybackRow(label string, p *playback.Source) uiRow {
	return uiRow{
		kind:           rowPlayback,
		label:          label,
		hasArm:         false,
		hasMonitorSolo: true,
		hasLevelPan:    true,
		armed:          func() bool { return false },
		setArmed:       func(bool) {},
		monitoring:     p.Monitoring,
		setMonitor:     p.SetMonitor,
		solo:           p.Solo,
		setSolo:        p.SetSolo,
		level:          p.Level,
		setLevel:       p.SetLevel,
		pan:            p.Pan,
		setPan:         p.SetPan,
		peak:           p.Peak,
		decayPeak:      p.DecayPeak,
	}
}

func newMixRow(tp *transport.Transport, eng *engine.Engine) uiRow {
	return uiRow{
		kind:           rowMix,
		label:          "MIX",
		hasArm:         true,
		hasMonitorSolo: false,
		hasLevelPan:    false,
		armed:          tp.MixArmed,
		setArmed:       tp.SetMixArm,
		monitoring:     func() bool { return false },
		setMonitor:     func(bool) {},
		solo:           func() bool { return false },
		setSolo:        func(bool) {},
		level:          func() float32 { return 0 },
		setLevel:       func(float32) {},
		pan:            func() float32 { return 0 },
		setPan:         func(float32) {},
		peak:           eng.MixPeak,
		decayPeak:      eng.DecayMixPeak,
	}
}

// buildRows lays out one row per input track, one per playback source, and a
// final mix-record row, matching §4.15's track table.
func buildRows(eng *engine.Engine) []uiRow {
	tracks := eng.Tracks()
	playbacks := eng.Playbacks()

	rows := make([]uiRow, 0, len(tracks)+len(playbacks)+1)
	for i, t := range tracks {
		rows = append(rows, newTrackRow(trackLabel(i), t))
	}
	for i, p := range playbacks {
		rows = append(rows, newPlaybackRow(playbackLabel(i), p))
	}
	rows = append(rows, newMixRow(eng.Transport(), eng))
	return rows
}

func trackLabel(i int) string    { return "T" + strconv.Itoa(i+1) }
func playbackLabel(i int) string { return "P" + strconv.Itoa(i+1) }
