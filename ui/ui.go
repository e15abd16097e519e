// Package ui implements the terminal status display (A6): a read-mostly
// cview/tcell view over the engine's tracks, playback sources, transport,
// and writer overflow counters, adapted from the teacher's display.Tui in
// the same idiom (one cview.Application driving a root grid of panels) but
// built around a track table instead of a JACK port/profile view.
package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"code.rocketnine.space/tslocum/cview"
	"github.com/gdamore/tcell/v2"

	"github.com/odaacabeef/stems/custom"
	"github.com/odaacabeef/stems/display/theme"
	"github.com/odaacabeef/stems/internal/engine"
	"github.com/odaacabeef/stems/internal/midi"
	"github.com/odaacabeef/stems/internal/transport"
	"github.com/odaacabeef/stems/shared"
)

const (
	layoutStatusHeaderWidth = 16
	refreshInterval         = 50 * time.Millisecond
	peakDecayFraction       = 0.3
	messageLifetime         = 4 * time.Second
)

// column indexes into the per-row editable fields, in the order displayed.
const (
	colArm = iota
	colMonitor
	colSolo
	colLevel
	colPan
	colCount
)

var colNames = [colCount]string{"Arm", "Mon", "Solo", "Lvl", "Pan"}

// UI owns the cview application and every widget; it never touches a queue
// or an audio callback, only the atomics exposed by engine.Engine.
type UI struct {
	eng   *engine.Engine
	clock *midi.ClockAnalyzer

	app     *cview.Application
	gridApp *cview.Grid

	tvTransport *custom.StatusText
	tvSync      *custom.StatusText
	tvTempo     *custom.StatusText
	tvDuration  *custom.StatusText
	tvOverflow  *custom.StatusText
	tvMessage   *custom.StatusText
	tvQueueFill *custom.StatusMeter

	tvTable *cview.TextView
	tvLogs  *cview.TextView

	rows        []uiRow
	selectedRow int
	selectedCol int
	editMode    bool
	editBuf     string

	runningSince time.Time
	wasRunning   bool

	message      string
	messageUntil time.Time

	stopping chan struct{}
	appDone  chan struct{}
}

// New builds the widget tree and wires it to eng/clock, but does not start
// the event loop; call Run for that. New does not open the terminal and
// always returns a nil error; a terminal setup failure surfaces in Run,
// which logs it while the engine keeps running headless (§7's "UI
// layout/terminal error" policy).
func New(eng *engine.Engine, clock *midi.ClockAnalyzer) (*UI, error) {
	u := &UI{
		eng:      eng,
		clock:    clock,
		rows:     buildRows(eng),
		stopping: make(chan struct{}),
		appDone:  make(chan struct{}),
	}

	u.app = cview.NewApplication()
	u.buildLayout()
	u.app.SetRoot(u.gridApp, true)
	u.app.SetInputCapture(u.handleKey)

	return u, nil
}

func (u *UI) buildLayout() {
	u.gridApp = cview.NewGrid()
	u.gridApp.SetPadding(0, 0, 0, 0)
	u.gridApp.SetColumns(-1)
	u.gridApp.SetRows(1, 1, len(u.rows)+2, -1)
	u.gridApp.SetBorders(true)
	u.gridApp.SetBordersColor(theme.BorderColor)
	u.gridApp.SetBackgroundColor(cview.Styles.PrimitiveBackgroundColor)

	gridStatus := cview.NewGrid()
	gridStatus.SetPadding(0, 0, 1, 1)
	gridStatus.SetColumns(-1, -1, -1, -1)
	gridStatus.SetRows(1)
	gridStatus.SetBackgroundColor(cview.Styles.PrimitiveBackgroundColor)

	u.tvTransport = custom.NewStatusTextField(layoutStatusHeaderWidth, "Transport", "Idle")
	u.tvSync = custom.NewStatusTextField(layoutStatusHeaderWidth, "Sync", "NO DEVICE")
	u.tvTempo = custom.NewStatusTextField(layoutStatusHeaderWidth, "Tempo", "--- BPM")
	u.tvDuration = custom.NewStatusTextField(layoutStatusHeaderWidth, "Duration", "00:00")

	gridStatus.AddItem(u.tvTransport.GetGrid(), 0, 0, 1, 1, 0, 0, false)
	gridStatus.AddItem(u.tvSync.GetGrid(), 0, 1, 1, 1, 0, 0, false)
	gridStatus.AddItem(u.tvTempo.GetGrid(), 0, 2, 1, 1, 0, 0, false)
	gridStatus.AddItem(u.tvDuration.GetGrid(), 0, 3, 1, 1, 0, 0, false)

	u.gridApp.AddItem(gridStatus, 0, 0, 1, 1, 0, 0, false)

	gridOverflow := cview.NewGrid()
	gridOverflow.SetPadding(0, 0, 1, 1)
	gridOverflow.SetColumns(-1, -1, -1)
	gridOverflow.SetRows(1)
	gridOverflow.SetBackgroundColor(cview.Styles.PrimitiveBackgroundColor)

	u.tvOverflow = custom.NewStatusTextField(layoutStatusHeaderWidth, "Overflow", "track=0 mon=0 mix=0")
	u.tvQueueFill = custom.NewStatusMeter(layoutStatusHeaderWidth, "Queue", 0, "%")
	u.tvMessage = custom.NewStatusTextField(layoutStatusHeaderWidth, "Message", "")

	gridOverflow.AddItem(u.tvOverflow.GetGrid(), 0, 0, 1, 1, 0, 0, false)
	gridOverflow.AddItem(u.tvQueueFill.GetGrid(), 0, 1, 1, 1, 0, 0, false)
	gridOverflow.AddItem(u.tvMessage.GetGrid(), 0, 2, 1, 1, 0, 0, false)

	u.gridApp.AddItem(gridOverflow, 1, 0, 1, 1, 0, 0, false)

	u.tvTable = cview.NewTextView()
	u.tvTable.SetDynamicColors(true)
	u.tvTable.SetPadding(0, 0, 0, 0)
	u.gridApp.AddItem(u.tvTable, 2, 0, 1, 1, 0, 0, true)

	u.tvLogs = cview.NewTextView()
	u.tvLogs.SetDynamicColors(true)
	u.tvLogs.SetPadding(0, 0, 0, 0)
	u.gridApp.AddItem(u.tvLogs, 3, 0, 1, 1, 0, 0, false)

	shared.AddLogSink(u.writeLog)
}

// Run starts the cview event loop and the periodic refresh ticker. It blocks
// until Stop is called or the application panics; call it from its own
// goroutine, as cmd/root.go does.
func (u *UI) Run() {
	go u.refreshLoop()

	defer u.app.HandlePanic()
	if err := u.app.Run(); err != nil {
		slog.Error("ui: run", "error", err)
	}
	close(u.appDone)
}

// Stop requests the application event loop to exit and waits (briefly) for
// it to actually do so. Safe to call from any goroutine, matching
// cview.Application.Stop's own contract; safe to call more than once.
func (u *UI) Stop() {
	select {
	case <-u.stopping:
	default:
		close(u.stopping)
	}
	u.app.Stop()
	select {
	case <-u.appDone:
	case <-time.After(time.Second):
	}
}

func (u *UI) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-u.stopping:
			return
		case <-ticker.C:
			u.app.QueueUpdateDraw(u.refresh)
		}
	}
}

func (u *UI) refresh() {
	u.refreshTransport()
	u.refreshOverflow()
	u.refreshTable()
}

func (u *UI) refreshTransport() {
	state := u.eng.Transport().State()
	running := state == transport.Running

	if running && !u.wasRunning {
		u.runningSince = time.Now()
	}
	u.wasRunning = running

	u.tvTransport.SetCurrentValue(transportIcon(state) + " " + state.String())
	switch state {
	case transport.Running:
		u.tvTransport.SetColor(theme.Red)
	case transport.Armed:
		u.tvTransport.SetColor(theme.Yellow)
	default:
		u.tvTransport.SetColor(tcell.ColorDefault)
	}

	stats := u.clock.Snapshot()
	switch {
	case stats.State == midi.SyncStopped:
		u.tvSync.SetCurrentValue("NO DEVICE")
		u.tvSync.SetColor(theme.Gray)
	case !stats.Synced:
		u.tvSync.SetCurrentValue("NO CLOCK")
		u.tvSync.SetColor(theme.Yellow)
	default:
		u.tvSync.SetCurrentValue("SYNCED")
		u.tvSync.SetColor(theme.Green)
	}

	if stats.Synced && stats.TempoBPM > 0 {
		u.tvTempo.SetCurrentValue(fmt.Sprintf("%.1f BPM", stats.TempoBPM))
	} else {
		u.tvTempo.SetCurrentValue("--- BPM")
	}

	var elapsed time.Duration
	if running {
		elapsed = time.Since(u.runningSince)
	}
	u.tvDuration.SetCurrentValue(formatDuration(elapsed))

	if u.message != "" && time.Now().After(u.messageUntil) {
		u.message = ""
	}
	u.tvMessage.SetCurrentValue(u.message)
}

func (u *UI) refreshOverflow() {
	u.tvOverflow.SetCurrentValue(fmt.Sprintf(
		"track=%d mon=%d mix=%d",
		u.eng.TrackQueueDropped(), u.eng.MonitorQueueDropped(), u.eng.MixQueueDropped(),
	))
	u.tvQueueFill.SetCurrentValue(u.eng.QueueFillPercent())
}

func (u *UI) showMessage(color tcell.Color, format string, args ...any) {
	u.message = fmt.Sprintf(format, args...)
	u.messageUntil = time.Now().Add(messageLifetime)
	u.tvMessage.SetColor(color)
}

// writeLog is registered as a shared.LogHandler (§4.15's "A log tail fed by
// A4") and appends every line HijackLogging captures to the log view.
func (u *UI) writeLog(level shared.LogLevel, message string) {
	color := "white"
	switch level {
	case shared.ERROR:
		color = theme.RedRGB
	case shared.WARN:
		color = theme.YellowRGB
	}
	escaped := strings.ReplaceAll(message, "[", "[[")
	u.app.QueueUpdateDraw(func() {
		fmt.Fprintf(u.tvLogs, "[%s]%s[-]\n", color, escaped)
	})
}

func transportIcon(state transport.State) string {
	switch state {
	case transport.Running:
		return string(theme.RuneRecord)
	case transport.Armed:
		return string(theme.RunePause)
	default:
		return string(theme.RuneStop)
	}
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
