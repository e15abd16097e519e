package ui

import (
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/odaacabeef/stems/reaper"
)

// handleKey implements §4.15's navigation state machine: arrow/vi keys move
// the row/column selection, Enter toggles a boolean column or enters edit
// mode for Level/Pan, a/A/m/s act on every applicable row at once, q quits.
// Everything here runs on cview's own goroutine, never the audio callbacks.
func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if u.editMode {
		u.handleEditKey(event)
		return nil
	}

	switch event.Key() {
	case tcell.KeyUp:
		u.moveRow(-1)
		return nil
	case tcell.KeyDown:
		u.moveRow(1)
		return nil
	case tcell.KeyLeft:
		u.moveCol(-1)
		return nil
	case tcell.KeyRight:
		u.moveCol(1)
		return nil
	case tcell.KeyEnter:
		u.activateCell()
		return nil
	case tcell.KeyCtrlC:
		go reaper.Reap()
		return nil
	case tcell.KeyEsc:
		return nil
	}

	switch event.Rune() {
	case 'j':
		u.moveRow(1)
	case 'k':
		u.moveRow(-1)
	case 'h':
		u.moveCol(-1)
	case 'l':
		u.moveCol(1)
	case 'a':
		u.setAllArm(true)
	case 'A':
		u.setAllArm(false)
	case 'm':
		u.toggleAll(colMonitor)
	case 's':
		u.toggleAll(colSolo)
	case 'q':
		go reaper.Reap()
	default:
		return event
	}
	return nil
}

func (u *UI) moveRow(delta int) {
	if len(u.rows) == 0 {
		return
	}
	u.selectedRow += delta
	if u.selectedRow < 0 {
		u.selectedRow = 0
	} else if u.selectedRow >= len(u.rows) {
		u.selectedRow = len(u.rows) - 1
	}
}

func (u *UI) moveCol(delta int) {
	u.selectedCol += delta
	if u.selectedCol < 0 {
		u.selectedCol = 0
	} else if u.selectedCol >= colCount {
		u.selectedCol = colCount - 1
	}
}

// activateCell toggles a boolean column in place, or enters edit mode for
// Level/Pan, for the currently selected row and column.
func (u *UI) activateCell() {
	if u.selectedRow >= len(u.rows) {
		return
	}
	row := u.rows[u.selectedRow]

	switch u.selectedCol {
	case colArm:
		if row.hasArm {
			row.setArmed(!row.armed())
		}
	case colMonitor:
		if row.hasMonitorSolo {
			row.setMonitor(!row.monitoring())
		}
	case colSolo:
		if row.hasMonitorSolo {
			row.setSolo(!row.solo())
		}
	case colLevel:
		if row.hasLevelPan {
			u.editMode = true
			u.editBuf = strconv.FormatFloat(float64(row.level()), 'f', 2, 32)
		}
	case colPan:
		if row.hasLevelPan {
			u.editMode = true
			u.editBuf = strconv.FormatFloat(float64(row.pan()), 'f', 2, 32)
		}
	}
}

// handleEditKey collects digits typed while editing a Level/Pan cell,
// committing on Enter and discarding on Esc.
func (u *UI) handleEditKey(event *tcell.EventKey) {
	switch event.Key() {
	case tcell.KeyEnter:
		u.commitEdit()
		u.editMode = false
		u.editBuf = ""
		return
	case tcell.KeyEsc:
		u.editMode = false
		u.editBuf = ""
		return
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(u.editBuf) > 0 {
			u.editBuf = u.editBuf[:len(u.editBuf)-1]
		}
		return
	}

	r := event.Rune()
	if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
		u.editBuf += string(r)
	}
}

func (u *UI) commitEdit() {
	if u.selectedRow >= len(u.rows) {
		return
	}
	row := u.rows[u.selectedRow]

	v, err := strconv.ParseFloat(u.editBuf, 32)
	if err != nil {
		u.showMessage(tcell.ColorYellow, "invalid value %q", u.editBuf)
		return
	}

	switch u.selectedCol {
	case colLevel:
		row.setLevel(float32(v))
	case colPan:
		row.setPan(float32(v))
	}
}

func (u *UI) setAllArm(armed bool) {
	for _, row := range u.rows {
		if row.hasArm {
			row.setArmed(armed)
		}
	}
}

// toggleAll sets the column on every applicable row at once: if any row has
// it off, turn all on; otherwise turn all off. col must be colMonitor or
// colSolo.
func (u *UI) toggleAll(col int) {
	getter := func(row uiRow) bool { return row.monitoring() }
	setter := func(row uiRow, v bool) { row.setMonitor(v) }
	if col == colSolo {
		getter = func(row uiRow) bool { return row.solo() }
		setter = func(row uiRow, v bool) { row.setSolo(v) }
	}

	anyOff := false
	for _, row := range u.rows {
		if row.hasMonitorSolo && !getter(row) {
			anyOff = true
			break
		}
	}

	for _, row := range u.rows {
		if row.hasMonitorSolo {
			setter(row, anyOff)
		}
	}
}
