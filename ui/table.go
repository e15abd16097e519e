package ui

import (
	"fmt"
	"strings"

	"github.com/odaacabeef/stems/display/theme"
)

// refreshTable redraws the whole track table every tick. It never allocates
// per row beyond the string it writes, and it decays every row's peak meter
// so the bar's fall time is visible between audio-rate updates.
func (u *UI) refreshTable() {
	var b strings.Builder
	fmt.Fprintf(&b, "    %-5s", "")
	for _, name := range colNames {
		fmt.Fprintf(&b, "%-6s", name)
	}
	b.WriteString("  Peak\n")

	for i, row := range u.rows {
		row.decayPeak(peakDecayFraction)
		u.writeRow(&b, i, row)
	}

	u.tvTable.Clear()
	fmt.Fprint(u.tvTable, b.String())
}

func (u *UI) writeRow(b *strings.Builder, i int, row uiRow) {
	marker := "  "
	if i == u.selectedRow {
		marker = "[yellow]»[-] "
	}
	fmt.Fprintf(b, "%s%-5s", marker, row.label)

	for col := 0; col < colCount; col++ {
		b.WriteString(u.cell(row, i, col))
	}

	b.WriteString("  ")
	b.WriteString(meterBar(ampToDB(row.peak())))
	b.WriteString("\n")
}

// cell renders one column's value, applying the edit buffer if this exact
// (row, col) is being edited, and a reverse-video highlight if it is merely
// selected.
func (u *UI) cell(row uiRow, i, col int) string {
	text := u.cellText(row, col)
	if i != u.selectedRow || col != u.selectedCol {
		return fmt.Sprintf("%-6s", text)
	}
	if u.editMode {
		text = u.editBuf + "_"
	}
	return fmt.Sprintf("[:%s]%-6s[-:-]", theme.BlueRGB, text)
}

func (u *UI) cellText(row uiRow, col int) string {
	switch col {
	case colArm:
		if !row.hasArm {
			return "-"
		}
		return onOff(row.armed())
	case colMonitor:
		if !row.hasMonitorSolo {
			return "-"
		}
		return onOff(row.monitoring())
	case colSolo:
		if !row.hasMonitorSolo {
			return "-"
		}
		return onOff(row.solo())
	case colLevel:
		if !row.hasLevelPan {
			return "-"
		}
		return fmt.Sprintf("%.2f", row.level())
	case colPan:
		if !row.hasLevelPan {
			return "-"
		}
		return fmt.Sprintf("%+.2f", row.pan())
	}
	return ""
}

func onOff(v bool) string {
	if v {
		return "[green]on[-]"
	}
	return "off"
}
