package ui

import (
	"math"
	"sort"
	"strings"

	"github.com/odaacabeef/stems/display/theme"
)

// levelColorHex mirrors the thresholds of the teacher's channel-strip meter
// (display/custom.LevelMeter's colorMap), reused here for an inline per-row
// bar instead of a dedicated vertical widget: the track table is
// row-oriented, and a vertical meter column per row doesn't fit that layout.
var levelColorHex = map[int]string{
	0:    theme.RedRGB,
	-2:   theme.PinkRGB,
	-6:   theme.YellowRGB,
	-18:  theme.GreenRGB,
	-150: theme.SoftGreenRGB,
}

const (
	meterMaxLevel = 0
	meterMinLevel = -60
	meterWidth    = 20
	meterFilled   = '▉'
	meterEmpty    = '░'
)

// ampToDB converts a linear amplitude in [0,1] to dB, clamped at -150 for
// silence (matching the teacher's -150 sentinel for an at-rest meter).
func ampToDB(amp float32) int {
	if amp <= 0 {
		return -150
	}
	db := 20 * math.Log10(float64(amp))
	if db < -150 {
		db = -150
	}
	return int(db)
}

// colorForLevel returns the hex tag for the brightest threshold at or below
// level, mirroring display/custom.LevelMeter's getLevelColor.
func colorForLevel(level int) string {
	keys := make([]int, 0, len(levelColorHex))
	for k := range levelColorHex {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	for _, k := range keys {
		if level >= k {
			return levelColorHex[k]
		}
	}
	return "purple"
}

// meterBar renders a fixed-width colored bar for the given dB level, using
// cview's dynamic-color tag syntax.
func meterBar(db int) string {
	clamped := db
	if clamped < meterMinLevel {
		clamped = meterMinLevel
	} else if clamped > meterMaxLevel {
		clamped = meterMaxLevel
	}

	span := meterMaxLevel - meterMinLevel
	lit := int(float64(clamped-meterMinLevel) / float64(span) * float64(meterWidth))

	var b strings.Builder
	b.WriteString("[" + colorForLevel(db) + "]")
	b.WriteString(strings.Repeat(string(meterFilled), lit))
	b.WriteString("[gray]")
	b.WriteString(strings.Repeat(string(meterEmpty), meterWidth-lit))
	b.WriteString("[-]")
	return b.String()
}
