package nowplaying

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/llehouerou/drift/internal/playlist"
)

const (
	filledBlock = "▓"
	emptyBlock  = "░"
)

// progressBar renders "▶  1:23  ▓▓▓░░░  4:56" in width cells.
func progressBar(position, duration time.Duration, width int, playing bool) string {
	status := "▶"
	if !playing {
		status = "⏸"
	}
	pos := playlist.FormatDuration(position)
	dur := playlist.FormatDuration(duration)

	fixed := runewidth.StringWidth(status) + 2 + len(pos) + 2 + 2 + len(dur)
	barWidth := width - fixed
	if barWidth < 3 {
		return status + "  " + pos + " / " + dur
	}

	var ratio float64
	if duration > 0 {
		ratio = float64(position) / float64(duration)
	}
	filled := min(max(int(float64(barWidth)*ratio), 0), barWidth)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, barWidth-filled)

	return status + "  " + pos + "  " + bar + "  " + dur
}

// volumeBar renders "vol ▮▮▮▮▮▯▯▯▯▯  50%".
func volumeBar(level int) string {
	level = min(max(level, 0), 100)
	on := level / 10
	return fmt.Sprintf("vol %s%s %3d%%", strings.Repeat("▮", on), strings.Repeat("▯", 10-on), level)
}
