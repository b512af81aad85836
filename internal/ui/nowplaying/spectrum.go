package nowplaying

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/drift/internal/ui/styles"
)

// barLevels are the partial-cell glyphs from empty to full.
var barLevels = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// resample maps bins onto width columns, taking the peak of each group.
func resample(bins []uint8, width int) []float64 {
	out := make([]float64, width)
	if len(bins) == 0 || width <= 0 {
		return out
	}
	for col := range width {
		lo := col * len(bins) / width
		hi := max((col+1)*len(bins)/width, lo+1)
		var peak uint8
		for _, b := range bins[lo:min(hi, len(bins))] {
			peak = max(peak, b)
		}
		out[col] = float64(peak) / 255
	}
	return out
}

// idleLevels is a slow travelling wave shown when no analysis is available.
func idleLevels(width int, phase float64) []float64 {
	out := make([]float64, width)
	for i := range out {
		x := float64(i) / float64(max(width, 1))
		out[i] = 0.12 + 0.08*math.Sin(2*math.Pi*(x*2+phase))
	}
	return out
}

// renderBars draws levels (0-1) as height rows of vertical bars, colored
// across the columns from the low to the high spectrum color.
func renderBars(levels []float64, height int, from, to lipgloss.Color) string {
	if height <= 0 || len(levels) == 0 {
		return ""
	}
	colors := styles.Gradient(len(levels), from, to)
	colStyles := make([]lipgloss.Style, len(levels))
	columns := make([][]rune, len(levels))
	for i, level := range levels {
		colStyles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i]))
		columns[i] = column(level, height)
	}

	rows := make([]string, height)
	for r := range height {
		var b strings.Builder
		for i := range levels {
			b.WriteString(colStyles[i].Render(string(columns[i][r])))
		}
		rows[r] = b.String()
	}
	return strings.Join(rows, "\n")
}

// column returns the glyphs of one bar, top row first.
func column(level float64, height int) []rune {
	steps := len(barLevels) - 1
	cells := int(math.Round(min(max(level, 0), 1) * float64(height*steps)))
	out := make([]rune, height)
	for r := range height {
		floor := (height - 1 - r) * steps
		out[r] = barLevels[min(max(cells-floor, 0), steps)]
	}
	return out
}
