package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// fallbackGray stands in for colors that are not #rrggbb, such as ANSI
// indexes.
var fallbackGray = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

// Gradient returns size hex colors blended in HCL space from one color to
// another. A single step is just from.
func Gradient(size int, from, to lipgloss.Color) []string {
	if size <= 0 {
		return nil
	}
	start, end := parse(from), parse(to)
	if size == 1 {
		return []string{start.Hex()}
	}
	out := make([]string, size)
	for i := range size {
		out[i] = start.BlendHcl(end, float64(i)/float64(size-1)).Clamped().Hex()
	}
	return out
}

// BoldGradient renders text bold, coloring each grapheme cluster along a
// gradient.
func BoldGradient(text string, from, to lipgloss.Color) string {
	var clusters []string
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	if len(clusters) == 0 {
		return ""
	}

	var b strings.Builder
	for i, hex := range Gradient(len(clusters), from, to) {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hex)).Render(clusters[i]))
	}
	return b.String()
}

func parse(c lipgloss.Color) colorful.Color {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return fallbackGray
	}
	return col
}
