// Package render provides text helpers for terminal layout.
package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// marqueeGap separates the end of scrolling text from its restart.
const marqueeGap = "   "

// Sanitize drops control characters and invalid UTF-8 from remote
// metadata. Non-breaking spaces become plain spaces.
func Sanitize(s string) string {
	if !needsSanitize(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size <= 1:
			i++
			continue
		case r != '\t' && unicode.IsControl(r):
		case r == ' ':
			b.WriteByte(' ')
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

func needsSanitize(s string) bool {
	for i := range len(s) {
		c := s[i]
		if c < 0x20 && c != '\t' {
			return true
		}
		if c >= 0x80 && c <= 0x9f {
			return true
		}
		if c == 0xc2 && i+1 < len(s) && s[i+1] == 0xa0 {
			return true
		}
	}
	return !utf8.ValidString(s)
}

// Truncate sanitizes s and cuts it to maxWidth cells with an ellipsis.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(Sanitize(s), maxWidth, "…")
}

// Pad fills s with spaces to width cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Row places left and right at either end of width cells.
func Row(left, right string, width int) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// Marquee returns a width-cell window of s scrolled by offset grapheme
// clusters. Text that already fits is returned unchanged.
func Marquee(s string, width, offset int) string {
	s = Sanitize(s)
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	var clusters []string
	g := uniseg.NewGraphemes(s + marqueeGap)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	start := max(offset, 0) % len(clusters)

	var b strings.Builder
	used := 0
	for i := range len(clusters) {
		c := clusters[(start+i)%len(clusters)]
		w := runewidth.StringWidth(c)
		if used+w > width {
			break
		}
		b.WriteString(c)
		used += w
	}
	return b.String()
}
