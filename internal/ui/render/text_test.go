package render

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "Song Title", "Song Title"},
		{"control chars", "Song\x00Ti\x1btle", "SongTitle"},
		{"keeps tab", "a\tb", "a\tb"},
		{"nbsp", "a b", "a b"},
		{"invalid utf8", "ab\xffc", "abc"},
		{"unicode", "Björk – Jóga", "Björk – Jóga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello w…"},
		{"zero width", "hello", 0, ""},
		{"wide chars", "日本語テキスト", 7, "日本語…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestPad(t *testing.T) {
	if got := Pad("ab", 4); got != "ab  " {
		t.Errorf("Pad() = %q, want %q", got, "ab  ")
	}
	if got := Pad("abcdef", 4); got != "abcdef" {
		t.Errorf("Pad() = %q, want unchanged", got)
	}
}

func TestRow(t *testing.T) {
	tests := []struct {
		left, right string
		width       int
		want        string
	}{
		{"a", "b", 5, "a   b"},
		{"left", "right", 5, "left right"},
	}
	for _, tt := range tests {
		if got := Row(tt.left, tt.right, tt.width); got != tt.want {
			t.Errorf("Row(%q, %q, %d) = %q, want %q", tt.left, tt.right, tt.width, got, tt.want)
		}
	}
}

func TestMarquee(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		width  int
		offset int
		want   string
	}{
		{"fits", "short", 10, 3, "short"},
		{"start", "abcdefgh", 4, 0, "abcd"},
		{"scrolled", "abcdefgh", 4, 2, "cdef"},
		{"into gap", "abcdefgh", 4, 6, "gh  "},
		{"wraps", "abcdefgh", 4, 10, " abc"},
		{"full cycle", "abcdefgh", 4, 11, "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Marquee(tt.input, tt.width, tt.offset); got != tt.want {
				t.Errorf("Marquee(%q, %d, %d) = %q, want %q", tt.input, tt.width, tt.offset, got, tt.want)
			}
		})
	}
}

func TestMarqueeWideCharsStayInWidth(t *testing.T) {
	s := "日本語のタイトルです"
	for offset := range 15 {
		got := Marquee(s, 5, offset)
		if w := runewidth.StringWidth(got); w > 5 {
			t.Errorf("Marquee(offset %d) width = %d, want <= 5", offset, w)
		}
	}
}
