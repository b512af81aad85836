// Package suggest proposes songs to play next, as "Artist - Title" strings.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ManyLimit is the number of suggestions requested from a history or a
// mood.
const ManyLimit = 5

// historyWindow is how many recent seeds SuggestMany looks at.
const historyWindow = 10

// ErrEmpty is returned when a provider produced no usable suggestion.
var ErrEmpty = errors.New("empty suggestion")

// Suggester is implemented by every provider.
type Suggester interface {
	// SuggestNext returns one song that fits after seed.
	SuggestNext(ctx context.Context, seed string) (string, error)
	// SuggestMany returns up to ManyLimit new songs for a listening
	// history, most recent first.
	SuggestMany(ctx context.Context, seeds []string) ([]string, error)
	// SuggestMood returns up to ManyLimit songs matching a free-text mood.
	SuggestMood(ctx context.Context, mood string) ([]string, error)
}

var listMarker = regexp.MustCompile(`^(?:[-*]|\d+\.)\s+`)

// cleanLine strips markdown fences, quotes and list markers an LLM may
// wrap around a single answer.
func cleanLine(s string) string {
	s = stripFences(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = listMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, "\"'`“”")
	return strings.TrimSpace(s)
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// parseList decodes a JSON array of strings, tolerating fences.
func parseList(s string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(stripFences(s)), &out); err != nil {
		return nil, err
	}
	cleaned := out[:0]
	for _, v := range out {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned, nil
}

// SplitSeed splits "Artist - Title" at the first " - ".
func SplitSeed(seed string) (artist, title string) {
	artist, title, ok := strings.Cut(seed, " - ")
	if !ok {
		return "", strings.TrimSpace(seed)
	}
	return strings.TrimSpace(artist), strings.TrimSpace(title)
}

// None never suggests anything.
type None struct{}

func (None) SuggestNext(context.Context, string) (string, error) { return "", ErrEmpty }

func (None) SuggestMany(context.Context, []string) ([]string, error) { return nil, nil }

func (None) SuggestMood(context.Context, string) ([]string, error) { return nil, nil }
