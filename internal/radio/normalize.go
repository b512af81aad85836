package radio

import (
	"strings"
	"unicode"
)

// normalizeString normalizes a string for comparison.
// Converts to lowercase, removes punctuation, and collapses whitespace.
func normalizeString(s string) string {
	s = strings.ToLower(s)

	// Remove common suffixes that cause mismatches
	s = strings.TrimSuffix(s, " (official video)")
	s = strings.TrimSuffix(s, " (official audio)")
	s = strings.TrimSuffix(s, " (remastered)")
	s = strings.TrimSuffix(s, " (remaster)")
	s = strings.TrimSuffix(s, " [remastered]")

	var result strings.Builder
	lastWasSpace := true // Start true to trim leading spaces

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			lastWasSpace = false
		} else if unicode.IsSpace(r) || r == '-' || r == '_' {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		}
		// Skip other punctuation
	}

	return strings.TrimSpace(result.String())
}
