//go:build windows

package stderr

import (
	"os"

	"github.com/rs/zerolog"
)

// Capture is a no-op on Windows, where audio output does not write to
// stderr.
type Capture struct{}

// Start is a no-op on Windows.
func Start(zerolog.Logger) (*Capture, error) {
	return &Capture{}, nil
}

// WriteOriginal writes to stderr.
func (*Capture) WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Restore is a no-op on Windows.
func (*Capture) Restore() {}
