//go:build !windows

// Package stderr captures output that native audio libraries (ALSA through
// the speaker) write straight to file descriptor 2, so it lands in the log
// instead of on top of the TUI.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Capture redirects fd 2 into a pipe until Restore is called.
type Capture struct {
	orig   int
	read   *os.File
	write  *os.File
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// Start redirects stderr and logs every non-empty captured line at warn
// level. The program keeps running without capture when it fails.
func Start(logger zerolog.Logger) (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	fd := int(os.Stderr.Fd())
	orig, err := unix.Dup(fd)
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	if err := unix.Dup2(int(w.Fd()), fd); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{
		orig:   orig,
		read:   r,
		write:  w,
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.forward()
	return c, nil
}

func (c *Capture) forward() {
	defer close(c.done)
	scanner := bufio.NewScanner(c.read)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			c.logger.Warn().Str("source", "stderr").Msg(line)
		}
	}
}

// WriteOriginal writes to the terminal's stderr, bypassing capture.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = unix.Write(c.orig, []byte(msg))
}

// Restore puts the original stderr back and waits for pending lines to
// be logged. Safe to call more than once.
func (c *Capture) Restore() {
	c.once.Do(func() {
		_ = unix.Dup2(c.orig, int(os.Stderr.Fd()))
		_ = unix.Close(c.orig)
		c.write.Close()
		<-c.done
		c.read.Close()
	})
}
