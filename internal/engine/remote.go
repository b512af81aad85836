package engine

import (
	"context"
	"fmt"
	"time"
)

// unavailableRemote stands in for a remote player that failed to start.
type unavailableRemote struct {
	err error
}

func (r unavailableRemote) Load(context.Context, string) error {
	return fmt.Errorf("remote player unavailable: %w", r.err)
}

func (unavailableRemote) Play() error                      { return nil }
func (unavailableRemote) Pause() error                     { return nil }
func (unavailableRemote) Seek(time.Duration) error         { return nil }
func (unavailableRemote) SetVolume(int) error              { return nil }
func (unavailableRemote) Position() (time.Duration, error) { return 0, nil }
func (unavailableRemote) Duration() (time.Duration, error) { return 0, nil }
func (unavailableRemote) Ended() <-chan struct{}           { return nil }
func (unavailableRemote) Stop() error                      { return nil }
func (unavailableRemote) Close() error                     { return nil }
