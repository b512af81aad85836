//go:build !linux

package mpris

import "github.com/llehouerou/drift/internal/playback"

// Adapter does nothing off Linux; there is no session bus to publish on.
type Adapter struct{}

func New(playback.Service) (*Adapter, error) { return &Adapter{}, nil }

func (*Adapter) Close() error { return nil }
