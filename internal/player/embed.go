package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/llehouerou/drift/internal/playlist"
)

// PollInterval is how often the embed backend asks the remote player for
// its position.
const PollInterval = time.Second

// Remote is the narrow control surface of an opaque remote player.
type Remote interface {
	Load(ctx context.Context, videoID string) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
	SetVolume(level int) error
	Position() (time.Duration, error)
	Duration() (time.Duration, error)
	// Ended signals end of the loaded media. It is never closed.
	Ended() <-chan struct{}
	Stop() error
	Close() error
}

// EmbedBackend plays streaming video identifiers through a Remote.
// It has no native time notifications: Watch polls once per PollInterval.
type EmbedBackend struct {
	mu     sync.Mutex
	remote Remote
	loaded bool
	volume int
}

// NewEmbed creates an embed backend driving remote.
func NewEmbed(remote Remote) *EmbedBackend {
	return &EmbedBackend{remote: remote, volume: 100}
}

func (b *EmbedBackend) Kind() Kind { return KindEmbed }

func (b *EmbedBackend) Load(ctx context.Context, track playlist.Track) error {
	id, ok := VideoID(track.Source)
	if !ok {
		return fmt.Errorf("%w: %q is not a video id", ErrUnsupportedSource, track.Source)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded {
		_ = b.remote.Stop()
		b.loaded = false
	}
	drain(b.remote.Ended())

	if err := b.remote.Load(ctx, id); err != nil {
		return fmt.Errorf("load %s: %w", id, err)
	}
	b.loaded = true
	_ = b.remote.SetVolume(b.volume)
	return nil
}

func (b *EmbedBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return nil
	}
	if err := b.remote.Play(); err != nil {
		return errors.Join(ErrPlaybackRefused, err)
	}
	return nil
}

func (b *EmbedBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		_ = b.remote.Pause()
	}
}

func (b *EmbedBackend) Seek(position time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		_ = b.remote.Seek(max(position, 0))
	}
}

func (b *EmbedBackend) SetVolume(level int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = clampLevel(level)
	if b.loaded {
		_ = b.remote.SetVolume(b.volume)
	}
}

func (b *EmbedBackend) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return 0
	}
	pos, err := b.remote.Position()
	if err != nil {
		return 0
	}
	return pos
}

func (b *EmbedBackend) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return 0
	}
	d, err := b.remote.Duration()
	if err != nil {
		return 0
	}
	return d
}

// Watch polls position and duration every PollInterval and forwards the
// remote's end signal.
func (b *EmbedBackend) Watch(l Listener) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if l.OnTime != nil {
					l.OnTime(b.Position(), b.Duration())
				}
			case <-b.remote.Ended():
				if l.OnEnded != nil {
					l.OnEnded()
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

func (b *EmbedBackend) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		_ = b.remote.Stop()
		b.loaded = false
	}
	drain(b.remote.Ended())
}

func (b *EmbedBackend) Close() error {
	b.Teardown()
	return b.remote.Close()
}

// drain empties a signal channel without blocking.
func drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

var _ Backend = (*EmbedBackend)(nil)
