package playback

import (
	"context"
	"time"

	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
)

// Resolver picks a track to play after current when the queue is empty.
// It reports false when nothing suitable was found; failures are not
// errors at this boundary.
type Resolver interface {
	Resolve(ctx context.Context, current playlist.Track) (playlist.Track, bool)
}

// Snapshot is a consistent view of the transport.
type Snapshot struct {
	State    State
	Track    *playlist.Track
	Backend  player.Kind
	Position time.Duration
	Duration time.Duration
	Volume   int
}

// Service defines the playback service contract.
type Service interface {
	// Transport
	PlayTrack(ctx context.Context, track playlist.Track) error
	TogglePlay() error
	SeekTo(position time.Duration) error
	SetVolume(level int)
	PlayNext(ctx context.Context) error
	PlayPrev(ctx context.Context) error

	// State queries
	State() State
	IsPlaying() bool
	Position() time.Duration
	Duration() time.Duration
	Volume() int
	CurrentTrack() *playlist.Track
	ActiveBackend() player.Kind
	Snapshot() Snapshot

	// Frequency returns the latest analysis frame, or nil unless the
	// direct backend is active and playing.
	Frequency() []uint8

	// Queue and history
	Queue() *playlist.Queue
	History() *playlist.History

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
