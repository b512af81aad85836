package playback

import (
	"time"

	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
)

// StateChange is emitted when the transport state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when the current track changes, including to nil
// when autoplay finds nothing after the last track ended.
type TrackChange struct {
	Previous *playlist.Track
	Current  *playlist.Track
	Backend  player.Kind
}

// PositionChange is emitted on backend time updates and seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// VolumeChange is emitted when the volume level changes.
type VolumeChange struct {
	Volume int
}

// ErrorEvent is emitted when an operation fails. Playback errors never
// stop the service; the state reflects what is actually playing.
type ErrorEvent struct {
	Op    errmsg.Op
	Track *playlist.Track
	Err   error
}

// Message formats the error for display.
func (e ErrorEvent) Message() string {
	if e.Track != nil {
		return errmsg.FormatWith(e.Op, e.Track.Seed(), e.Err)
	}
	return errmsg.Format(e.Op, e.Err)
}
