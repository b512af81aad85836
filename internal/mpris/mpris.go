//go:build linux

// Package mpris exposes the playback service on the session bus as an
// MPRIS2 media player.
package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/drift/internal/playback"
)

// Adapter connects a playback.Service to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter.
func New(service playback.Service) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("drift", &rootAdapter{}, &playerAdapter{service: service}),
	}

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }

func (r *rootAdapter) Quit() error { return nil }

func (r *rootAdapter) CanQuit() (bool, error) { return false, nil }

func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return "Drift", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	service playback.Service
}

func (p *playerAdapter) Next() error {
	return p.service.PlayNext(context.Background())
}

func (p *playerAdapter) Previous() error {
	return p.service.PlayPrev(context.Background())
}

func (p *playerAdapter) Pause() error {
	if p.service.IsPlaying() {
		return p.service.TogglePlay()
	}
	return nil
}

func (p *playerAdapter) PlayPause() error {
	return p.service.TogglePlay()
}

// Stop pauses: the transport has no stopped state with a current track.
func (p *playerAdapter) Stop() error {
	return p.Pause()
}

func (p *playerAdapter) Play() error {
	switch p.service.State() {
	case playback.StatePaused:
		return p.service.TogglePlay()
	case playback.StateIdle:
		if !p.service.Queue().IsEmpty() {
			return p.service.PlayNext(context.Background())
		}
	}
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.service.SeekTo(p.service.Position() + time.Duration(offset)*time.Microsecond)
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.service.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.service.State()), nil
}

func (p *playerAdapter) Rate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.service.Snapshot()
	if snap.Track == nil {
		return types.Metadata{}, nil
	}
	track := snap.Track

	return types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(string(track.ID))),
		Length:  types.Microseconds(snap.Duration.Microseconds()),
		Title:   track.Title,
		Artist:  []string{track.Artist},
		ArtUrl:  artURL(*track),
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return float64(p.service.Volume()) / 100, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.service.SetVolume(int(v*100 + 0.5))
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

// CanGoNext holds whenever a track is current, since an empty queue
// falls back to autoplay.
func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.service.CurrentTrack() != nil || !p.service.Queue().IsEmpty(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.service.CurrentTrack() != nil, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.service.CurrentTrack() != nil || !p.service.Queue().IsEmpty(), nil
}

func (p *playerAdapter) CanPause() (bool, error) { return true, nil }

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.service.State().IsActive(), nil
}

func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

func playbackStatus(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying, playback.StateLoading:
		return types.PlaybackStatusPlaying
	case playback.StatePaused, playback.StateEnded:
		return types.PlaybackStatusPaused
	case playback.StateIdle:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
