package lastfm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/playback"
	"github.com/llehouerou/drift/internal/playlist"
)

const (
	// minScrobbleDuration is the shortest track Last.fm accepts.
	minScrobbleDuration = 30 * time.Second
	// maxScrobbleWait caps the listening time needed to scrobble.
	maxScrobbleWait = 4 * time.Minute
)

// Submitter is the part of Client the scrobbler uses.
type Submitter interface {
	UpdateNowPlaying(track ScrobbleTrack) error
	Scrobble(track ScrobbleTrack) error
}

// Scrobbler reports playback to Last.fm: now playing on every track start,
// and a scrobble once a track was listened to for half its length or four
// minutes, whichever comes first.
type Scrobbler struct {
	api    Submitter
	logger zerolog.Logger

	current   *playlist.Track
	startedAt time.Time
	listened  time.Duration
	lastPos   time.Duration
	duration  time.Duration
	scrobbled bool
}

// NewScrobbler creates a scrobbler submitting through api.
func NewScrobbler(api Submitter, logger zerolog.Logger) *Scrobbler {
	return &Scrobbler{api: api, logger: logger}
}

// Run consumes sub until ctx is cancelled or the subscription closes.
func (s *Scrobbler) Run(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			s.trackChanged(e.Current)
		case e := <-sub.PositionChanged:
			s.positionChanged(e.Position, e.Duration)
		case e := <-sub.StateChanged:
			if e.Current == playback.StateEnded {
				s.maybeScrobble()
			}
		}
	}
}

func (s *Scrobbler) trackChanged(track *playlist.Track) {
	s.maybeScrobble()
	s.current = track
	s.listened = 0
	s.lastPos = 0
	s.scrobbled = false
	if track == nil {
		return
	}
	s.duration = track.Duration
	s.startedAt = time.Now()
	if err := s.api.UpdateNowPlaying(s.scrobbleTrack()); err != nil {
		s.logger.Debug().Err(err).Msg("last.fm now playing failed")
	}
}

// positionChanged accumulates listening time; jumps from seeking are not
// counted.
func (s *Scrobbler) positionChanged(position, duration time.Duration) {
	if s.current == nil {
		return
	}
	if duration > 0 {
		s.duration = duration
	}
	if delta := position - s.lastPos; delta > 0 && delta <= 2*time.Second {
		s.listened += delta
	}
	s.lastPos = position
}

func (s *Scrobbler) maybeScrobble() {
	if s.current == nil || s.scrobbled || s.duration < minScrobbleDuration {
		return
	}
	if s.listened < min(s.duration/2, maxScrobbleWait) {
		return
	}
	s.scrobbled = true
	if err := s.api.Scrobble(s.scrobbleTrack()); err != nil {
		s.logger.Warn().Err(err).Str("track", s.current.Seed()).Msg("last.fm scrobble failed")
	}
}

func (s *Scrobbler) scrobbleTrack() ScrobbleTrack {
	return ScrobbleTrack{
		Artist:    s.current.Artist,
		Track:     s.current.Title,
		Duration:  s.duration,
		Timestamp: s.startedAt,
	}
}
