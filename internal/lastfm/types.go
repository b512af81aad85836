package lastfm

import "time"

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist    string
	Track     string
	Duration  time.Duration
	Timestamp time.Time // When playback started
}

// SimilarTrack represents a similar track from Last.fm.
type SimilarTrack struct {
	Artist     string
	Name       string
	MatchScore float64 // 0.0-1.0 similarity score
}
