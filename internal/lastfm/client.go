// Package lastfm talks to Last.fm: similar-track and tag lookups for
// suggestions, and now-playing/scrobble submissions.
package lastfm

import (
	"errors"
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"
)

// ErrNotAuthenticated is returned when an operation requires authentication.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client wraps the Last.fm API.
type Client struct {
	api        *lastfm.Api
	apiKey     string
	sessionKey string
}

// New creates a new Last.fm client with the given API credentials.
func New(apiKey, apiSecret string) *Client {
	return &Client{
		api:    lastfm.New(apiKey, apiSecret),
		apiKey: apiKey,
	}
}

// SetSessionKey sets the authenticated session key.
func (c *Client) SetSessionKey(key string) {
	c.sessionKey = key
	c.api.SetSession(key)
}

// IsAuthenticated returns true if a session key is set.
func (c *Client) IsAuthenticated() bool {
	return c.sessionKey != ""
}

// GetToken requests an authentication token from Last.fm.
func (c *Client) GetToken() (string, error) {
	token, err := c.api.GetToken()
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

// GetAuthURL returns the URL the user opens to authorize token. Last.fm
// redirects to callback afterwards when it is set.
func (c *Client) GetAuthURL(token, callback string) string {
	u := fmt.Sprintf("https://www.last.fm/api/auth/?api_key=%s&token=%s", c.apiKey, token)
	if callback != "" {
		u += "&cb=" + callback
	}
	return u
}

// GetSession exchanges an authorized token for a session key. The
// username is "unknown" when user.getInfo fails after a successful login.
func (c *Client) GetSession(token string) (username, sessionKey string, err error) {
	if err := c.api.LoginWithToken(token); err != nil {
		return "", "", fmt.Errorf("get session: %w", err)
	}
	c.sessionKey = c.api.GetSessionKey()

	info, err := c.api.User.GetInfo(nil)
	if err != nil {
		return "unknown", c.sessionKey, nil //nolint:nilerr // username is optional
	}
	return info.Name, c.sessionKey, nil
}

func scrobbleParams(track ScrobbleTrack) lastfm.P {
	params := lastfm.P{
		"artist": track.Artist,
		"track":  track.Track,
	}
	if track.Duration > 0 {
		params["duration"] = int(track.Duration.Seconds())
	}
	return params
}

// UpdateNowPlaying sends a "now playing" notification to Last.fm.
func (c *Client) UpdateNowPlaying(track ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if _, err := c.api.Track.UpdateNowPlaying(scrobbleParams(track)); err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}

// Scrobble submits a track play to Last.fm.
func (c *Client) Scrobble(track ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	params := scrobbleParams(track)
	params["timestamp"] = track.Timestamp.Unix()
	if _, err := c.api.Track.Scrobble(params); err != nil {
		return fmt.Errorf("scrobble: %w", err)
	}
	return nil
}

// GetSimilarTracks fetches tracks similar to artist/track, best match first.
func (c *Client) GetSimilarTracks(artist, track string, limit int) ([]SimilarTrack, error) {
	params := lastfm.P{
		"artist":      artist,
		"track":       track,
		"limit":       limit,
		"autocorrect": 1,
	}

	result, err := c.api.Track.GetSimilar(params)
	if err != nil {
		return nil, fmt.Errorf("get similar tracks: %w", err)
	}

	tracks := make([]SimilarTrack, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		score := 0.0
		if t.Match != "" {
			_, _ = fmt.Sscanf(t.Match, "%f", &score) //nolint:errcheck // parse failure means score stays 0
		}
		tracks = append(tracks, SimilarTrack{
			Artist:     t.Artist.Name,
			Name:       t.Name,
			MatchScore: score,
		})
	}
	return tracks, nil
}

// GetTagTopTracks fetches the most listened tracks for a tag such as
// "chill" or "workout".
func (c *Client) GetTagTopTracks(tag string, limit int) ([]SimilarTrack, error) {
	result, err := c.api.Tag.GetTopTracks(lastfm.P{"tag": tag, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("get tag top tracks: %w", err)
	}
	tracks := make([]SimilarTrack, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		tracks = append(tracks, SimilarTrack{Artist: t.Artist.Name, Name: t.Name})
	}
	return tracks, nil
}
