// Package lrclib is a client for the lrclib.net lyrics API.
package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned when lrclib has no entry for the track.
var ErrNotFound = errors.New("lyrics not found")

const (
	defaultBaseURL = "https://lrclib.net/api"
	userAgent      = "drift/1.0 (https://github.com/llehouerou/drift)"
)

// Client is an lrclib.net API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client. An empty baseURL uses lrclib.net.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// Result is one lrclib entry.
type Result struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Get looks up lyrics by artist and title. A known duration narrows the
// match to the right recording.
func (c *Client) Get(ctx context.Context, artist, title string, duration time.Duration) (*Result, error) {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)
	if duration > 0 {
		params.Set("duration", strconv.Itoa(int(duration.Round(time.Second).Seconds())))
	}

	var result Result
	if err := c.get(ctx, "/get", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search returns entries matching free text, best first.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	var results []Result
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// HasSynced reports whether the entry carries timestamped lyrics.
func (r *Result) HasSynced() bool {
	return r.SyncedLyrics != ""
}

// HasPlain reports whether the entry carries plain lyrics.
func (r *Result) HasPlain() bool {
	return r.PlainLyrics != ""
}
