package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raitonoberu/ytmusic"

	"github.com/llehouerou/drift/internal/playlist"
)

// YTMusic searches YouTube Music without an API key.
type YTMusic struct {
	search func(query string) ([]*ytmusic.TrackItem, error)
}

var _ Searcher = (*YTMusic)(nil)

// NewYTMusic creates a YouTube Music searcher.
func NewYTMusic() *YTMusic {
	return &YTMusic{search: func(query string) ([]*ytmusic.TrackItem, error) {
		r, err := ytmusic.TrackSearch(query).Next()
		if err != nil {
			return nil, err
		}
		return r.Tracks, nil
	}}
}

// SearchTracks returns song results, best match first. The underlying
// client is not cancellable; a cancelled ctx abandons the request.
func (m *YTMusic) SearchTracks(ctx context.Context, query string) ([]playlist.Track, error) {
	type result struct {
		items []*ytmusic.TrackItem
		err   error
	}
	done := make(chan result, 1)
	go func() {
		items, err := m.search(query)
		done <- result{items, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, fmt.Errorf("ytmusic search %q: %w", query, r.err)
	}

	tracks := make([]playlist.Track, 0, len(r.items))
	for _, v := range r.items {
		if v == nil || v.VideoID == "" {
			continue
		}
		artists := make([]string, 0, len(v.Artists))
		for _, a := range v.Artists {
			artists = append(artists, a.Name)
		}
		var cover string
		if n := len(v.Thumbnails); n > 0 {
			cover = v.Thumbnails[n-1].URL
		}
		tracks = append(tracks, playlist.Track{
			ID:       playlist.ID(v.VideoID),
			Title:    v.Title,
			Artist:   strings.Join(artists, ", "),
			Source:   watchURL(v.VideoID),
			Cover:    cover,
			Duration: time.Duration(v.Duration) * time.Second,
		})
	}
	return tracks, nil
}
