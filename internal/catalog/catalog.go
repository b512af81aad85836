// Package catalog finds playable tracks: search, trending charts and
// local files.
package catalog

import (
	"context"

	"github.com/llehouerou/drift/internal/playlist"
)

// Searcher resolves free text to ranked tracks. An empty result is not an
// error.
type Searcher interface {
	SearchTracks(ctx context.Context, query string) ([]playlist.Track, error)
}

// Trending lists currently popular music.
type Trending interface {
	FetchTrendingMusic(ctx context.Context) ([]playlist.Track, error)
}

// watchURL is the embed locator for a video id.
func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
