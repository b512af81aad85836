package suggest

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/llehouerou/drift/internal/lastfm"
)

// SimilarSource is the part of the Last.fm client used here.
type SimilarSource interface {
	GetSimilarTracks(artist, track string, limit int) ([]lastfm.SimilarTrack, error)
	GetTagTopTracks(tag string, limit int) ([]lastfm.SimilarTrack, error)
}

// similarLimit is how many similar tracks are requested per seed.
const similarLimit = 10

// Lastfm suggests from Last.fm's track.getSimilar.
type Lastfm struct {
	client SimilarSource
}

var _ Suggester = (*Lastfm)(nil)

// NewLastfm creates a provider on client.
func NewLastfm(client SimilarSource) *Lastfm {
	return &Lastfm{client: client}
}

func (l *Lastfm) similar(seed string) ([]string, error) {
	artist, title := SplitSeed(seed)
	if artist == "" || title == "" {
		return nil, fmt.Errorf("seed %q is not \"Artist - Title\"", seed)
	}
	tracks, err := l.client.GetSimilarTracks(artist, title, similarLimit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.Artist != "" && t.Name != "" {
			out = append(out, t.Artist+" - "+t.Name)
		}
	}
	return out, nil
}

// SuggestNext returns the best match similar to seed.
func (l *Lastfm) SuggestNext(_ context.Context, seed string) (string, error) {
	similar, err := l.similar(seed)
	if err != nil {
		return "", err
	}
	if len(similar) == 0 {
		return "", ErrEmpty
	}
	return similar[0], nil
}

// SuggestMany interleaves similar tracks of the most recent seeds,
// skipping songs already in seeds.
func (l *Lastfm) SuggestMany(ctx context.Context, seeds []string) ([]string, error) {
	seeds = seeds[:min(historyWindow, len(seeds))]
	var lists [][]string
	var firstErr error
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		similar, err := l.similar(seed)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		lists = append(lists, similar)
	}
	if len(lists) == 0 {
		return nil, firstErr
	}

	var out []string
	for i := 0; len(out) < ManyLimit; i++ {
		progressed := false
		for _, list := range lists {
			if i >= len(list) {
				continue
			}
			progressed = true
			s := list[i]
			if len(out) < ManyLimit && !slices.Contains(out, s) && !slices.Contains(seeds, s) {
				out = append(out, s)
			}
		}
		if !progressed {
			break
		}
	}
	return out, nil
}

// SuggestMood treats mood as a Last.fm tag and returns its top tracks.
func (l *Lastfm) SuggestMood(_ context.Context, mood string) ([]string, error) {
	tag := strings.ToLower(strings.TrimSpace(mood))
	if tag == "" {
		return nil, nil
	}
	tracks, err := l.client.GetTagTopTracks(tag, ManyLimit)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range tracks {
		if t.Artist == "" || t.Name == "" {
			continue
		}
		if s := t.Artist + " - " + t.Name; !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out[:min(ManyLimit, len(out))], nil
}
