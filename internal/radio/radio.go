// Package radio resolves a follow-up track when the queue runs dry: an AI
// suggestion seeded with the current track, resolved through search.
package radio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/playback"
	"github.com/llehouerou/drift/internal/playlist"
)

var (
	// ErrNoSuggestion is returned when the suggester has nothing to offer.
	ErrNoSuggestion = errors.New("no suggestion")
	// ErrNoCandidate is returned when search yields no usable track.
	ErrNoCandidate = errors.New("no candidate track")
)

// Suggester proposes one "Artist - Title" to play after seed.
type Suggester interface {
	SuggestNext(ctx context.Context, seed string) (string, error)
}

// Searcher resolves free text to ranked tracks.
type Searcher interface {
	SearchTracks(ctx context.Context, query string) ([]playlist.Track, error)
}

// Resolver implements playback.Resolver.
type Resolver struct {
	suggester Suggester
	searcher  Searcher
	cache     *Cache
	logger    zerolog.Logger
}

var _ playback.Resolver = (*Resolver)(nil)

// New creates a resolver. cache may be nil.
func New(suggester Suggester, searcher Searcher, cache *Cache, logger zerolog.Logger) *Resolver {
	return &Resolver{
		suggester: suggester,
		searcher:  searcher,
		cache:     cache,
		logger:    logger,
	}
}

// Resolve picks the track to play after current. Every failure collapses
// to "nothing found".
func (r *Resolver) Resolve(ctx context.Context, current playlist.Track) (playlist.Track, bool) {
	track, err := r.Next(ctx, current)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Info().Err(err).Str("seed", current.Seed()).Msg("autoplay found nothing")
		}
		return playlist.Track{}, false
	}
	return track, true
}

// Next is Resolve with the failure reason.
func (r *Resolver) Next(ctx context.Context, current playlist.Track) (playlist.Track, error) {
	seed := current.Seed()
	suggestion, err := r.suggester.SuggestNext(ctx, seed)
	if err != nil {
		return playlist.Track{}, fmt.Errorf("%s: %w", errmsg.OpAutoplaySuggest, err)
	}
	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		return playlist.Track{}, ErrNoSuggestion
	}
	r.logger.Debug().Str("seed", seed).Str("suggestion", suggestion).Msg("suggested")

	candidates, err := r.candidates(ctx, suggestion)
	if err != nil {
		return playlist.Track{}, fmt.Errorf("%s %q: %w", errmsg.OpAutoplaySearch, suggestion, err)
	}
	return Pick(candidates, current)
}

func (r *Resolver) candidates(ctx context.Context, query string) ([]playlist.Track, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(query)
		if err != nil {
			r.logger.Debug().Err(err).Msg("search cache read failed")
		}
		if len(cached) > 0 {
			return cached, nil
		}
	}

	found, err := r.searcher.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}
	if r.cache != nil && len(found) > 0 {
		if err := r.cache.Set(query, found); err != nil {
			r.logger.Debug().Err(err).Msg("search cache write failed")
		}
	}
	return found, nil
}

// Pick returns the first of the top two candidates that is not current and
// has a source.
func Pick(candidates []playlist.Track, current playlist.Track) (playlist.Track, error) {
	for _, c := range candidates[:min(2, len(candidates))] {
		if c.Source != "" && !c.Is(current) {
			return c, nil
		}
	}
	return playlist.Track{}, ErrNoCandidate
}
