package engine

import (
	"context"
	"fmt"

	"github.com/llehouerou/drift/internal/config"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/lastfm"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/state"
)

// startSync pulls the user document, then writes every local mutation
// through and applies snapshots from other sessions.
func (e *Engine) startSync(ctx context.Context, cfg *config.Config, queue *playlist.Queue, history *playlist.History) error {
	e.sync = state.NewSync(e.store, cfg.GetUserID(),
		e.logger.With().Str("component", "sync").Logger())

	doc, err := e.sync.Pull(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", errmsg.OpStoreLoad, err)
	}
	apply := func(doc state.Document) {
		e.applyDocument(doc, queue, history)
	}
	apply(doc)

	queue.OnChange(func(tracks []playlist.Track) {
		e.sync.Push(state.FieldQueue, tracks)
	})
	history.OnChange(func(tracks []playlist.Track) {
		e.sync.Push(state.FieldHistory, tracks)
	})
	e.Library.OnPlaylistsChange(func(pls []playlist.Playlist) {
		e.sync.Push(state.FieldPlaylists, pls)
	})
	e.Library.OnLikedChange(func(tracks []playlist.Track) {
		e.sync.Push(state.FieldLiked, tracks)
	})

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.sync.Run(e.ctx, apply); err != nil {
			e.logger.Error().Err(err).Msg(errmsg.Format(errmsg.OpStoreWatch, err))
		}
	}()
	return nil
}

// applyDocument replaces local collections with the snapshot's. A nil
// field was never written and leaves the local collection alone.
func (e *Engine) applyDocument(doc state.Document, queue *playlist.Queue, history *playlist.History) {
	if doc.Queue != nil {
		queue.Replace(doc.Queue)
	}
	if doc.History != nil {
		history.Replace(doc.History)
	}
	if doc.Playlists != nil {
		e.Library.ReplacePlaylists(doc.Playlists)
	}
	if doc.LikedSongs != nil {
		e.Library.ReplaceLiked(doc.LikedSongs)
	}
}

func (e *Engine) startScrobbler() {
	if e.Lastfm == nil || !e.Lastfm.IsAuthenticated() {
		return
	}
	scrobbler := lastfm.NewScrobbler(e.Lastfm, e.logger.With().Str("component", "scrobbler").Logger())
	sub := e.Playback.Subscribe()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		scrobbler.Run(e.ctx, sub)
	}()
}
