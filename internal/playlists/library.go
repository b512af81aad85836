// Package playlists holds the user's library: playlists and liked songs.
// Every mutation hands the whole new collection to a change hook so it can
// be written through to the store.
package playlists

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/llehouerou/drift/internal/playlist"
)

// ErrNotFound is returned for an unknown playlist id.
var ErrNotFound = errors.New("playlist not found")

// Library is safe for concurrent use. Hooks run outside the lock.
type Library struct {
	mu        sync.Mutex
	playlists []playlist.Playlist
	liked     []playlist.Track

	onPlaylists func([]playlist.Playlist)
	onLiked     func([]playlist.Track)
}

// New creates an empty library.
func New() *Library {
	return &Library{}
}

// OnPlaylistsChange registers the playlists mutation hook.
func (l *Library) OnPlaylistsChange(fn func([]playlist.Playlist)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onPlaylists = fn
}

// OnLikedChange registers the liked songs mutation hook.
func (l *Library) OnLikedChange(fn func([]playlist.Track)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLiked = fn
}

// Playlists returns a copy of all playlists.
func (l *Library) Playlists() []playlist.Playlist {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clonePlaylists(l.playlists)
}

// Get returns a copy of the playlist with id.
func (l *Library) Get(id playlist.ID) (playlist.Playlist, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.playlists[i].Clone(), true
	}
	return playlist.Playlist{}, false
}

// Create appends a new empty playlist.
func (l *Library) Create(name string) playlist.Playlist {
	p := playlist.Playlist{
		ID:     playlist.ID(uuid.NewString()),
		Name:   name,
		Tracks: []playlist.Track{},
	}
	l.mutatePlaylists(func() error {
		l.playlists = append(l.playlists, p)
		return nil
	})
	return p.Clone()
}

// Delete removes a playlist. Unknown ids are a no-op.
func (l *Library) Delete(id playlist.ID) {
	_ = l.mutatePlaylists(func() error {
		i := l.indexLocked(id)
		if i < 0 {
			return ErrNotFound
		}
		l.playlists = append(l.playlists[:i:i], l.playlists[i+1:]...)
		return nil
	})
}

// AddTrack appends track to a playlist unless its identity is already
// there. Returns whether it was added.
func (l *Library) AddTrack(id playlist.ID, track playlist.Track) (bool, error) {
	added := false
	err := l.update(id, func(p *playlist.Playlist) bool {
		added = p.Add(track) > 0
		return added
	})
	return added, err
}

// RemoveTrack removes a track from a playlist.
func (l *Library) RemoveTrack(id, trackID playlist.ID) error {
	return l.update(id, func(p *playlist.Playlist) bool {
		return p.Remove(trackID)
	})
}

// Rename sets a playlist's name.
func (l *Library) Rename(id playlist.ID, name string) error {
	return l.update(id, func(p *playlist.Playlist) bool {
		p.Name = name
		return true
	})
}

// SetDescription sets a playlist's description.
func (l *Library) SetDescription(id playlist.ID, description string) error {
	return l.update(id, func(p *playlist.Playlist) bool {
		p.Description = description
		return true
	})
}

// SetCover overrides a playlist's cover.
func (l *Library) SetCover(id playlist.ID, cover string) error {
	return l.update(id, func(p *playlist.Playlist) bool {
		p.Cover = cover
		return true
	})
}

// ReplacePlaylists installs a snapshot from the store. The hook is not
// called.
func (l *Library) ReplacePlaylists(playlists []playlist.Playlist) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playlists = clonePlaylists(playlists)
}

// update applies fn to one playlist; the hook fires only if fn reports a
// change.
func (l *Library) update(id playlist.ID, fn func(*playlist.Playlist) bool) error {
	return l.mutatePlaylists(func() error {
		i := l.indexLocked(id)
		if i < 0 {
			return ErrNotFound
		}
		p := l.playlists[i].Clone()
		if !fn(&p) {
			return errUnchanged
		}
		l.playlists[i] = p
		return nil
	})
}

var errUnchanged = errors.New("unchanged")

func (l *Library) mutatePlaylists(fn func() error) error {
	l.mu.Lock()
	err := fn()
	hook := l.onPlaylists
	var snapshot []playlist.Playlist
	if err == nil && hook != nil {
		snapshot = clonePlaylists(l.playlists)
	}
	l.mu.Unlock()

	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if hook != nil {
		hook(snapshot)
	}
	return nil
}

func (l *Library) indexLocked(id playlist.ID) int {
	for i := range l.playlists {
		if l.playlists[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePlaylists(in []playlist.Playlist) []playlist.Playlist {
	if in == nil {
		return nil
	}
	out := make([]playlist.Playlist, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
