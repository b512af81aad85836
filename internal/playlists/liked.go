package playlists

import "github.com/llehouerou/drift/internal/playlist"

// ToggleLike adds track to liked songs, or removes it if already liked.
// Newly liked tracks go first. Returns the new status.
func (l *Library) ToggleLike(track playlist.Track) bool {
	l.mu.Lock()
	liked := false
	if i := playlist.IndexOf(l.liked, track.ID); i >= 0 {
		l.liked = append(l.liked[:i:i], l.liked[i+1:]...)
	} else {
		l.liked = append([]playlist.Track{track}, l.liked...)
		liked = true
	}
	hook := l.onLiked
	snapshot := append([]playlist.Track(nil), l.liked...)
	l.mu.Unlock()

	if hook != nil {
		hook(snapshot)
	}
	return liked
}

// IsLiked reports whether a track is in liked songs.
func (l *Library) IsLiked(id playlist.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return playlist.IndexOf(l.liked, id) >= 0
}

// Liked returns a copy of liked songs, most recently liked first.
func (l *Library) Liked() []playlist.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]playlist.Track(nil), l.liked...)
}

// ReplaceLiked installs a snapshot from the store. The hook is not called.
func (l *Library) ReplaceLiked(tracks []playlist.Track) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.liked = append([]playlist.Track(nil), tracks...)
}
