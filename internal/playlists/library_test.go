package playlists

import (
	"errors"
	"testing"

	"github.com/llehouerou/drift/internal/playlist"
)

func track(id string) playlist.Track {
	return playlist.Track{ID: playlist.ID(id), Title: "T" + id, Artist: "A"}
}

type recorder struct {
	playlists [][]playlist.Playlist
	liked     [][]playlist.Track
}

func newRecorded() (*Library, *recorder) {
	l := New()
	r := &recorder{}
	l.OnPlaylistsChange(func(p []playlist.Playlist) { r.playlists = append(r.playlists, p) })
	l.OnLikedChange(func(t []playlist.Track) { r.liked = append(r.liked, t) })
	return l, r
}

func TestLibrary_Create(t *testing.T) {
	l, r := newRecorded()

	a := l.Create("Road trip")
	b := l.Create("Focus")

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q; want distinct non-empty", a.ID, b.ID)
	}
	if got := l.Playlists(); len(got) != 2 || got[0].Name != "Road trip" || got[1].Name != "Focus" {
		t.Errorf("Playlists() = %+v", got)
	}
	if len(r.playlists) != 2 || len(r.playlists[1]) != 2 {
		t.Errorf("hook calls = %d, want 2 with full snapshots", len(r.playlists))
	}
}

func TestLibrary_Delete(t *testing.T) {
	l, r := newRecorded()
	a := l.Create("a")
	l.Create("b")

	l.Delete(a.ID)
	l.Delete("unknown")

	if got := l.Playlists(); len(got) != 1 || got[0].Name != "b" {
		t.Errorf("Playlists() = %+v", got)
	}
	if len(r.playlists) != 3 {
		t.Errorf("hook calls = %d, want 3 (unknown id is a no-op)", len(r.playlists))
	}
}

func TestLibrary_AddTrack_Unique(t *testing.T) {
	l, r := newRecorded()
	p := l.Create("p")

	added, err := l.AddTrack(p.ID, track("1"))
	if err != nil || !added {
		t.Fatalf("AddTrack() = %v, %v", added, err)
	}
	added, err = l.AddTrack(p.ID, track("1"))
	if err != nil || added {
		t.Errorf("duplicate AddTrack() = %v, %v; want false, nil", added, err)
	}
	got, _ := l.Get(p.ID)
	if got.Len() != 1 {
		t.Errorf("Len() = %d, want 1", got.Len())
	}
	if len(r.playlists) != 2 {
		t.Errorf("hook calls = %d, want 2 (duplicate add does not push)", len(r.playlists))
	}

	if _, err := l.AddTrack("missing", track("2")); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddTrack(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLibrary_EditPlaylist(t *testing.T) {
	l, _ := newRecorded()
	p := l.Create("old")
	_, _ = l.AddTrack(p.ID, track("1"))
	_, _ = l.AddTrack(p.ID, track("2"))

	if err := l.Rename(p.ID, "new"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetDescription(p.ID, "desc"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetCover(p.ID, "http://img"); err != nil {
		t.Fatal(err)
	}
	if err := l.RemoveTrack(p.ID, "1"); err != nil {
		t.Fatal(err)
	}

	got, ok := l.Get(p.ID)
	if !ok {
		t.Fatal("Get() not found")
	}
	if got.Name != "new" || got.Description != "desc" || got.Cover != "http://img" {
		t.Errorf("playlist = %+v", got)
	}
	if got.Len() != 1 || got.Tracks[0].ID != "2" {
		t.Errorf("Tracks = %+v, want [2]", got.Tracks)
	}
	if err := l.Rename("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLibrary_SnapshotsAreCopies(t *testing.T) {
	l, r := newRecorded()
	p := l.Create("p")
	_, _ = l.AddTrack(p.ID, track("1"))

	r.playlists[1][0].Tracks[0].Title = "mutated"
	got, _ := l.Get(p.ID)
	if got.Tracks[0].Title != "T1" {
		t.Error("hook snapshot should not alias library state")
	}
}

func TestLibrary_ToggleLike(t *testing.T) {
	l, r := newRecorded()

	if !l.ToggleLike(track("1")) || !l.ToggleLike(track("2")) {
		t.Fatal("ToggleLike() should report liked")
	}
	if !l.IsLiked("1") {
		t.Error("IsLiked(1) = false")
	}
	if got := l.Liked(); len(got) != 2 || got[0].ID != "2" {
		t.Errorf("Liked() = %v, want most recent first", got)
	}

	if l.ToggleLike(track("1")) {
		t.Error("second ToggleLike() should unlike")
	}
	if l.IsLiked("1") {
		t.Error("IsLiked(1) = true after unlike")
	}
	if len(r.liked) != 3 || len(r.liked[2]) != 1 {
		t.Errorf("liked hook calls = %d", len(r.liked))
	}
}

func TestLibrary_Replace(t *testing.T) {
	l, r := newRecorded()

	l.ReplacePlaylists([]playlist.Playlist{{ID: "p", Name: "remote"}})
	l.ReplaceLiked([]playlist.Track{track("9")})

	if got := l.Playlists(); len(got) != 1 || got[0].Name != "remote" {
		t.Errorf("Playlists() = %+v", got)
	}
	if !l.IsLiked("9") {
		t.Error("IsLiked(9) = false after ReplaceLiked")
	}
	if len(r.playlists) != 0 || len(r.liked) != 0 {
		t.Error("Replace* should not call hooks")
	}
}
