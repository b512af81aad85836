package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/playlists"
)

func libraryWith(t *testing.T, names ...string) (*playlists.Library, []playlist.Playlist) {
	t.Helper()
	lib := playlists.New()
	var created []playlist.Playlist
	for _, name := range names {
		created = append(created, lib.Create(name))
	}
	return lib, created
}

func TestFindPlaylist(t *testing.T) {
	lib, created := libraryWith(t, "Focus", "Road Trip", "road trip")

	tests := []struct {
		name    string
		ref     string
		wantID  playlist.ID
		wantErr error
	}{
		{"by id", string(created[1].ID), created[1].ID, nil},
		{"by name", "focus", created[0].ID, nil},
		{"ambiguous name", "ROAD TRIP", "", errAmbiguous},
		{"unknown", "Gym", "", playlists.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findPlaylist(lib, tt.ref)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("findPlaylist(%q) error = %v, want %v", tt.ref, err, tt.wantErr)
			}
			if got.ID != tt.wantID {
				t.Errorf("findPlaylist(%q) = %s, want %s", tt.ref, got.ID, tt.wantID)
			}
		})
	}
}

func TestCreatePlaylist(t *testing.T) {
	lib := playlists.New()
	var pushed int
	lib.OnPlaylistsChange(func([]playlist.Playlist) { pushed++ })

	p, err := createPlaylist(lib, "  Late night ", "slow and quiet")
	if err != nil {
		t.Fatalf("createPlaylist() error = %v", err)
	}
	if p.Name != "Late night" || p.Description != "slow and quiet" {
		t.Errorf("createPlaylist() = %+v", p)
	}
	stored, ok := lib.Get(p.ID)
	if !ok || stored.Description != "slow and quiet" {
		t.Errorf("stored playlist = %+v, %v", stored, ok)
	}
	if pushed != 2 {
		t.Errorf("hook calls = %d, want 2", pushed)
	}
	if _, err := createPlaylist(lib, " ", ""); err == nil {
		t.Error("createPlaylist() should reject an empty name")
	}
}

func TestRenamePlaylist(t *testing.T) {
	lib, created := libraryWith(t, "Focus")
	if err := renamePlaylist(lib, "focus", "Deep Focus"); err != nil {
		t.Fatalf("renamePlaylist() error = %v", err)
	}
	if p, _ := lib.Get(created[0].ID); p.Name != "Deep Focus" {
		t.Errorf("Name = %q, want Deep Focus", p.Name)
	}
	if err := renamePlaylist(lib, "Deep Focus", ""); err == nil {
		t.Error("renamePlaylist() should reject an empty name")
	}
}

func TestAddToPlaylist(t *testing.T) {
	lib, created := libraryWith(t, "Mix")
	tracks := []playlist.Track{
		{ID: "a", Title: "One"},
		{ID: "b", Title: "Two"},
		{ID: "a", Title: "One again"},
	}

	p, added, err := addToPlaylist(lib, "Mix", tracks)
	if err != nil {
		t.Fatalf("addToPlaylist() error = %v", err)
	}
	if p.ID != created[0].ID || added != 2 {
		t.Errorf("addToPlaylist() = %s, %d; want %s, 2", p.ID, added, created[0].ID)
	}
	if _, added, _ := addToPlaylist(lib, "Mix", tracks[:1]); added != 0 {
		t.Errorf("re-adding = %d, want 0", added)
	}
	if _, _, err := addToPlaylist(lib, "Other", tracks); !errors.Is(err, playlists.ErrNotFound) {
		t.Errorf("addToPlaylist(unknown) error = %v", err)
	}
}

func TestRemoveFromPlaylist(t *testing.T) {
	lib, created := libraryWith(t, "Mix")
	_, _, err := addToPlaylist(lib, "Mix", []playlist.Track{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := removeFromPlaylist(lib, "Mix", "2")
	if err != nil || got.ID != "b" {
		t.Fatalf("removeFromPlaylist(2) = %s, %v; want b", got.ID, err)
	}
	got, err = removeFromPlaylist(lib, "Mix", "c")
	if err != nil || got.ID != "c" {
		t.Fatalf("removeFromPlaylist(c) = %s, %v; want c", got.ID, err)
	}
	if p, _ := lib.Get(created[0].ID); len(p.Tracks) != 1 || p.Tracks[0].ID != "a" {
		t.Errorf("remaining = %v, want [a]", p.Tracks)
	}
	for _, which := range []string{"0", "5", "zzz"} {
		if _, err := removeFromPlaylist(lib, "Mix", which); err == nil {
			t.Errorf("removeFromPlaylist(%q) should fail", which)
		}
	}
}

func TestGenerateCoverWithoutPrompter(t *testing.T) {
	pl := playlist.Playlist{Name: "Mix", Tracks: []playlist.Track{{ID: "a", Artist: "A", Title: "1"}}}
	got := generateCover(t.Context(), nil, pl)
	if !strings.HasPrefix(got, "https://image.pollinations.ai/prompt/") {
		t.Errorf("generateCover() = %q", got)
	}
}

func TestPrintPlaylists(t *testing.T) {
	var buf bytes.Buffer
	pls := []playlist.Playlist{{ID: "p1", Name: "Mix", Description: "late", Tracks: []playlist.Track{{ID: "a"}}}}
	if err := printPlaylists(&buf, pls, false); err != nil {
		t.Fatalf("printPlaylists() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("printPlaylists() =\n%s", buf.String())
	}
	if fields := strings.Fields(lines[1]); len(fields) != 4 || fields[0] != "p1" || fields[2] != "1" {
		t.Errorf("row = %q", lines[1])
	}

	buf.Reset()
	if err := printPlaylists(&buf, nil, true); err != nil {
		t.Fatalf("printPlaylists() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("JSON = %q, want []", buf.String())
	}
}

func TestEnqueueNext(t *testing.T) {
	q := playlist.NewQueue()
	enqueue(q, []playlist.Track{{ID: "c"}}, false)
	enqueue(q, []playlist.Track{{ID: "a"}, {ID: "b"}}, true)

	got := q.Tracks()
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("queue = %v, want [a b c]", got)
	}
}

func TestDequeueRef(t *testing.T) {
	q := playlist.NewQueue()
	q.Enqueue(playlist.Track{ID: "a"}, playlist.Track{ID: "b"}, playlist.Track{ID: "a"})

	got, err := dequeueRef(q, "3")
	if err != nil || got.ID != "a" {
		t.Fatalf("dequeueRef(3) = %s, %v", got.ID, err)
	}
	got, err = dequeueRef(q, "b")
	if err != nil || got.ID != "b" {
		t.Fatalf("dequeueRef(b) = %s, %v", got.ID, err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if _, err := dequeueRef(q, "9"); err == nil {
		t.Error("dequeueRef(9) should fail")
	}
}
