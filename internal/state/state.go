// Package state persists the user's collections and keeps them in sync
// with a store that other sessions may write to.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/llehouerou/drift/internal/playlist"
)

// ErrNotFound is returned by Load when the user has no document yet.
var ErrNotFound = errors.New("user document not found")

// Field names a top-level collection of the user document.
type Field string

const (
	FieldPlaylists Field = "playlists"
	FieldLiked     Field = "likedSongs"
	FieldHistory   Field = "history"
	FieldQueue     Field = "queue"
)

// Fields lists every field in document order.
var Fields = []Field{FieldPlaylists, FieldLiked, FieldHistory, FieldQueue}

// Document is the user document. Fields are replaced whole, never merged.
type Document struct {
	Playlists  []playlist.Playlist `json:"playlists"`
	LikedSongs []playlist.Track    `json:"likedSongs"`
	History    []playlist.Track    `json:"history"`
	Queue      []playlist.Track    `json:"queue"`
}

// Value returns the collection stored under f.
func (d *Document) Value(f Field) (any, error) {
	switch f {
	case FieldPlaylists:
		return d.Playlists, nil
	case FieldLiked:
		return d.LikedSongs, nil
	case FieldHistory:
		return d.History, nil
	case FieldQueue:
		return d.Queue, nil
	default:
		return nil, fmt.Errorf("unknown field %q", f)
	}
}

// SetJSON decodes data into the collection under f.
func (d *Document) SetJSON(f Field, data []byte) error {
	switch f {
	case FieldPlaylists:
		return json.Unmarshal(data, &d.Playlists)
	case FieldLiked:
		return json.Unmarshal(data, &d.LikedSongs)
	case FieldHistory:
		return json.Unmarshal(data, &d.History)
	case FieldQueue:
		return json.Unmarshal(data, &d.Queue)
	default:
		return fmt.Errorf("unknown field %q", f)
	}
}

// copyField sets the collection under f from src.
func (d *Document) copyField(src *Document, f Field) {
	switch f {
	case FieldPlaylists:
		d.Playlists = src.Playlists
	case FieldLiked:
		d.LikedSongs = src.LikedSongs
	case FieldHistory:
		d.History = src.History
	case FieldQueue:
		d.Queue = src.Queue
	}
}

// Stamp records the session that last wrote a field and the store version
// of that write. Versions only grow per user.
type Stamp struct {
	Origin  string
	Version int64
}

// Snapshot is a document as observed by Watch, with a stamp for every
// field that has been written.
type Snapshot struct {
	Document Document
	Stamps   map[Field]Stamp
}

// Store is a keyed user-document store.
type Store interface {
	// Load returns the user's document or ErrNotFound.
	Load(ctx context.Context, userID string) (Document, error)
	// Save replaces one field of the user's document. origin identifies
	// the writing session.
	Save(ctx context.Context, userID string, field Field, value any, origin string) error
	// Watch calls fn with the whole document after every change until ctx
	// is done. It blocks; the returned error is nil after cancellation.
	Watch(ctx context.Context, userID string, fn func(Snapshot)) error
	Close() error
}
