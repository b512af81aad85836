package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/llehouerou/drift/internal/playlist"
)

// FromFile builds a direct-backend track from a local audio file. Missing
// tags fall back to the file name; the duration is left to the backend.
func FromFile(path string) (playlist.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return playlist.Track{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return playlist.Track{}, fmt.Errorf("open %s: %w", abs, err)
	}
	defer f.Close()

	sum := sha1.Sum([]byte(abs))
	t := playlist.Track{
		ID:     playlist.ID("file:" + hex.EncodeToString(sum[:8])),
		Title:  strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		Source: abs,
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Untagged files still play
		return t, nil //nolint:nilerr // tags are optional
	}
	if title := strings.TrimSpace(m.Title()); title != "" {
		t.Title = title
	}
	artist := strings.TrimSpace(m.Artist())
	if artist == "" {
		artist = strings.TrimSpace(m.AlbumArtist())
	}
	t.Artist = artist
	return t, nil
}
