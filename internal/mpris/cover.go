//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/drift/internal/playlist"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindAlbumArt looks for album art in the same directory as the track.
// Returns the path to the art file, or empty string if not found.
func FindAlbumArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	for _, name := range coverNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// artURL prefers the track's own cover, then art next to a local file.
func artURL(t playlist.Track) string {
	if t.Cover != "" {
		if strings.Contains(t.Cover, "://") {
			return t.Cover
		}
		return "file://" + t.Cover
	}
	src := strings.TrimPrefix(t.Source, "file://")
	if src == "" || strings.Contains(src, "://") {
		return ""
	}
	if art := FindAlbumArt(src); art != "" {
		return "file://" + art
	}
	return ""
}
