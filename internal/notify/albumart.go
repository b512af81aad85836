//go:build linux

package notify

import (
	"strings"

	"github.com/llehouerou/drift/internal/mpris"
	"github.com/llehouerou/drift/internal/playlist"
)

// defaultIcon is the freedesktop icon name used without local art.
const defaultIcon = "audio-x-generic"

// trackIcon returns a local image for t: its own cover when it is a file,
// else art found next to a local source. Remote covers cannot be icons.
func trackIcon(t playlist.Track) string {
	if t.Cover != "" && !strings.Contains(t.Cover, "://") {
		return t.Cover
	}
	src := strings.TrimPrefix(t.Source, "file://")
	if src != "" && !strings.Contains(src, "://") {
		if art := mpris.FindAlbumArt(src); art != "" {
			return art
		}
	}
	return defaultIcon
}
