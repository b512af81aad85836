//go:build !linux

package notify

import "github.com/llehouerou/drift/internal/playlist"

func trackIcon(playlist.Track) string {
	return ""
}
