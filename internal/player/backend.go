package player

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/llehouerou/drift/internal/playlist"
)

// Kind is the playback backend a source locator needs.
type Kind int

const (
	KindNone Kind = iota
	KindEmbed
	KindDirect
)

func (k Kind) String() string {
	switch k {
	case KindEmbed:
		return "embed"
	case KindDirect:
		return "direct"
	default:
		return "none"
	}
}

var (
	// ErrPlaybackRefused is returned by Play when the output refuses to start.
	// The track stays loaded; the caller should treat it as "not playing".
	ErrPlaybackRefused = errors.New("playback refused")
	// ErrUnsupportedSource is returned by Load for sources a backend cannot decode.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// Listener receives a backend's asynchronous notifications.
type Listener struct {
	// OnTime reports the current position and authoritative duration.
	OnTime func(position, duration time.Duration)
	// OnEnded fires when the loaded track plays to its end.
	OnEnded func()
}

// Backend is the capability set shared by every playback backend.
type Backend interface {
	Kind() Kind
	// Load stops whatever is loaded, binds the track's source and resets
	// the position to zero. Safe to call while nothing is playing.
	Load(ctx context.Context, track playlist.Track) error
	Play() error
	Pause()
	Seek(position time.Duration)
	// SetVolume takes a 0-100 level. It is kept and applied on later loads.
	SetVolume(level int)
	Position() time.Duration
	Duration() time.Duration
	// Watch starts delivering notifications to l until the returned stop
	// function is called. No callback runs after stop returns.
	Watch(l Listener) (stop func())
	// Teardown stops playback and detaches the source. The backend can be
	// loaded again afterwards.
	Teardown()
	// Close releases everything, including resources kept across tracks.
	Close() error
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// KindFor selects the backend for a source locator. Streaming video
// identifiers and watch URLs go to the embed backend; any other locator is
// treated as directly fetchable media.
func KindFor(source string) Kind {
	source = strings.TrimSpace(source)
	if source == "" {
		return KindNone
	}
	if _, ok := VideoID(source); ok {
		return KindEmbed
	}
	return KindDirect
}

// VideoID extracts the streaming video identifier from a bare id or a
// watch/share URL.
func VideoID(source string) (string, bool) {
	source = strings.TrimSpace(source)
	if videoIDPattern.MatchString(source) {
		return source, true
	}

	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"):
			id = u.Path[strings.LastIndex(u.Path, "/")+1:]
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}
	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}
