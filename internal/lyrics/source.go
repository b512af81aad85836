package lyrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/xdg"

	"github.com/llehouerou/drift/internal/lrclib"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
)

// Origin tells where lyrics were found.
type Origin string

const (
	OriginLocal    Origin = "local"
	OriginCache    Origin = "cache"
	OriginAPI      Origin = "api"
	OriginNotFound Origin = "not_found"
)

// Result is the outcome of a lookup. Err is set only for real failures;
// missing lyrics are OriginNotFound with a nil Err.
type Result struct {
	Lyrics *Lyrics
	Origin Origin
	Err    error
}

// Found reports whether r carries lyrics.
func (r Result) Found() bool {
	return r.Lyrics != nil && len(r.Lines()) > 0
}

// Lines is a nil-safe accessor for the found lines.
func (r Result) Lines() []Line {
	if r.Lyrics == nil {
		return nil
	}
	return r.Lyrics.Lines
}

// Finder looks lyrics up for a track.
type Finder interface {
	Fetch(ctx context.Context, t playlist.Track) Result
}

// Source finds lyrics next to local files, then in the on-disk cache, then
// on lrclib. Synced lyrics from lrclib are written back to the cache.
type Source struct {
	client   *lrclib.Client
	cacheDir string
}

var _ Finder = (*Source)(nil)

// NewSource builds a Source over client. An empty cacheDir disables
// caching.
func NewSource(client *lrclib.Client, cacheDir string) *Source {
	return &Source{client: client, cacheDir: cacheDir}
}

// DefaultCacheDir is the user cache location, or "" when it cannot be
// resolved.
func DefaultCacheDir() string {
	path, err := xdg.CacheFile(filepath.Join("drift", "lyrics", ".keep"))
	if err != nil {
		return ""
	}
	return filepath.Dir(path)
}

// Fetch never returns an error for missing lyrics, only for failed
// requests.
func (s *Source) Fetch(ctx context.Context, t playlist.Track) Result {
	if path, ok := localPath(t.Source); ok {
		if l, err := loadFile(lrcPathFor(path)); err == nil && len(l.Lines) > 0 {
			return Result{Lyrics: l, Origin: OriginLocal}
		}
	}

	if t.Artist == "" || t.Title == "" {
		return Result{Origin: OriginNotFound}
	}

	if cached := s.cachePath(t.Artist, t.Title); cached != "" {
		if l, err := loadFile(cached); err == nil && len(l.Lines) > 0 {
			return Result{Lyrics: l, Origin: OriginCache}
		}
	}

	if s.client == nil {
		return Result{Origin: OriginNotFound}
	}
	return s.fetchRemote(ctx, t)
}

func (s *Source) fetchRemote(ctx context.Context, t playlist.Track) Result {
	res, err := s.client.Get(ctx, t.Artist, t.Title, t.Duration)
	if errors.Is(err, lrclib.ErrNotFound) {
		res, err = s.searchRemote(ctx, t)
	}
	if errors.Is(err, lrclib.ErrNotFound) {
		return Result{Origin: OriginNotFound}
	}
	if err != nil {
		return Result{Origin: OriginNotFound, Err: err}
	}

	l := fromResult(res)
	if l == nil || len(l.Lines) == 0 {
		return Result{Origin: OriginNotFound}
	}
	if res.HasSynced() {
		_ = s.store(t.Artist, t.Title, res.SyncedLyrics)
	}
	return Result{Lyrics: l, Origin: OriginAPI}
}

// searchRemote falls back to free-text search when the exact lookup
// misses, taking the first entry that has lyrics, synced preferred.
func (s *Source) searchRemote(ctx context.Context, t playlist.Track) (*lrclib.Result, error) {
	results, err := s.client.Search(ctx, t.Artist+" "+t.Title)
	if err != nil {
		return nil, err
	}
	var plain *lrclib.Result
	for i := range results {
		r := &results[i]
		if r.HasSynced() {
			return r, nil
		}
		if plain == nil && r.HasPlain() {
			plain = r
		}
	}
	if plain == nil {
		return nil, lrclib.ErrNotFound
	}
	return plain, nil
}

func fromResult(res *lrclib.Result) *Lyrics {
	var l *Lyrics
	switch {
	case res.HasSynced():
		parsed, err := ParseLRC(strings.NewReader(res.SyncedLyrics))
		if err != nil {
			return nil
		}
		l = parsed
	case res.HasPlain():
		l = Plain(res.PlainLyrics)
	default:
		return nil
	}
	if l.Artist == "" {
		l.Artist = res.ArtistName
	}
	if l.Title == "" {
		l.Title = res.TrackName
	}
	if l.Album == "" {
		l.Album = res.AlbumName
	}
	return l
}

// localPath returns the filesystem path of a direct local source.
func localPath(source string) (string, bool) {
	if player.KindFor(source) != player.KindDirect {
		return "", false
	}
	path := strings.TrimPrefix(source, "file://")
	if strings.Contains(path, "://") {
		return "", false
	}
	return path, true
}

func lrcPathFor(audio string) string {
	return strings.TrimSuffix(audio, filepath.Ext(audio)) + ".lrc"
}

func loadFile(path string) (*Lyrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLRC(f)
}

func (s *Source) cachePath(artist, title string) string {
	if s.cacheDir == "" {
		return ""
	}
	return filepath.Join(s.cacheDir, safeName(artist), safeName(title)+".lrc")
}

func (s *Source) store(artist, title, content string) error {
	path := s.cachePath(artist, title)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

const maxNameLen = 100

func safeName(name string) string {
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), " .")
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if name == "" {
		return "_"
	}
	return name
}
