package cli

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/catalog"
	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/lrclib"
	"github.com/llehouerou/drift/internal/lyrics"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/stderr"
	"github.com/llehouerou/drift/internal/suggest"
	"github.com/llehouerou/drift/internal/ui/nowplaying"
)

var errNoResults = errors.New("no results")

var (
	playClear bool
	playMood  string
)

var playCmd = &cobra.Command{
	Use:   "play [query|url|file]...",
	Short: "Play a track and keep going with autoplay",
	Long: `Play a track, then the queue, then whatever autoplay suggests.
Without arguments, resumes the saved queue or the last played track.

Examples:
  drift play "massive attack teardrop"   # Search and play the top result
  drift play dQw4w9WgXcQ                  # Play a video id
  drift play ~/Music/a.flac ~/Music/b.mp3 # Play a file, queue the rest
  drift play https://example.com/set.mp3  # Play a media URL
  drift play --mood "rainy sunday"        # Play songs suggested for a mood`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playClear, "clear", false, "clear the saved queue first")
	playCmd.Flags().StringVarP(&playMood, "mood", "m", "", "play songs the suggester picks for a mood")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	return runSession(cmd, func(ctx context.Context, e *engine.Engine) ([]playlist.Track, error) {
		if playClear {
			e.Playback.Queue().Clear()
		}
		if playMood != "" {
			return moodTracks(ctx, e.Suggester, e.Searcher, playMood)
		}
		return resolveArgs(ctx, e.Searcher, args)
	})
}

// runSession starts a playing engine and the player screen. pick returns
// the tracks to start with: the first plays, the rest are queued. With
// none, the saved queue or the last played track resumes.
func runSession(cmd *cobra.Command, pick func(context.Context, *engine.Engine) ([]playlist.Track, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	capture, err := stderr.Start(logger)
	if err != nil {
		logger.Warn().Err(err).Msg("stderr capture unavailable")
	} else {
		defer capture.Restore()
	}

	e, err := engine.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			logger.Warn().Err(err).Msg("shutdown")
		}
	}()

	if err := e.StartMPRIS(); err != nil {
		logger.Warn().Err(err).Msg("mpris unavailable")
	}
	e.StartNotifier(cfg)

	tracks, err := pick(ctx, e)
	if err != nil {
		return err
	}
	if len(tracks) > 1 {
		e.Playback.Queue().Enqueue(tracks[1:]...)
	}

	start := func(ctx context.Context) error {
		switch {
		case len(tracks) > 0:
			return e.Playback.PlayTrack(ctx, tracks[0])
		case !e.Playback.Queue().IsEmpty():
			return e.Playback.PlayNext(ctx)
		}
		if recent := e.Playback.History().Tracks(); len(recent) > 0 {
			return e.Playback.PlayTrack(ctx, recent[0])
		}
		return errors.New("nothing to resume, try drift play <query>")
	}

	return nowplaying.Run(ctx, e.Playback, e.Library, nowplaying.Options{
		FPS:    cfg.GetAnalyzerConfig().FPS,
		Start:  start,
		Lyrics: lyrics.NewSource(lrclib.New(""), lyrics.DefaultCacheDir()),
	})
}

// withLibrary runs fn on a headless engine. Library and queue edits made
// by fn are written to the store before it returns.
func withLibrary(ctx context.Context, fn func(*engine.Engine) error) error {
	e, err := engine.New(ctx, cfg, logger, engine.Headless())
	if err != nil {
		return err
	}
	err = fn(e)
	if cerr := e.Close(); cerr != nil {
		logger.Warn().Err(cerr).Msg("shutdown")
	}
	return err
}

// resolveArgs turns play arguments into tracks. Files and URLs each make a
// track; anything else is joined into one search query.
func resolveArgs(ctx context.Context, searcher catalog.Searcher, args []string) ([]playlist.Track, error) {
	if len(args) == 0 {
		return nil, nil
	}
	var tracks []playlist.Track
	for _, arg := range args {
		t, ok, err := resolveLocator(ctx, searcher, arg)
		if err != nil {
			return nil, err
		}
		if !ok {
			tracks = nil
			break
		}
		tracks = append(tracks, t)
	}
	if tracks != nil {
		return tracks, nil
	}

	query := strings.Join(args, " ")
	results, err := searcher.SearchTracks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("search %q: %w", query, errNoResults)
	}
	return results[:1], nil
}

// moodTracks searches every song suggested for mood and keeps the top
// result of each. Songs that find nothing are skipped.
func moodTracks(ctx context.Context, suggester suggest.Suggester, searcher catalog.Searcher, mood string) ([]playlist.Track, error) {
	songs, err := suggester.SuggestMood(ctx, mood)
	if err != nil {
		return nil, errors.New(errmsg.Format(errmsg.OpMoodSuggest, err))
	}
	var tracks []playlist.Track
	for _, song := range songs {
		results, err := searcher.SearchTracks(ctx, song)
		if err != nil {
			logger.Debug().Err(err).Str("song", song).Msg("mood search failed")
			continue
		}
		if len(results) > 0 && playlist.IndexOf(tracks, results[0].ID) < 0 {
			tracks = append(tracks, results[0])
		}
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("mood %q: %w", mood, errNoResults)
	}
	return tracks, nil
}

// resolveLocator handles an argument that names a file, a video or a media
// URL. It reports false for free text.
func resolveLocator(ctx context.Context, searcher catalog.Searcher, arg string) (playlist.Track, bool, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		t, err := catalog.FromFile(arg)
		return t, err == nil, err
	}
	if id, ok := player.VideoID(arg); ok {
		return videoTrack(ctx, searcher, id), true, nil
	}
	u, err := url.Parse(arg)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return playlist.Track{}, false, nil
	}
	sum := sha1.Sum([]byte(arg))
	title := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if title == "" || title == "." || title == "/" {
		title = u.Host
	}
	return playlist.Track{
		ID:     playlist.ID("url:" + hex.EncodeToString(sum[:8])),
		Title:  title,
		Source: arg,
	}, true, nil
}

// videoTrack looks the id up for its title and artist so autoplay has a
// seed; a bare track still plays when the lookup fails.
func videoTrack(ctx context.Context, searcher catalog.Searcher, id string) playlist.Track {
	bare := playlist.Track{
		ID:     playlist.ID(id),
		Title:  id,
		Source: "https://www.youtube.com/watch?v=" + id,
	}
	results, err := searcher.SearchTracks(ctx, id)
	if err != nil {
		logger.Debug().Err(err).Str("id", id).Msg("video lookup failed")
		return bare
	}
	for _, t := range results {
		if string(t.ID) == id {
			return t
		}
	}
	return bare
}
