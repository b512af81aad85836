package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/lrclib"
	"github.com/llehouerou/drift/internal/lyrics"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/suggest"
)

var lyricsSynced bool

var lyricsCmd = &cobra.Command{
	Use:   "lyrics [artist - title]",
	Short: "Print lyrics for a track",
	Long: `Without arguments, prints lyrics for the last played track. Local .lrc
files and the lyrics cache are checked before lrclib.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := lyricsTrack(cmd, args)
		if err != nil {
			return err
		}

		res := lyrics.NewSource(lrclib.New(""), lyrics.DefaultCacheDir()).Fetch(ctx, t)
		if res.Err != nil {
			return errors.New(errmsg.Format(errmsg.OpLyrics, res.Err))
		}
		if !res.Found() {
			return fmt.Errorf("no lyrics found for %s", t.Seed())
		}

		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), lyricsOutput(t, res))
		}
		printLyrics(cmd, res.Lyrics, lyricsSynced)
		return nil
	},
}

func init() {
	lyricsCmd.Flags().BoolVarP(&lyricsSynced, "timestamps", "t", false, "show line timestamps")
	rootCmd.AddCommand(lyricsCmd)
}

func lyricsTrack(cmd *cobra.Command, args []string) (playlist.Track, error) {
	if len(args) > 0 {
		artist, title := suggest.SplitSeed(strings.Join(args, " "))
		if artist == "" || title == "" {
			return playlist.Track{}, errors.New(`pass the track as "Artist - Title"`)
		}
		return playlist.Track{Artist: artist, Title: title}, nil
	}

	doc, err := loadDocument(cmd.Context())
	if err != nil {
		return playlist.Track{}, err
	}
	if len(doc.History) == 0 {
		return playlist.Track{}, errors.New(`no history yet, pass a track like "Artist - Title"`)
	}
	return doc.History[0], nil
}

type lyricsLine struct {
	Time float64 `json:"time"` // seconds
	Text string  `json:"text"`
}

type lyricsDoc struct {
	Artist string       `json:"artist"`
	Title  string       `json:"title"`
	Origin string       `json:"origin"`
	Synced bool         `json:"synced"`
	Lines  []lyricsLine `json:"lines"`
}

func lyricsOutput(t playlist.Track, res lyrics.Result) lyricsDoc {
	doc := lyricsDoc{
		Artist: t.Artist,
		Title:  t.Title,
		Origin: string(res.Origin),
		Synced: res.Lyrics.IsSynced(),
		Lines:  make([]lyricsLine, 0, len(res.Lines())),
	}
	for _, l := range res.Lines() {
		doc.Lines = append(doc.Lines, lyricsLine{Time: l.Time.Seconds(), Text: l.Text})
	}
	return doc
}

func printLyrics(cmd *cobra.Command, l *lyrics.Lyrics, timestamps bool) {
	out := cmd.OutOrStdout()
	stamp := timestamps && l.IsSynced()
	for _, line := range l.Lines {
		if stamp {
			fmt.Fprintf(out, "[%s] %s\n", playlist.FormatDuration(line.Time), line.Text)
		} else {
			fmt.Fprintln(out, line.Text)
		}
	}
}
