package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/playlists"
	"github.com/llehouerou/drift/internal/suggest"
)

var errAmbiguous = errors.New("matches several playlists")

var playlistDescription string

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List and edit saved playlists",
	Long: `Without a subcommand, lists saved playlists. A playlist is named by its id
or, when unique, its name (case-insensitive).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd.Context())
		if err != nil {
			return err
		}
		return printPlaylists(cmd.OutOrStdout(), doc.Playlists, jsonOut)
	},
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty playlist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(e *engine.Engine) error {
			p, err := createPlaylist(e.Library, strings.Join(args, " "), playlistDescription)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistCreate, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", p.Name, p.ID)
			return nil
		})
	},
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <playlist>",
	Short: "Delete a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(e *engine.Engine) error {
			p, err := findPlaylist(e.Library, args[0])
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistDelete, err))
			}
			e.Library.Delete(p.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", p.Name)
			return nil
		})
	},
}

var playlistRenameCmd = &cobra.Command{
	Use:   "rename <playlist> <name>",
	Short: "Rename a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(e *engine.Engine) error {
			if err := renamePlaylist(e.Library, args[0], strings.Join(args[1:], " ")); err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistRename, err))
			}
			return nil
		})
	},
}

var playlistDescribeCmd = &cobra.Command{
	Use:   "describe <playlist> [text]",
	Short: "Set or clear a playlist's description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(e *engine.Engine) error {
			p, err := findPlaylist(e.Library, args[0])
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistRename, err))
			}
			return e.Library.SetDescription(p.ID, strings.Join(args[1:], " "))
		})
	},
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <playlist>",
	Short: "List a playlist's tracks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd.Context())
		if err != nil {
			return err
		}
		lib := playlists.New()
		lib.ReplacePlaylists(doc.Playlists)
		p, err := findPlaylist(lib, args[0])
		if err != nil {
			return err
		}
		return printTracks(cmd.OutOrStdout(), p.Tracks, jsonOut)
	},
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <playlist> <query|url|file>...",
	Short: "Add tracks to a playlist",
	Long: `Files and URLs each add a track; anything else is searched and the top
result is added. Tracks already in the playlist are skipped.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withLibrary(ctx, func(e *engine.Engine) error {
			tracks, err := resolveArgs(ctx, e.Searcher, args[1:])
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistAddTrack, err))
			}
			p, added, err := addToPlaylist(e.Library, args[0], tracks)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistAddTrack, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d %s to %s\n", added, plural(added, "track", "tracks"), p.Name)
			return nil
		})
	},
}

var playlistRemoveCmd = &cobra.Command{
	Use:   "remove <playlist> <position|track-id>",
	Short: "Remove a track from a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(e *engine.Engine) error {
			t, err := removeFromPlaylist(e.Library, args[0], args[1])
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistRemove, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", t.Seed())
			return nil
		})
	},
}

var playlistPlayCmd = &cobra.Command{
	Use:   "play <playlist>",
	Short: "Play a playlist from the start",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, func(_ context.Context, e *engine.Engine) ([]playlist.Track, error) {
			p, err := findPlaylist(e.Library, args[0])
			if err != nil {
				return nil, err
			}
			if p.Len() == 0 {
				return nil, fmt.Errorf("playlist %s is empty", p.Name)
			}
			return p.Tracks, nil
		})
	},
}

var playlistCoverCmd = &cobra.Command{
	Use:   "cover <playlist> [image-url]",
	Short: "Set a playlist cover, or generate one from its tracks",
	Long: `With an image URL, sets it as the cover; "-" clears it. Without one, asks
the Ollama provider for an image prompt matching the tracks and stores the
URL of an image generated from it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withLibrary(ctx, func(e *engine.Engine) error {
			p, err := findPlaylist(e.Library, args[0])
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistCover, err))
			}
			var cover string
			switch {
			case len(args) == 2 && args[1] == "-":
			case len(args) == 2:
				cover = args[1]
			default:
				prompter, _ := e.Suggester.(suggest.CoverPrompter)
				cover = generateCover(ctx, prompter, p)
			}
			if err := e.Library.SetCover(p.ID, cover); err != nil {
				return errors.New(errmsg.Format(errmsg.OpPlaylistCover, err))
			}
			if cover != "" {
				fmt.Fprintln(cmd.OutOrStdout(), cover)
			}
			return nil
		})
	},
}

func init() {
	playlistCreateCmd.Flags().StringVarP(&playlistDescription, "description", "d", "", "playlist description")
	playlistsCmd.AddCommand(
		playlistCreateCmd,
		playlistDeleteCmd,
		playlistRenameCmd,
		playlistDescribeCmd,
		playlistShowCmd,
		playlistAddCmd,
		playlistRemoveCmd,
		playlistPlayCmd,
		playlistCoverCmd,
	)
	rootCmd.AddCommand(playlistsCmd)
}

func printPlaylists(out io.Writer, pls []playlist.Playlist, asJSON bool) error {
	if asJSON {
		if pls == nil {
			pls = []playlist.Playlist{}
		}
		return writeJSON(out, pls)
	}
	t := NewTable(out, "ID", "NAME", "TRACKS", "DESCRIPTION")
	for _, p := range pls {
		t.Row(string(p.ID), p.Name, strconv.Itoa(p.Len()), p.Description)
	}
	t.Flush()
	return nil
}

// findPlaylist resolves ref as an id, then as a unique case-insensitive
// name.
func findPlaylist(lib *playlists.Library, ref string) (playlist.Playlist, error) {
	if p, ok := lib.Get(playlist.ID(ref)); ok {
		return p, nil
	}
	var found []playlist.Playlist
	for _, p := range lib.Playlists() {
		if strings.EqualFold(p.Name, ref) {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return playlist.Playlist{}, fmt.Errorf("%q: %w", ref, playlists.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return playlist.Playlist{}, fmt.Errorf("%q %w, use its id", ref, errAmbiguous)
	}
}

func createPlaylist(lib *playlists.Library, name, description string) (playlist.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return playlist.Playlist{}, errors.New("name is empty")
	}
	p := lib.Create(name)
	if description == "" {
		return p, nil
	}
	if err := lib.SetDescription(p.ID, description); err != nil {
		return p, err
	}
	p.Description = description
	return p, nil
}

func renamePlaylist(lib *playlists.Library, ref, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is empty")
	}
	p, err := findPlaylist(lib, ref)
	if err != nil {
		return err
	}
	return lib.Rename(p.ID, name)
}

// addToPlaylist adds tracks in order and returns how many were new.
func addToPlaylist(lib *playlists.Library, ref string, tracks []playlist.Track) (playlist.Playlist, int, error) {
	p, err := findPlaylist(lib, ref)
	if err != nil {
		return p, 0, err
	}
	added := 0
	for _, t := range tracks {
		ok, err := lib.AddTrack(p.ID, t)
		if err != nil {
			return p, added, err
		}
		if ok {
			added++
		}
	}
	return p, added, nil
}

// removeFromPlaylist removes the track at a 1-based position, or with an
// id, and returns it.
func removeFromPlaylist(lib *playlists.Library, ref, which string) (playlist.Track, error) {
	p, err := findPlaylist(lib, ref)
	if err != nil {
		return playlist.Track{}, err
	}
	t, err := trackRef(p.Tracks, which)
	if err != nil {
		return playlist.Track{}, fmt.Errorf("%s: %w", p.Name, err)
	}
	return t, lib.RemoveTrack(p.ID, t.ID)
}

// trackRef picks a track by 1-based position or by id.
func trackRef(tracks []playlist.Track, which string) (playlist.Track, error) {
	if n, err := strconv.Atoi(which); err == nil {
		if n < 1 || n > len(tracks) {
			return playlist.Track{}, fmt.Errorf("position %d out of range 1-%d", n, len(tracks))
		}
		return tracks[n-1], nil
	}
	if i := playlist.IndexOf(tracks, playlist.ID(which)); i >= 0 {
		return tracks[i], nil
	}
	return playlist.Track{}, fmt.Errorf("no track %q", which)
}

// generateCover builds a cover URL from the playlist's tracks. A failed
// prompt still yields a generic cover.
func generateCover(ctx context.Context, p suggest.CoverPrompter, pl playlist.Playlist) string {
	seeds := make([]string, 0, pl.Len())
	for _, t := range pl.Tracks {
		seeds = append(seeds, t.Seed())
	}
	cover, err := suggest.Cover(ctx, p, seeds)
	if err != nil {
		logger.Warn().Err(err).Str("playlist", pl.Name).Msg(errmsg.Format(errmsg.OpPlaylistCover, err))
	}
	return cover
}
