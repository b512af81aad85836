package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/state"
)

var queueNext bool

var queueCmd = documentCommand("queue", "Show the saved queue",
	func(d state.Document) []playlist.Track { return d.Queue })

var queueAddCmd = &cobra.Command{
	Use:   "add <query|url|file>...",
	Short: "Queue tracks to play next",
	Long: `Files and URLs each queue a track; anything else is searched and the top
result is queued. Running sessions pick the change up from the store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withLibrary(ctx, func(e *engine.Engine) error {
			tracks, err := resolveArgs(ctx, e.Searcher, args)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpQueueEdit, err))
			}
			enqueue(e.Playback.Queue(), tracks, queueNext)
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %d %s\n", len(tracks), plural(len(tracks), "track", "tracks"))
			return nil
		})
	},
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove <position|track-id>",
	Short: "Remove a track from the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(e *engine.Engine) error {
			t, err := dequeueRef(e.Playback.Queue(), args[0])
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpQueueEdit, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", t.Seed())
			return nil
		})
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(e *engine.Engine) error {
			e.Playback.Queue().Clear()
			return nil
		})
	},
}

func init() {
	queueAddCmd.Flags().BoolVar(&queueNext, "next", false, "put the tracks at the front of the queue")
	queueCmd.AddCommand(queueAddCmd, queueRemoveCmd, queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}

// enqueue appends tracks, or puts them in front when next is set.
func enqueue(q *playlist.Queue, tracks []playlist.Track, next bool) {
	if next {
		q.EnqueueFront(tracks...)
		return
	}
	q.Enqueue(tracks...)
}

// dequeueRef removes the queued track at a 1-based position, or the first
// one with an id.
func dequeueRef(q *playlist.Queue, which string) (playlist.Track, error) {
	tracks := q.Tracks()
	t, err := trackRef(tracks, which)
	if err != nil {
		return playlist.Track{}, err
	}
	i := playlist.IndexOf(tracks, t.ID)
	if n, err := strconv.Atoi(which); err == nil {
		i = n - 1
	}
	if !q.RemoveAt(i) {
		return playlist.Track{}, fmt.Errorf("queue changed, %q is gone", which)
	}
	return t, nil
}
