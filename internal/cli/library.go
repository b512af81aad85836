package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/state"
)

// loadDocument reads the user document from the configured store. A user
// with no document yet gets an empty one.
func loadDocument(ctx context.Context) (state.Document, error) {
	local, store, err := engine.OpenStores(ctx, cfg)
	if err != nil {
		return state.Document{}, err
	}
	defer func() {
		if store != state.Store(local) {
			_ = store.Close()
		}
		_ = local.Close()
	}()

	doc, err := store.Load(ctx, cfg.GetUserID())
	if errors.Is(err, state.ErrNotFound) {
		return state.Document{}, nil
	}
	if err != nil {
		return state.Document{}, errors.New(errmsg.Format(errmsg.OpStoreLoad, err))
	}
	return doc, nil
}

func documentCommand(use, short string, pick func(state.Document) []playlist.Track) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd.Context())
			if err != nil {
				return err
			}
			return printTracks(cmd.OutOrStdout(), pick(doc), jsonOut)
		},
	}
}

func init() {
	rootCmd.AddCommand(
		documentCommand("history", "Show recently played tracks",
			func(d state.Document) []playlist.Track { return d.History }),
		documentCommand("liked", "Show liked songs",
			func(d state.Document) []playlist.Track { return d.LikedSongs }),
	)
}
