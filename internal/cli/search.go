package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/errmsg"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for tracks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		searcher, _ := engine.NewCatalog(cfg)
		tracks, err := searcher.SearchTracks(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpSearch, err))
		}
		if searchLimit > 0 && len(tracks) > searchLimit {
			tracks = tracks[:searchLimit]
		}
		return printTracks(cmd.OutOrStdout(), tracks, jsonOut)
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List trending music (needs a YouTube API key)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, trending := engine.NewCatalog(cfg)
		if trending == nil {
			return fmt.Errorf("trending needs [search] youtube_api_key in the config")
		}
		tracks, err := trending.FetchTrendingMusic(cmd.Context())
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpTrending, err))
		}
		return printTracks(cmd.OutOrStdout(), tracks, jsonOut)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum results (0 for all)")
	rootCmd.AddCommand(searchCmd, trendingCmd)
}
