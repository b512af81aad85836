package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/radio"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the autoplay search cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached suggestions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(c *radio.Cache) error {
			entries, err := c.Entries()
			if err != nil {
				return err
			}
			if jsonOut {
				if entries == nil {
					entries = []radio.Entry{}
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			t := NewTable(cmd.OutOrStdout(), "SUGGESTION", "CANDIDATES", "FETCHED", "")
			for _, e := range entries {
				expired := ""
				if e.Expired {
					expired = "expired"
				}
				t.Row(e.Query, strconv.Itoa(e.Candidates), humanize.Time(e.FetchedAt), expired)
			}
			t.Flush()
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached suggestion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(c *radio.Cache) error {
			n, err := c.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s cached %s\n",
				humanize.Comma(int64(n)), plural(n, "suggestion", "suggestions"))
			return nil
		})
	},
}

func withCache(fn func(*radio.Cache) error) error {
	local, err := engine.OpenLocal(cfg)
	if err != nil {
		return err
	}
	defer local.Close()
	ttl := time.Duration(cfg.GetAutoplayConfig().CacheTTLHours) * time.Hour
	c, err := radio.NewCache(local.DB(), ttl)
	if err != nil {
		return err
	}
	return fn(c)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
