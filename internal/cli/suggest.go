package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/errmsg"
)

var suggestMood string

var suggestCmd = &cobra.Command{
	Use:   "suggest [artist - title]",
	Short: "Ask the autoplay provider what to play next",
	Long: `With a seed, prints one suggestion to follow it. With --mood, prints songs
matching the mood. Without either, prints recommendations drawn from the
listening history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		local, err := engine.OpenLocal(cfg)
		if err != nil {
			return err
		}
		defer local.Close()
		suggester := engine.NewSuggester(cfg, engine.NewLastfm(cfg, local, logger), logger)

		var suggestions []string
		switch {
		case suggestMood != "":
			suggestions, err = suggester.SuggestMood(ctx, suggestMood)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpMoodSuggest, err))
			}
		case len(args) > 0:
			s, err := suggester.SuggestNext(ctx, strings.Join(args, " "))
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpAutoplaySuggest, err))
			}
			suggestions = []string{s}
		default:
			doc, err := loadDocument(ctx)
			if err != nil {
				return err
			}
			if len(doc.History) == 0 {
				return fmt.Errorf("no history yet, pass a seed like \"Artist - Title\"")
			}
			seeds := make([]string, 0, len(doc.History))
			for _, t := range doc.History {
				seeds = append(seeds, t.Seed())
			}
			suggestions, err = suggester.SuggestMany(ctx, seeds)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpAutoplaySuggest, err))
			}
		}

		if jsonOut {
			if suggestions == nil {
				suggestions = []string{}
			}
			return writeJSON(cmd.OutOrStdout(), suggestions)
		}
		for _, s := range suggestions {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestMood, "mood", "m", "", `suggest songs for a mood, e.g. "rainy sunday"`)
	rootCmd.AddCommand(suggestCmd)
}
