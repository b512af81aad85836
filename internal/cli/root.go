// Package cli implements the drift command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/config"
)

var (
	cfgFile string
	jsonOut bool
	debug   bool

	cfg     *config.Config
	logger  = zerolog.Nop()
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "drift",
	Short: "Stream music with endless AI-picked autoplay",
	Long: `Drift plays streaming videos, direct media URLs and local files, and keeps
going when the queue runs out by asking a suggestion provider what to play next.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.config/drift/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// initLogger writes logs to the state directory; the terminal belongs to
// the player screen.
func initLogger() error {
	path, err := xdg.StateFile(filepath.Join("drift", "drift.log"))
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = newLogger(f, level)
	return nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
