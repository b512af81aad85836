package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/drift/internal/engine"
	"github.com/llehouerou/drift/internal/lastfm"
	"github.com/llehouerou/drift/internal/state"
)

const authTimeout = 3 * time.Minute

var lastfmCmd = &cobra.Command{
	Use:   "lastfm",
	Short: "Manage the Last.fm connection used for scrobbling",
}

var lastfmLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize drift to scrobble to your Last.fm account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		local, err := engine.OpenLocal(cfg)
		if err != nil {
			return err
		}
		defer local.Close()

		client := engine.NewLastfm(cfg, local, logger)
		if client == nil {
			return fmt.Errorf("set [lastfm] api_key and api_secret in the config first")
		}

		srv, err := lastfm.StartAuthServer("")
		if err != nil {
			return fmt.Errorf("start callback server: %w", err)
		}
		defer srv.Shutdown()

		token, err := client.GetToken()
		if err != nil {
			return err
		}
		authURL := client.GetAuthURL(token, srv.CallbackURL())
		if err := lastfm.OpenBrowser(authURL); err != nil {
			logger.Debug().Err(err).Msg("open browser")
		}
		fmt.Fprintf(out, "Authorize drift in your browser:\n  %s\n", authURL)

		if srv.WaitToken(cmd.Context(), authTimeout) == "" {
			return fmt.Errorf("authorization timed out")
		}
		username, key, err := client.GetSession(token)
		if err != nil {
			return err
		}
		if err := local.SetSetting(state.SettingLastfmSession, key); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := local.SetSetting(state.SettingLastfmUser, username); err != nil {
			return fmt.Errorf("save username: %w", err)
		}
		fmt.Fprintf(out, "Logged in as %s\n", username)
		return nil
	},
}

var lastfmLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored Last.fm session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := engine.OpenLocal(cfg)
		if err != nil {
			return err
		}
		defer local.Close()
		for _, k := range []string{state.SettingLastfmSession, state.SettingLastfmUser} {
			if err := local.SetSetting(k, ""); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var lastfmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether scrobbling is set up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := engine.OpenLocal(cfg)
		if err != nil {
			return err
		}
		defer local.Close()

		status := lastfmStatus{Configured: cfg.HasLastfmConfig()}
		if status.Username, err = local.Setting(state.SettingLastfmUser); err != nil {
			return err
		}
		key, err := local.Setting(state.SettingLastfmSession)
		if err != nil {
			return err
		}
		status.Authenticated = status.Configured && key != ""

		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), status)
		}
		fmt.Fprintln(cmd.OutOrStdout(), status.String())
		return nil
	},
}

type lastfmStatus struct {
	Configured    bool   `json:"configured"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func (s lastfmStatus) String() string {
	switch {
	case !s.Configured:
		return "Last.fm is not configured"
	case !s.Authenticated:
		return "Not logged in, run drift lastfm login"
	case s.Username != "":
		return "Scrobbling as " + s.Username
	default:
		return "Scrobbling enabled"
	}
}

func init() {
	lastfmCmd.AddCommand(lastfmLoginCmd, lastfmLogoutCmd, lastfmStatusCmd)
	rootCmd.AddCommand(lastfmCmd)
}
