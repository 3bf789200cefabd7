package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/api"
	"github.com/teamshare/backend/cli/internal/config"
)

var (
	flagJSON      bool
	flagServerURL string
	flagTeam      string

	cfg       *config.Config
	apiClient *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "teamshare",
	Short: "TeamShare CLI: share files with your team from the terminal",
	Long: `TeamShare CLI lets you upload, list, download, and delete your team's
shared files without leaving the terminal.

Get started:
  teamshare register                Create an account
  teamshare login                   Sign in with email and password
  teamshare files ls --team t1      List a team's files
  teamshare files upload notes.pdf  Upload a file to the default team`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}
		apiClient = api.NewClient(cfg.ServerURL, cfg.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from config or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&flagTeam, "team", "", "Team ID (default: from config)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// requireAuth returns an error if no token is configured.
func requireAuth() error {
	if !cfg.SignedIn() {
		return fmt.Errorf("not authenticated, run \"teamshare login\" first")
	}
	return nil
}

// currentTeam picks --team over the saved default.
func currentTeam() (string, error) {
	if flagTeam != "" {
		return flagTeam, nil
	}
	if cfg != nil && cfg.Team != "" {
		return cfg.Team, nil
	}
	return "", fmt.Errorf("no team selected, pass --team or run \"teamshare team use <id>\"")
}
