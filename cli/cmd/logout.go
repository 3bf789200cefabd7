package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out, keeping the saved server and team",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.SignedIn() {
			fmt.Println("Not logged in.")
			return nil
		}
		// The server drops its panel session; the local token goes regardless.
		_ = apiClient.Post("/auth/logout", nil, nil)
		cfg.SignOut()
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
