package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/api"
	"github.com/teamshare/backend/cli/internal/output"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account, its role and the default team",
	RunE:  runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	var resp api.Response[api.Me]
	if err := apiClient.Get("/auth/me", nil, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("session expired, run \"teamshare login\" again")
		}
		return fmt.Errorf("fetching account: %w", err)
	}

	team, _ := currentTeam()
	if flagJSON {
		output.JSON(struct {
			api.Me
			Server string `json:"server"`
			Team   string `json:"team,omitempty"`
		}{Me: resp.Data, Server: cfg.ServerURL, Team: team})
		return nil
	}

	output.UserInfo(resp.Data, cfg.ServerURL, team)
	return nil
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
