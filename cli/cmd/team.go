package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/config"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Show or set the default team",
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := currentTeam()
		if err != nil {
			return err
		}
		fmt.Println(team)
		return nil
	},
}

var teamUseCmd = &cobra.Command{
	Use:   "use <team-id>",
	Short: "Set the team used when --team is omitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Team = args[0]
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Default team set to %s\n", args[0])
		return nil
	},
}

func init() {
	teamCmd.AddCommand(teamUseCmd)
	rootCmd.AddCommand(teamCmd)
}
