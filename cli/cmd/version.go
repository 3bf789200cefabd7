package cmd

import (
	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/api"
	"github.com/teamshare/backend/cli/internal/output"
)

// Version is stamped by the release build with
// -ldflags "-X github.com/teamshare/backend/cli/cmd.Version=<tag>".
var Version = "dev"

type versionReport struct {
	CLI        string           `json:"cli"`
	APIVersion string           `json:"apiVersion"`
	Server     *api.VersionInfo `json:"server,omitempty"`
	Compatible bool             `json:"compatible"`
	Error      string           `json:"error,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the CLI version and check the server speaks the same API",
	RunE: func(cmd *cobra.Command, args []string) error {
		report := versionReport{CLI: Version, APIVersion: api.SupportedAPIVersion}

		var resp api.Response[api.VersionInfo]
		if err := apiClient.Get("/version", nil, &resp); err != nil {
			report.Error = err.Error()
		} else {
			report.Server = &resp.Data
			report.Compatible = resp.Data.Compatible()
		}

		if flagJSON {
			output.JSON(report)
			return nil
		}
		output.VersionInfo(report.CLI, report.Server)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
