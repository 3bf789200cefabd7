package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/api"
	"github.com/teamshare/backend/cli/internal/output"
)

var flagRole string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a TeamShare account",
	Long: `Create an account with email and password. The role defaults to teacher.

  teamshare register --email you@school.edu --role teamLeader`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		email := flagEmail
		if email == "" {
			email = prompt(reader, "Email: ")
		}
		password := flagPassword
		if password == "" {
			password = prompt(reader, "Password: ")
		}
		confirm := prompt(reader, "Confirm password: ")

		var resp api.Response[api.Outcome]
		err := apiClient.Post("/auth/register", api.RegisterRequest{
			Email:           email,
			Password:        password,
			ConfirmPassword: confirm,
			Role:            flagRole,
		}, &resp)
		if err != nil {
			return fmt.Errorf("registering: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Println(resp.Data.Message)
		fmt.Println("Run \"teamshare login\" to sign in.")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted when omitted)")
	registerCmd.Flags().StringVar(&flagRole, "role", "", "Role: teacher, teamLeader, or teamMember")
	rootCmd.AddCommand(registerCmd)
}
