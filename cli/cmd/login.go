package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/api"
	"github.com/teamshare/backend/cli/internal/config"
)

var (
	flagToken    string
	flagEmail    string
	flagPassword string
	flagSSO      string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with your TeamShare server",
	Long: `Authenticate with email and password, a token, or a Google/GitHub account.

Password:
  teamshare login --email you@school.edu

Token:
  teamshare login --token eyJhbGciOi...

Single sign-on:
  teamshare login --sso google
  Opens your browser; paste the token shown after sign-in.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&flagToken, "token", "", "Session token for direct authentication")
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted when omitted)")
	loginCmd.Flags().StringVar(&flagSSO, "sso", "", "Sign in with a provider: google or github")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	switch {
	case flagToken != "":
		return loginWithToken(flagToken)
	case flagSSO != "":
		return loginWithSSO(reader, flagSSO)
	default:
		return loginWithPassword(reader)
	}
}

func loginWithPassword(reader *bufio.Reader) error {
	email := flagEmail
	if email == "" {
		email = prompt(reader, "Email: ")
	}
	password := flagPassword
	if password == "" {
		password = prompt(reader, "Password: ")
	}

	client := api.NewClient(cfg.ServerURL, "")
	var resp api.Response[api.LoginResponse]
	if err := client.Post("/auth/login", api.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("%s", apiErr.Message)
		}
		return fmt.Errorf("signing in: %w", err)
	}

	if err := saveToken(resp.Data.Token); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", resp.Data.Identity.Email)
	return nil
}

func loginWithToken(token string) error {
	// Validate the token by calling /auth/me.
	client := api.NewClient(cfg.ServerURL, token)
	var resp api.Response[api.Me]
	if err := client.Get("/auth/me", nil, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("invalid token, server returned 401")
		}
		return fmt.Errorf("validating token: %w", err)
	}

	if err := saveToken(token); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", resp.Data.Identity.Email)
	return nil
}

func loginWithSSO(reader *bufio.Reader, provider string) error {
	client := api.NewClient(cfg.ServerURL, "")
	var resp api.Response[api.SSORedirect]
	if err := client.Get("/auth/sso/oauth/"+strings.ToLower(provider), nil, &resp); err != nil {
		return fmt.Errorf("starting %s sign-in: %w", provider, err)
	}

	fmt.Printf("Opening browser to complete authentication...\n")
	fmt.Printf("If the browser doesn't open, visit:\n  %s\n\n", resp.Data.URL)
	_ = openBrowser(resp.Data.URL)

	token := prompt(reader, "Paste the token shown after sign-in: ")
	if token == "" {
		return fmt.Errorf("no token entered")
	}
	return loginWithToken(token)
}

func saveToken(token string) error {
	cfg.Token = token
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(answer)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}
