package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/teamshare/backend/internal/config"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/pkg/logger"
	"golang.org/x/oauth2"
	github "golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

var ErrFederationDisabled = errors.New("federated sign-in is not configured")

// FederatedProfile is what an identity provider tells us about its user.
type FederatedProfile struct {
	Provider models.AuthProvider
	Subject  string
	Email    string
}

// Federation runs the provider side of an authorization-code sign-in.
type Federation interface {
	AuthCodeURL(provider, state string) (string, error)
	Exchange(ctx context.Context, provider, code string) (*FederatedProfile, error)
}

type providerEndpoints struct {
	OAuth       oauth2.Endpoint
	UserInfoURL string
	EmailsURL   string
}

// OAuthFederation signs users in with Google or GitHub.
type OAuthFederation struct {
	cfg       config.SSOConfig
	endpoints map[models.AuthProvider]providerEndpoints
}

func NewOAuthFederation(cfg config.SSOConfig) *OAuthFederation {
	return &OAuthFederation{
		cfg: cfg,
		endpoints: map[models.AuthProvider]providerEndpoints{
			models.AuthProviderGoogle: {
				OAuth:       google.Endpoint,
				UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			},
			models.AuthProviderGitHub: {
				OAuth:       github.Endpoint,
				UserInfoURL: "https://api.github.com/user",
				EmailsURL:   "https://api.github.com/user/emails",
			},
		},
	}
}

// EnabledProviders lists the providers that have been switched on.
func (f *OAuthFederation) EnabledProviders() []models.AuthProvider {
	providers := []models.AuthProvider{}
	if f.cfg.Google.Enabled {
		providers = append(providers, models.AuthProviderGoogle)
	}
	if f.cfg.GitHub.Enabled {
		providers = append(providers, models.AuthProviderGitHub)
	}
	return providers
}

func (f *OAuthFederation) OAuthConfig(provider string) (*oauth2.Config, models.AuthProvider, error) {
	var (
		name models.AuthProvider
		pc   config.OAuthProviderConfig
	)
	switch strings.ToLower(provider) {
	case "google":
		name, pc = models.AuthProviderGoogle, f.cfg.Google
	case "github":
		name, pc = models.AuthProviderGitHub, f.cfg.GitHub
	default:
		return nil, "", errors.New("unknown oauth provider: " + provider)
	}
	if !pc.Enabled {
		return nil, "", fmt.Errorf("%s oauth is not enabled", name)
	}

	return &oauth2.Config{
		ClientID:     pc.ClientID,
		ClientSecret: pc.ClientSecret,
		RedirectURL:  pc.RedirectURL,
		Scopes:       strings.Split(pc.Scopes, ","),
		Endpoint:     f.endpoints[name].OAuth,
	}, name, nil
}

func (f *OAuthFederation) AuthCodeURL(provider, state string) (string, error) {
	oauthCfg, _, err := f.OAuthConfig(provider)
	if err != nil {
		return "", err
	}
	return oauthCfg.AuthCodeURL(state), nil
}

func (f *OAuthFederation) Exchange(ctx context.Context, provider, code string) (*FederatedProfile, error) {
	oauthCfg, name, err := f.OAuthConfig(provider)
	if err != nil {
		return nil, err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		logger.Warn("oauth_exchange_failed", map[string]interface{}{
			"provider": name,
			"error":    err.Error(),
		})
		return nil, errors.New("failed to exchange code for token")
	}

	client := oauthCfg.Client(ctx, token)
	switch name {
	case models.AuthProviderGoogle:
		return f.googleProfile(client)
	default:
		return f.githubProfile(client)
	}
}

func (f *OAuthFederation) googleProfile(client *http.Client) (*FederatedProfile, error) {
	var data struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := getJSON(client, f.endpoints[models.AuthProviderGoogle].UserInfoURL, "google", &data); err != nil {
		return nil, err
	}
	if data.ID == "" {
		return nil, errors.New("google: user id missing from profile")
	}
	if !data.VerifiedEmail {
		return nil, errors.New("google email is not verified")
	}

	return &FederatedProfile{
		Provider: models.AuthProviderGoogle,
		Subject:  data.ID,
		Email:    data.Email,
	}, nil
}

func (f *OAuthFederation) githubProfile(client *http.Client) (*FederatedProfile, error) {
	endpoints := f.endpoints[models.AuthProviderGitHub]

	var data struct {
		ID    int    `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := getJSON(client, endpoints.UserInfoURL, "github", &data); err != nil {
		return nil, err
	}

	if data.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if getJSON(client, endpoints.EmailsURL, "github", &emails) == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					data.Email = e.Email
					break
				}
			}
		}
	}

	if data.Email == "" {
		return nil, errors.New("github email not available")
	}

	return &FederatedProfile{
		Provider: models.AuthProviderGitHub,
		Subject:  fmt.Sprintf("%d", data.ID),
		Email:    data.Email,
	}, nil
}

func getJSON(client *http.Client, url, provider string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s api returned status %d: %s", provider, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
