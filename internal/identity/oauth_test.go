package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamshare/backend/internal/config"
	"github.com/teamshare/backend/internal/models"
	"golang.org/x/oauth2"
)

func newProviderServer(t *testing.T, userInfo map[string]interface{}, emails []map[string]interface{}) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-token",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(userInfo)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testFederation(server *httptest.Server) *OAuthFederation {
	federation := NewOAuthFederation(config.SSOConfig{
		Google: config.OAuthProviderConfig{Enabled: true, ClientID: "g", ClientSecret: "gs", Scopes: "openid,email"},
		GitHub: config.OAuthProviderConfig{Enabled: true, ClientID: "h", ClientSecret: "hs", Scopes: "read:user"},
	})
	for name := range federation.endpoints {
		federation.endpoints[name] = providerEndpoints{
			OAuth:       oauth2.Endpoint{AuthURL: server.URL + "/authorize", TokenURL: server.URL + "/token"},
			UserInfoURL: server.URL + "/user",
			EmailsURL:   server.URL + "/user/emails",
		}
	}
	return federation
}

func TestOAuthFederation_OAuthConfig(t *testing.T) {
	federation := NewOAuthFederation(config.SSOConfig{
		Google: config.OAuthProviderConfig{Enabled: true, ClientID: "google-client-id", Scopes: "openid,email,profile"},
	})

	oauthCfg, name, err := federation.OAuthConfig("Google")
	require.NoError(t, err)
	assert.Equal(t, models.AuthProviderGoogle, name)
	assert.Equal(t, "google-client-id", oauthCfg.ClientID)
	assert.Equal(t, []string{"openid", "email", "profile"}, oauthCfg.Scopes)

	_, _, err = federation.OAuthConfig("github")
	assert.EqualError(t, err, "github oauth is not enabled")

	_, _, err = federation.OAuthConfig("myspace")
	assert.Error(t, err)

	assert.Equal(t, []models.AuthProvider{models.AuthProviderGoogle}, federation.EnabledProviders())
}

func TestOAuthFederation_AuthCodeURL(t *testing.T) {
	server := newProviderServer(t, nil, nil)
	federation := testFederation(server)

	raw, err := federation.AuthCodeURL("google", "state-123")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "state-123", parsed.Query().Get("state"))
	assert.Equal(t, "g", parsed.Query().Get("client_id"))
}

func TestOAuthFederation_ExchangeGoogle(t *testing.T) {
	server := newProviderServer(t, map[string]interface{}{
		"id":             "10769150350006150715113082367",
		"email":          "lead@team.io",
		"verified_email": true,
	}, nil)
	federation := testFederation(server)

	profile, err := federation.Exchange(context.Background(), "google", "good-code")
	require.NoError(t, err)
	assert.Equal(t, &FederatedProfile{
		Provider: models.AuthProviderGoogle,
		Subject:  "10769150350006150715113082367",
		Email:    "lead@team.io",
	}, profile)

	_, err = federation.Exchange(context.Background(), "google", "bad-code")
	assert.EqualError(t, err, "failed to exchange code for token")
}

func TestOAuthFederation_ExchangeGitHubFallsBackToEmails(t *testing.T) {
	server := newProviderServer(t,
		map[string]interface{}{"id": 42, "login": "octo"},
		[]map[string]interface{}{
			{"email": "old@team.io", "primary": false, "verified": true},
			{"email": "octo@team.io", "primary": true, "verified": true},
		},
	)
	federation := testFederation(server)

	profile, err := federation.Exchange(context.Background(), "github", "good-code")
	require.NoError(t, err)
	assert.Equal(t, "42", profile.Subject)
	assert.Equal(t, "octo@team.io", profile.Email)
}

func TestOAuthFederation_GoogleUnverifiedEmail(t *testing.T) {
	server := newProviderServer(t, map[string]interface{}{
		"id":             "1",
		"email":          "lead@team.io",
		"verified_email": false,
	}, nil)
	federation := testFederation(server)

	_, err := federation.Exchange(context.Background(), "google", "good-code")
	assert.EqualError(t, err, "google email is not verified")
}
