package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/xid"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/internal/services"
	"github.com/teamshare/backend/pkg/logger"
	"github.com/teamshare/backend/pkg/utils"
)

const stateCacheSize = 4096

// SSOHandler runs the OAuth redirect flow. Issued states and identities still
// waiting for a role both live in expiring caches.
type SSOHandler struct {
	Auth        *AuthHandler
	Providers   []models.AuthProvider
	FrontendURL string

	states     *expirable.LRU[string, string]
	onboarding *expirable.LRU[string, *services.Registration]
}

func NewSSOHandler(auth *AuthHandler, providers []models.AuthProvider, frontendURL string, onboardingTimeout time.Duration) *SSOHandler {
	return &SSOHandler{
		Auth:        auth,
		Providers:   providers,
		FrontendURL: frontendURL,
		states:      expirable.NewLRU[string, string](stateCacheSize, nil, onboardingTimeout),
		onboarding:  expirable.NewLRU[string, *services.Registration](stateCacheSize, nil, onboardingTimeout),
	}
}

func (h *SSOHandler) ListProviders(c *fiber.Ctx) error {
	providers := []fiber.Map{}
	for _, provider := range h.Providers {
		displayName := "Google"
		if provider == models.AuthProviderGitHub {
			displayName = "GitHub"
		}
		providers = append(providers, fiber.Map{
			"name":        provider,
			"displayName": displayName,
			"type":        "oauth",
		})
	}
	return utils.Success(c, fiber.StatusOK, providers)
}

func (h *SSOHandler) GetLoginRedirect(c *fiber.Ctx) error {
	provider := fiberutils.CopyString(c.Params("provider"))

	state, err := generateState()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating state")
	}

	authCodeURL, err := h.Auth.Identity.AuthCodeURL(provider, state)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	h.states.Add(state, provider)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"url": authCodeURL,
	})
}

func (h *SSOHandler) HandleOAuthCallback(c *fiber.Ctx) error {
	provider := fiberutils.CopyString(c.Params("provider"))
	code := c.Query("code")
	state := c.Query("state")

	if code == "" {
		return h.redirectError(c, "authorization code is required")
	}
	// Remove reports whether this call consumed the state, so a replayed
	// callback racing the first one loses.
	expected, ok := h.states.Peek(state)
	if !ok || expected != provider || !h.states.Remove(state) {
		logger.Warn("oauth_state_mismatch", map[string]interface{}{
			"provider": provider,
			"ip":       c.IP(),
		})
		return h.redirectError(c, "invalid or expired state")
	}

	registration := services.NewRegistration(h.Auth.Identity, h.Auth.Accounts)
	outcome, err := registration.SignInWithFederatedProvider(c.Context(), provider, code)
	if err != nil {
		return h.redirectError(c, err.Error())
	}

	if outcome.State == services.StateAwaitingRole {
		onboardingID := xid.New().String()
		h.onboarding.Add(onboardingID, registration)
		logger.Info("federated_onboarding_started", map[string]interface{}{
			"provider":      provider,
			"onboarding_id": onboardingID,
		})
		return c.Redirect(h.FrontendURL + "/onboarding?onboarding=" + url.QueryEscape(onboardingID))
	}

	session, err := h.Auth.startSession(c, *outcome.Identity)
	if err != nil {
		return h.redirectError(c, "failed to generate token")
	}
	return c.Redirect(h.FrontendURL + "/auth/callback?token=" + url.QueryEscape(session.Token) +
		"&message=" + url.QueryEscape(outcome.Message))
}

type OnboardingRequest struct {
	OnboardingID string          `json:"onboardingID"`
	Role         models.UserRole `json:"role"`
}

func (h *SSOHandler) CompleteOnboarding(c *fiber.Ctx) error {
	var req OnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	registration, ok := h.onboarding.Get(req.OnboardingID)
	if !ok {
		return utils.Error(c, fiber.StatusNotFound, "onboarding session not found or expired")
	}

	outcome, err := registration.CompleteFederatedOnboarding(c.Context(), req.Role)
	if err != nil {
		return respondError(c, err, "failed completing registration")
	}
	if outcome.Route != services.RouteDashboard {
		h.onboarding.Remove(req.OnboardingID)
		return utils.Error(c, fiber.StatusConflict, "registration already completed")
	}
	h.onboarding.Remove(req.OnboardingID)

	session, err := h.Auth.startSession(c, *outcome.Identity)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"outcome": outcome,
		"session": session,
	})
}

func (h *SSOHandler) redirectError(c *fiber.Ctx, message string) error {
	return c.Redirect(h.FrontendURL + "/login?error=" + url.QueryEscape(message))
}

func generateState() (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(nonce), nil
}
