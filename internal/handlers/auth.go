package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/middleware"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/internal/services"
	"github.com/teamshare/backend/pkg/logger"
	"github.com/teamshare/backend/pkg/utils"
)

type AuthHandler struct {
	Identity *identity.Service
	Accounts docstore.Accounts
	Panels   *PanelRegistry
}

func NewAuthHandler(identities *identity.Service, accounts docstore.Accounts, panels *PanelRegistry) *AuthHandler {
	return &AuthHandler{Identity: identities, Accounts: accounts, Panels: panels}
}

type RegisterRequest struct {
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirmPassword"`
	Role            models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token    string              `json:"token"`
	Identity identity.Identity   `json:"identity"`
	Account  *models.UserAccount `json:"account,omitempty"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	registration := services.NewRegistration(h.Identity, h.Accounts)
	outcome, err := registration.SubmitCredentials(c.Context(), req.Email, req.Password, req.ConfirmPassword, req.Role)
	if err != nil {
		logger.Warn("registration_failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		return respondError(c, err, "registration failed")
	}

	return utils.Success(c, fiber.StatusCreated, outcome)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	id, err := h.Identity.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return utils.Error(c, fiber.StatusUnauthorized, err.Error())
		}
		logger.Error("sign_in_lookup_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed signing in")
	}

	resp, err := h.startSession(c, id)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	logger.InfoWithUser(id.ID, "user_signed_in", map[string]interface{}{
		"email": id.Email,
	})
	return utils.Success(c, fiber.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	current := middleware.GetCurrentIdentity(c)
	h.Panels.SignOut(current.ID)

	logger.InfoWithUser(current.ID, "user_signed_out", nil)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "signed out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	current := middleware.GetCurrentIdentity(c)

	data := fiber.Map{"identity": current}
	account, err := h.Accounts.Get(c.Context(), current.ID)
	switch {
	case err == nil:
		data["account"] = account
	case errors.Is(err, docstore.ErrNotFound):
		data["account"] = nil
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading account")
	}

	return utils.Success(c, fiber.StatusOK, data)
}

// startSession issues a token for id and makes it the current identity of the
// user's panels.
func (h *AuthHandler) startSession(c *fiber.Ctx, id identity.Identity) (*SessionResponse, error) {
	token, err := utils.GenerateToken(id.ID, id.Email)
	if err != nil {
		return nil, err
	}
	h.Panels.Session(id.ID).Set(&id)

	resp := &SessionResponse{Token: token, Identity: id}
	if account, err := h.Accounts.Get(c.Context(), id.ID); err == nil {
		resp.Account = account
	}
	return resp, nil
}
