package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/pkg/logger"
	"github.com/teamshare/backend/pkg/utils"
)

const currentIdentityKey = "currentIdentity"

// IdentityResolver confirms that a token's subject still exists.
type IdentityResolver interface {
	Lookup(ctx context.Context, id string) (identity.Identity, error)
}

type AuthMiddleware struct {
	Identities IdentityResolver
}

func NewAuthMiddleware(identities IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{Identities: identities}
}

func CORS(frontendURL string) fiber.Handler {
	origins := "http://localhost:3000,http://127.0.0.1:3000"
	if frontendURL != "" && !strings.Contains(origins, frontendURL) {
		origins += "," + frontendURL
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		logger.Warn("jwt_invalid_format", map[string]interface{}{
			"ip":          c.IP(),
			"path":        c.Path(),
			"auth_header": authHeader[:min(len(authHeader), 20)] + "...",
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	current, err := a.Identities.Lookup(c.Context(), claims.UserID)
	if err != nil {
		logger.Warn("jwt_user_not_found", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID,
		})
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	c.Locals(currentIdentityKey, &current)
	c.Locals("userID", current.ID)
	return c.Next()
}

func GetCurrentIdentity(c *fiber.Ctx) *identity.Identity {
	value := c.Locals(currentIdentityKey)
	if value == nil {
		return nil
	}
	current, ok := value.(*identity.Identity)
	if !ok {
		return nil
	}
	return current
}
