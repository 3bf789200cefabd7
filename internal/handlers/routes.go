package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teamshare/backend/internal/middleware"
)

type Router struct {
	Auth           *AuthHandler
	SSO            *SSOHandler
	Files          *FilesHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// AppConfig is the fiber configuration the server runs with. Handlers keep
// path values past the request (panels, OAuth state), so fiber must not hand
// out strings backed by its pooled buffers.
func AppConfig(bodyLimitBytes int) fiber.Config {
	return fiber.Config{
		BodyLimit: bodyLimitBytes,
		Immutable: true,
	}
}

// Mount registers the /api routes on app.
func (r *Router) Mount(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/version", GetVersion)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", r.Auth.Register)
	authRoutes.Post("/login", r.Auth.Login)
	authRoutes.Post("/logout", r.AuthMiddleware.RequireAuth, r.Auth.Logout)
	authRoutes.Get("/me", r.AuthMiddleware.RequireAuth, r.Auth.Me)
	authRoutes.Post("/onboarding", r.SSO.CompleteOnboarding)

	ssoRoutes := authRoutes.Group("/sso")
	ssoRoutes.Get("/providers", r.SSO.ListProviders)
	ssoRoutes.Get("/oauth/:provider", r.SSO.GetLoginRedirect)
	ssoRoutes.Get("/oauth/:provider/callback", r.SSO.HandleOAuthCallback)

	fileRoutes := api.Group("/teams/:teamId/files", r.AuthMiddleware.RequireAuth)
	fileRoutes.Get("/", r.Files.List)
	fileRoutes.Post("/", r.Files.Upload)
	fileRoutes.Get("/status", r.Files.Status)
	fileRoutes.Post("/upload/cancel", r.Files.CancelUpload)
	fileRoutes.Get("/:id/download", r.Files.Download)
	fileRoutes.Delete("/:id", r.Files.Delete)
}
