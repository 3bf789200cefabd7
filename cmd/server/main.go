package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/teamshare/backend/internal/config"
	"github.com/teamshare/backend/internal/database"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/handlers"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/metrics"
	"github.com/teamshare/backend/internal/middleware"
	"github.com/teamshare/backend/internal/storage"
	"github.com/teamshare/backend/pkg/logger"
	"github.com/teamshare/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	oauth := identity.NewOAuthFederation(cfg.SSO)
	providers := oauth.EnabledProviders()
	var federation identity.Federation
	if len(providers) > 0 {
		federation = oauth
	}

	identities := identity.NewService(db, federation)
	files := docstore.NewGormFiles(db)
	accounts := docstore.NewGormAccounts(db)

	panels := handlers.NewPanelRegistry(handlers.PanelRegistryConfig{
		Files:           files,
		Blobs:           storageClient,
		SignedURLExpiry: cfg.Sharing.SignedURLExpiry,
		Size:            cfg.Sharing.PanelCacheSize,
		IdleTimeout:     cfg.Sharing.PanelIdleTimeout,
	})

	authHandler := handlers.NewAuthHandler(identities, accounts, panels)
	router := &handlers.Router{
		Auth:           authHandler,
		SSO:            handlers.NewSSOHandler(authHandler, providers, cfg.Server.FrontendURL, cfg.Sharing.OnboardingTimeout),
		Files:          handlers.NewFilesHandler(files, storageClient, panels, cfg.Sharing.SignedURLExpiry),
		AuthMiddleware: middleware.NewAuthMiddleware(identities),
	}

	app := fiber.New(handlers.AppConfig(cfg.Server.BodyLimitMB * 1024 * 1024))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.FrontendURL))
	app.Use(metrics.Middleware())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	router.Mount(app)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":          cfg.Server.Port,
		"address":       listenAddr,
		"body_limit":    fmt.Sprintf("%dMB", cfg.Server.BodyLimitMB),
		"db_driver":     cfg.DB.Driver,
		"sso_providers": providers,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
