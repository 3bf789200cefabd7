package handlers

import (
	"runtime"

	"github.com/gofiber/fiber/v2"
	"github.com/teamshare/backend/pkg/utils"
)

// Set at build time with -ldflags "-X github.com/teamshare/backend/internal/handlers.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

func GetVersion(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"version":    Version,
		"apiVersion": "v1",
		"commit":     Commit,
		"goVersion":  runtime.Version(),
	})
}
