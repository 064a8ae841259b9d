package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/freestyle-cup/registration/internal/config"
	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/middleware"
)

// SystemStatus returns the handler for GET /api/v1/status. It is public so
// the frontend can decide which registration forms to show before login.
func SystemStatus(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()
		caps := middleware.CapabilitiesAt(cfg, now)
		return c.JSON(fiber.Map{
			"time":         now.Format(time.RFC3339),
			"capabilities": caps,
		})
	}
}

// ReloadDatabase returns the handler for POST /api/v1/admin/reload-db.
// It reopens the connection pool against the configured DSN; requests that
// are already in flight keep their old handle.
func ReloadDatabase(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := db.Reload(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to reload database connection",
			})
		}
		return c.JSON(fiber.Map{"status": "reloaded"})
	}
}
