package handlers

import "github.com/gofiber/fiber/v2"

// HealthCheck handles GET /health. It is intentionally lightweight — no
// database queries, no authentication — so probes and load balancers can
// use it to decide whether the instance is reachable.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
