// Package middleware contains HTTP middleware functions for the registration
// server. This file handles access control: the admin gate for operator
// endpoints and the registration-window capabilities for club endpoints.
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/freestyle-cup/registration/internal/config"
)

// RequireAdmin returns a middleware handler that allows only the event
// administrator through. It must be used AFTER Auth, because Auth is what
// populates the admin flag in the request context.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin required",
			})
		}
		return c.Next()
	}
}

// Capabilities describes what club-facing actions are currently open,
// derived purely from the configured registration window and the clock.
type Capabilities struct {
	CanRegister        bool `json:"can_register"`
	CanCreateClub      bool `json:"can_create_club"`
	CanRegisterStarter bool `json:"can_register_starter"`
	CanRegisterJudge   bool `json:"can_register_judge"`
	CanUploadMusic     bool `json:"can_upload_music"`
}

// CapabilitiesAt computes the capability set for a given instant.
// An unconfigured window (zero times) leaves everything closed.
func CapabilitiesAt(cfg *config.Config, now time.Time) Capabilities {
	inRegisterPeriod := !cfg.RegistrationStart.IsZero() &&
		!now.Before(cfg.RegistrationStart) && !now.After(cfg.RegistrationEnd)
	canUpload := !cfg.MusicUploadEnd.IsZero() &&
		!now.Before(cfg.RegistrationStart) && !now.After(cfg.MusicUploadEnd)

	return Capabilities{
		CanRegister:        inRegisterPeriod,
		CanCreateClub:      inRegisterPeriod,
		CanRegisterStarter: inRegisterPeriod,
		CanRegisterJudge:   inRegisterPeriod,
		CanUploadMusic:     canUpload,
	}
}

// RequireCapability returns a middleware handler that rejects a request when
// the selected capability is closed. Admins bypass the window: the operator
// can always fix data, even after registration closed.
func RequireCapability(cfg *config.Config, pick func(Capabilities) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsAdmin(c) {
			return c.Next()
		}
		if !pick(CapabilitiesAt(cfg, time.Now().UTC())) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "this action is closed",
			})
		}
		return c.Next()
	}
}
