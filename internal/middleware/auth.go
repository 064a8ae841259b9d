// Package middleware contains HTTP middleware functions for the registration
// server. Middleware sits between the HTTP server and route handlers — it runs
// on every request that passes through it, making it the right place for
// cross-cutting concerns like authentication and permission checks.
package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/config"
	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/models"
)

// TokenValidity is how long an issued session token stays valid.
const TokenValidity = 31 * 24 * time.Hour

// Claims is the payload of our session tokens: just the standard fields, with
// Subject carrying the user's uuid. Everything else (admin flag, club) is
// loaded fresh from the database on every request, so permission changes take
// effect immediately instead of at token expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// NewToken issues a signed session token for the given user.
func NewToken(secret string, userID uuid.UUID, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenValidity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies a session token and returns the user id it carries.
func ParseToken(secret, tokenStr string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, errors.New("token missing subject")
	}
	return uuid.Parse(claims.Subject)
}

// Auth returns a Fiber middleware handler that:
//  1. Validates the JWT from the "Authorization: Bearer <token>" header
//  2. Loads the matching user record from the database
//  3. Stores the user's id, admin flag and club in the request context
//     (c.Locals) so downstream handlers can read them without re-parsing
//
// This is a closure — it captures cfg and db so they're available on every
// request without global variables.
func Auth(cfg *config.Config, db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		var user models.User
		if err := db.Get().First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "unknown user",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "database error",
			})
		}

		c.Locals("userID", user.ID.String())
		c.Locals("isAdmin", user.IsAdmin)
		if user.ClubID != nil {
			c.Locals("clubID", user.ClubID.String())
		}

		return c.Next()
	}
}

// UserID reads the authenticated user's id stored by Auth.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	s, _ := c.Locals("userID").(string)
	id, err := uuid.Parse(s)
	return id, err == nil
}

// IsAdmin reads the admin flag stored by Auth.
func IsAdmin(c *fiber.Ctx) bool {
	admin, _ := c.Locals("isAdmin").(bool)
	return admin
}

// ClubID reads the authenticated user's club stored by Auth.
// ok is false for users without a club (the admin account).
func ClubID(c *fiber.Ctx) (uuid.UUID, bool) {
	s, _ := c.Locals("clubID").(string)
	id, err := uuid.Parse(s)
	return id, err == nil
}
