// This file handles account endpoints: register, login and whoami.
// Tokens are HS256 JWTs issued by middleware.NewToken; the middleware
// verifies them and loads the user on every authenticated request.
package handlers

import (
	"errors"
	"time"
	"unicode"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/config"
	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/middleware"
	"github.com/freestyle-cup/registration/internal/models"
)

// CheckPassword validates the password rule: at least 8 characters drawn from
// at least 3 of the 4 classes (lower, upper, digit, other).
func CheckPassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must have at least 8 characters")
	}

	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	classes := 0
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		return errors.New("password must contain at least 3 of: lowercase, uppercase, digits, special characters")
	}
	return nil
}

// RegisterRequest is the JSON body for POST /api/v1/register.
// ClubName is optional: when set, the club is created together with the
// account; otherwise the account starts clubless and creates one later.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	ClubName string `json:"club_name"`
}

// Register returns the handler for POST /api/v1/register (public, gated by
// the registration window).
func Register(cfg *config.Config, db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !middleware.CapabilitiesAt(cfg, time.Now().UTC()).CanRegister {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "registration is closed",
			})
		}

		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Email == "" || req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "email and name are required",
			})
		}
		if err := CheckPassword(req.Password); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}

		user := models.User{
			ID:           uuid.New(),
			Email:        req.Email,
			Name:         req.Name,
			PasswordHash: string(hash),
		}
		txErr := db.Get().Transaction(func(tx *gorm.DB) error {
			if req.ClubName != "" {
				club := models.Club{ID: uuid.New(), Name: req.ClubName}
				if err := tx.Create(&club).Error; err != nil {
					return err
				}
				user.ClubID = &club.ID
			}
			return tx.Create(&user).Error
		})
		if txErr != nil {
			// Most likely a duplicate email or club name; don't reveal which.
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "could not create account",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user_id": user.ID.String()})
	}
}

// LoginRequest is the JSON body for POST /api/v1/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login returns the handler for POST /api/v1/login. On success it returns a
// bearer token for the Authorization header.
func Login(cfg *config.Config, db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		var user models.User
		if err := db.Get().First(&user, "email = ?", req.Email).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Same answer as a wrong password.
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid credentials",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
		}

		token, err := middleware.NewToken(cfg.JWTSecret, user.ID, time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}

		return c.JSON(fiber.Map{"token": token})
	}
}

// Whoami returns the handler for GET /api/v1/whoami: the authenticated
// identity as the middleware sees it.
func Whoami(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid user"})
		}

		var user models.User
		if err := db.Get().First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}

		resp := fiber.Map{
			"user_id":  user.ID.String(),
			"email":    user.Email,
			"name":     user.Name,
			"is_admin": user.IsAdmin,
		}
		if user.ClubID != nil {
			resp["club_id"] = user.ClubID.String()
		}
		return c.JSON(resp)
	}
}
