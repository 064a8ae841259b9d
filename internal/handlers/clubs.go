// This file handles the club endpoints: creating and renaming a club and
// reading its data back.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/middleware"
	"github.com/freestyle-cup/registration/internal/models"
)

// ClubRequest is the JSON body for create and rename.
type ClubRequest struct {
	Name string `json:"name"`
}

// ClubResponse is what club endpoints return. Payment is what the club has
// paid so far; unset until an admin records a payment.
type ClubResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Payment *float64 `json:"payment"`
}

// PaymentRequest is the JSON body for recording a club payment.
type PaymentRequest struct {
	Amount float64 `json:"amount"`
}

// CreateClub returns the handler for POST /api/v1/clubs. The creating user
// becomes a member of the new club; one account manages one club.
func CreateClub(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid user"})
		}
		if _, hasClub := middleware.ClubID(c); hasClub {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "account already manages a club",
			})
		}

		var req ClubRequest
		if err := c.BodyParser(&req); err != nil || req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}

		club := models.Club{ID: uuid.New(), Name: req.Name}
		txErr := db.Get().Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&club).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).
				Where("id = ?", userID).
				Update("club_id", club.ID).Error
		})
		if txErr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create club",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(ClubResponse{
			ID:   club.ID.String(),
			Name: club.Name,
		})
	}
}

// RenameClub returns the handler for PUT /api/v1/clubs/:id.
func RenameClub(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clubID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid club id"})
		}
		if own, ok := middleware.ClubID(c); !middleware.IsAdmin(c) && (!ok || own != clubID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your club"})
		}

		var req ClubRequest
		if err := c.BodyParser(&req); err != nil || req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}

		result := db.Get().Model(&models.Club{}).
			Where("id = ?", clubID).
			Update("name", req.Name)
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to rename club",
			})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "club not found"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// GetClub returns the handler for GET /api/v1/clubs/:id.
func GetClub(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clubID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid club id"})
		}

		var club models.Club
		if err := db.Get().First(&club, "id = ?", clubID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "club not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}

		return c.JSON(ClubResponse{ID: club.ID.String(), Name: club.Name, Payment: club.Payment})
	}
}

// SetClubPayment returns the handler for PUT /api/v1/admin/clubs/:id/payment.
// Admins record the amount a club has paid.
func SetClubPayment(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clubID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid club id"})
		}

		var req PaymentRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		result := db.Get().Model(&models.Club{}).
			Where("id = ?", clubID).
			Update("payment", req.Amount)
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to record payment",
			})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "club not found"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
