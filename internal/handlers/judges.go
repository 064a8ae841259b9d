// This file handles the club judge endpoints. Judges have no pairing or
// timeplan coupling; this is plain per-club CRUD.
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/middleware"
	"github.com/freestyle-cup/registration/internal/models"
)

// JudgeRequest is the JSON body for adding a judge.
type JudgeRequest struct {
	ClubID    string `json:"club_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Birthdate string `json:"birthdate"` // RFC 3339
}

// JudgeResponse is what judge endpoints return.
type JudgeResponse struct {
	ID        string `json:"id"`
	ClubID    string `json:"club_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Birthdate string `json:"birthdate"`
}

// AddJudge returns the handler for POST /api/v1/judges.
func AddJudge(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req JudgeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Firstname == "" || req.Lastname == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "firstname and lastname are required",
			})
		}
		birthdate, err := time.Parse(time.RFC3339, req.Birthdate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "birthdate must be an RFC 3339 timestamp",
			})
		}

		clubID, ok := requestClub(c, req.ClubID)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "no club for this account"})
		}

		judge := models.Judge{
			ID:        uuid.New(),
			ClubID:    clubID,
			Firstname: req.Firstname,
			Lastname:  req.Lastname,
			Birthdate: birthdate,
		}
		if err := db.Get().Create(&judge).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create judge",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(JudgeResponse{
			ID:        judge.ID.String(),
			ClubID:    judge.ClubID.String(),
			Firstname: judge.Firstname,
			Lastname:  judge.Lastname,
			Birthdate: judge.Birthdate.UTC().Format(time.RFC3339),
		})
	}
}

// DeleteJudge returns the handler for DELETE /api/v1/judges/:id.
func DeleteJudge(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		judgeID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid judge id"})
		}

		var judge models.Judge
		if err := db.Get().First(&judge, "id = ?", judgeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "judge not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		if own, ok := middleware.ClubID(c); !middleware.IsAdmin(c) && (!ok || own != judge.ClubID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "judge belongs to another club"})
		}

		if err := db.Get().Delete(&models.Judge{}, "id = ?", judgeID).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to delete judge",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// ListClubJudges returns the handler for GET /api/v1/clubs/:id/judges.
func ListClubJudges(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clubID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid club id"})
		}
		if own, ok := middleware.ClubID(c); !middleware.IsAdmin(c) && (!ok || own != clubID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your club"})
		}

		var judges []models.Judge
		if err := db.Get().
			Where("club_id = ?", clubID).
			Order("lastname, firstname").
			Find(&judges).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch judges",
			})
		}

		response := make([]JudgeResponse, 0, len(judges))
		for _, j := range judges {
			response = append(response, JudgeResponse{
				ID:        j.ID.String(),
				ClubID:    j.ClubID.String(),
				Firstname: j.Firstname,
				Lastname:  j.Lastname,
				Birthdate: j.Birthdate.UTC().Format(time.RFC3339),
			})
		}
		return c.JSON(response)
	}
}
