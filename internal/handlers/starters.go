// This file handles the club-facing starter endpoints. Adding and editing a
// starter are not plain CRUD: both run the pairing engine, which maintains
// partner links and the act aggregates as side effects, all inside one
// transaction.
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
	"github.com/freestyle-cup/registration/internal/pairing"
)

// StarterRequest is the JSON body for both add and edit.
type StarterRequest struct {
	ClubID            string  `json:"club_id"`
	Firstname         string  `json:"firstname"`
	Lastname          string  `json:"lastname"`
	Birthdate         string  `json:"birthdate"` // RFC 3339
	SingleSonderpokal bool    `json:"single_sonderpokal"`
	SingleMale        bool    `json:"single_male"`
	SingleFemale      bool    `json:"single_female"`
	PairSonderpokal   bool    `json:"pair_sonderpokal"`
	Pair              bool    `json:"pair"`
	PartnerID         *string `json:"partner_id"`
	PartnerName       *string `json:"partner_name"`
}

// StarterResponse is what list endpoints return per starter.
type StarterResponse struct {
	ID                string  `json:"id"`
	ClubID            string  `json:"club_id"`
	Firstname         string  `json:"firstname"`
	Lastname          string  `json:"lastname"`
	Birthdate         string  `json:"birthdate"`
	SingleSonderpokal bool    `json:"single_sonderpokal"`
	SingleMale        bool    `json:"single_male"`
	SingleFemale      bool    `json:"single_female"`
	PairSonderpokal   bool    `json:"pair_sonderpokal"`
	Pair              bool    `json:"pair"`
	PartnerID         *string `json:"partner_id"`
	PartnerName       *string `json:"partner_name"`
}

func starterResponse(s models.Starter) StarterResponse {
	resp := StarterResponse{
		ID:                s.ID.String(),
		ClubID:            s.ClubID.String(),
		Firstname:         s.Firstname,
		Lastname:          s.Lastname,
		Birthdate:         s.Birthdate.UTC().Format(time.RFC3339),
		SingleSonderpokal: s.SingleSonderpokal,
		SingleMale:        s.SingleMale,
		SingleFemale:      s.SingleFemale,
		PairSonderpokal:   s.PairSonderpokal,
		Pair:              s.Pair,
		PartnerName:       s.PartnerName,
	}
	if s.PartnerID != nil {
		id := s.PartnerID.String()
		resp.PartnerID = &id
	}
	return resp
}

// pairingInput validates the request body into a pairing.Input.
func pairingInput(req StarterRequest, clubID uuid.UUID) (pairing.Input, error) {
	birthdate, err := time.Parse(time.RFC3339, req.Birthdate)
	if err != nil {
		return pairing.Input{}, errors.New("birthdate must be an RFC 3339 timestamp")
	}
	if req.Firstname == "" || req.Lastname == "" {
		return pairing.Input{}, errors.New("firstname and lastname are required")
	}

	in := pairing.Input{
		ClubID:            clubID,
		Firstname:         req.Firstname,
		Lastname:          req.Lastname,
		Birthdate:         birthdate,
		SingleSonderpokal: req.SingleSonderpokal,
		SingleMale:        req.SingleMale,
		SingleFemale:      req.SingleFemale,
		PairSonderpokal:   req.PairSonderpokal,
		Pair:              req.Pair,
		PartnerName:       req.PartnerName,
	}
	if req.PartnerID != nil && *req.PartnerID != "" {
		id, err := uuid.Parse(*req.PartnerID)
		if err != nil {
			return pairing.Input{}, errors.New("partner_id must be a uuid")
		}
		in.PartnerID = &id
	}
	return in, nil
}

// requestClub resolves which club a club-facing mutation applies to: the
// caller's own club, or the one named in the request when the caller is the
// admin.
func requestClub(c *fiber.Ctx, requested string) (uuid.UUID, bool) {
	if middleware.IsAdmin(c) && requested != "" {
		id, err := uuid.Parse(requested)
		return id, err == nil
	}
	return middleware.ClubID(c)
}

// AddStarter returns the handler for POST /api/v1/starters.
func AddStarter(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req StarterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		clubID, ok := requestClub(c, req.ClubID)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "no club for this account",
			})
		}

		in, err := pairingInput(req, clubID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		var starterID uuid.UUID
		txErr := db.Get().Transaction(func(tx *gorm.DB) error {
			id, err := pairing.Create(pairing.NewGormStore(tx), in)
			starterID = id
			return err
		})
		if txErr != nil {
			if errors.Is(txErr, pairing.ErrSelfPartner) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": txErr.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create starter",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"starter_id": starterID.String()})
	}
}

// EditStarter returns the handler for PUT /api/v1/starters/:id.
func EditStarter(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		starterID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid starter id",
			})
		}

		var req StarterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		clubID, ok := requestClub(c, req.ClubID)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "no club for this account",
			})
		}

		// Clubs can only edit their own starters.
		var existing models.Starter
		if err := db.Get().First(&existing, "id = ?", starterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "starter not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		if existing.ClubID != clubID && !middleware.IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "starter belongs to another club"})
		}

		in, err := pairingInput(req, existing.ClubID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		txErr := db.Get().Transaction(func(tx *gorm.DB) error {
			return pairing.Edit(pairing.NewGormStore(tx), starterID, in)
		})
		if txErr != nil {
			switch {
			case errors.Is(txErr, pairing.ErrSelfPartner):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": txErr.Error()})
			case errors.Is(txErr, pairing.ErrStarterNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": txErr.Error()})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to update starter",
				})
			}
		}

		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// DeleteStarter returns the handler for DELETE /api/v1/starters/:id.
// Deleting a starter also removes its acts and detaches its partner.
func DeleteStarter(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		starterID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid starter id",
			})
		}

		var existing models.Starter
		if err := db.Get().First(&existing, "id = ?", starterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "starter not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		if clubID, ok := middleware.ClubID(c); !middleware.IsAdmin(c) && (!ok || existing.ClubID != clubID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "starter belongs to another club"})
		}

		txErr := db.Get().Transaction(func(tx *gorm.DB) error {
			return pairing.Remove(pairing.NewGormStore(tx), starterID)
		})
		if txErr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to delete starter",
			})
		}

		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// ListClubStarters returns the handler for GET /api/v1/clubs/:id/starters.
func ListClubStarters(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clubID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid club id"})
		}
		if own, ok := middleware.ClubID(c); !middleware.IsAdmin(c) && (!ok || own != clubID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your club"})
		}

		var starters []models.Starter
		if err := db.Get().
			Where("club_id = ?", clubID).
			Order("lastname, firstname").
			Find(&starters).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch starters",
			})
		}

		response := make([]StarterResponse, 0, len(starters))
		for _, s := range starters {
			response = append(response, starterResponse(s))
		}
		return c.JSON(response)
	}
}

// ListStarters returns the handler for GET /api/v1/admin/starters: every
// starter across all clubs.
func ListStarters(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var starters []models.Starter
		if err := db.Get().
			Order("lastname, firstname").
			Find(&starters).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch starters",
			})
		}

		response := make([]StarterResponse, 0, len(starters))
		for _, s := range starters {
			response = append(response, starterResponse(s))
		}
		return c.JSON(response)
	}
}
