// This file handles the act endpoints. Acts themselves are created and
// deleted only by the pairing engine; what can be edited here is their
// presentation (name, description), their running order, and the song
// metadata. The startlist is the public read model joining acts to their
// derived category.
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

// ActResponse is the act read model handed to clients, including the derived
// category and the participant starters.
type ActResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description"`
	IsPair       bool             `json:"is_pair"`
	Order        *int64           `json:"order"`
	SongFile     *string          `json:"song_file"`
	SongFileName *string          `json:"song_file_name"`
	SongChecked  bool             `json:"song_checked"`
	Category     *string          `json:"category"`
	StartedAt    *string          `json:"started_at"`
	EndedAt      *string          `json:"ended_at"`
	Participants []ParticipantRef `json:"participants"`
}

// ParticipantRef identifies one participant of an act.
type ParticipantRef struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func actResponse(db *gorm.DB, view models.ActView) (ActResponse, error) {
	var participants []models.Starter
	err := db.
		Joins("JOIN act_participants ON act_participants.starter_id = starters.id").
		Where("act_participants.act_id = ?", view.ID).
		Find(&participants).Error
	if err != nil {
		return ActResponse{}, err
	}

	refs := make([]ParticipantRef, 0, len(participants))
	for _, p := range participants {
		refs = append(refs, ParticipantRef{
			ID:        p.ID.String(),
			Firstname: p.Firstname,
			Lastname:  p.Lastname,
		})
	}

	return ActResponse{
		ID:           view.ID.String(),
		Name:         view.Name,
		Description:  view.Description,
		IsPair:       view.IsPair,
		Order:        view.Position,
		SongFile:     view.SongFile,
		SongFileName: view.SongFileName,
		SongChecked:  view.SongChecked,
		Category:     view.Category,
		StartedAt:    formatOptionalTime(view.StartedAt),
		EndedAt:      formatOptionalTime(view.EndedAt),
		Participants: refs,
	}, nil
}

// Startlist returns the handler for GET /api/v1/startlist (public): all acts
// in running order, grouped by category order.
func Startlist(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		handle := db.Get()

		var views []models.ActView
		err := handle.
			Joins("JOIN categories ON categories.name = act_overview.category").
			Order("categories.position, act_overview.position").
			Find(&views).Error
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch startlist",
			})
		}

		response := make([]ActResponse, 0, len(views))
		for _, view := range views {
			resp, err := actResponse(handle, view)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to fetch startlist",
				})
			}
			response = append(response, resp)
		}
		return c.JSON(response)
	}
}

// GetAct returns the handler for GET /api/v1/acts/:id.
func GetAct(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid act id"})
		}

		handle := db.Get()
		var view models.ActView
		if err := handle.First(&view, "id = ?", actID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "act not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}

		resp, err := actResponse(handle, view)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		return c.JSON(resp)
	}
}

// mayTouchAct checks that the act has a participant of the caller's club, or
// that the caller is the admin.
func mayTouchAct(c *fiber.Ctx, db *gorm.DB, actID uuid.UUID) (bool, error) {
	if middleware.IsAdmin(c) {
		return true, nil
	}
	clubID, ok := middleware.ClubID(c)
	if !ok {
		return false, nil
	}
	var count int64
	err := db.Model(&models.ActParticipant{}).
		Joins("JOIN starters ON starters.id = act_participants.starter_id").
		Where("act_participants.act_id = ? AND starters.club_id = ?", actID, clubID).
		Count(&count).Error
	return count > 0, err
}

// EditActRequest is the JSON body for PUT /api/v1/acts/:id.
type EditActRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// EditAct returns the handler for PUT /api/v1/acts/:id: clubs name and
// describe their own acts.
func EditAct(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid act id"})
		}
		var req EditActRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		handle := db.Get()
		allowed, err := mayTouchAct(c, handle, actID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "act belongs to another club"})
		}

		result := handle.Model(&models.Act{}).
			Where("id = ?", actID).
			Updates(map[string]any{"name": req.Name, "description": req.Description})
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update act"})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "act not found"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// SetActOrderRequest is the JSON body for PUT /api/v1/admin/acts/:id/order.
// A null order takes the act out of the running order.
type SetActOrderRequest struct {
	Order *int64 `json:"order"`
}

// SetActOrder returns the handler for PUT /api/v1/admin/acts/:id/order.
func SetActOrder(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid act id"})
		}
		var req SetActOrderRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := db.Get().Model(&models.Act{}).
			Where("id = ?", actID).
			Update("position", req.Order)
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to set order"})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "act not found"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// SaveActSongRequest is the JSON body for PUT /api/v1/acts/:id/song.
// Only the metadata is recorded here; the file itself goes to blob storage
// through a separate upload channel.
type SaveActSongRequest struct {
	SongFile     string `json:"song_file"`
	SongFileName string `json:"song_file_name"`
}

// SaveActSong returns the handler for PUT /api/v1/acts/:id/song.
// Saving new music resets the checked flag: the operator verifies each file.
func SaveActSong(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid act id"})
		}
		var req SaveActSongRequest
		if err := c.BodyParser(&req); err != nil || req.SongFile == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "song_file is required"})
		}

		handle := db.Get()
		allowed, err := mayTouchAct(c, handle, actID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "act belongs to another club"})
		}

		result := handle.Model(&models.Act{}).
			Where("id = ?", actID).
			Updates(map[string]any{
				"song_file":      req.SongFile,
				"song_file_name": req.SongFileName,
				"song_checked":   false,
			})
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save song"})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "act not found"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// SetSongCheckedRequest is the JSON body for PUT /api/v1/admin/acts/:id/song-checked.
type SetSongCheckedRequest struct {
	Checked bool `json:"checked"`
}

// SetSongChecked returns the handler for PUT /api/v1/admin/acts/:id/song-checked:
// marks an uploaded song as verified for playback.
func SetSongChecked(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid act id"})
		}
		var req SetSongCheckedRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := db.Get().Model(&models.Act{}).
			Where("id = ?", actID).
			Update("song_checked", req.Checked)
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update act"})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "act not found"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// ListClubActs returns the handler for GET /api/v1/clubs/:id/acts.
func ListClubActs(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clubID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid club id"})
		}
		if own, ok := middleware.ClubID(c); !middleware.IsAdmin(c) && (!ok || own != clubID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your club"})
		}

		handle := db.Get()
		var views []models.ActView
		err = handle.
			Distinct("act_overview.*").
			Joins("JOIN act_participants ON act_participants.act_id = act_overview.id").
			Joins("JOIN starters ON starters.id = act_participants.starter_id").
			Where("starters.club_id = ?", clubID).
			Find(&views).Error
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch acts",
			})
		}

		response := make([]ActResponse, 0, len(views))
		for _, view := range views {
			resp, err := actResponse(handle, view)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to fetch acts",
				})
			}
			response = append(response, resp)
		}
		return c.JSON(response)
	}
}
