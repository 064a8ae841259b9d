// This file handles the admin category endpoints. Categories are keyed by
// name; acts and timeplan entries reference them by that name, so renames are
// deliberately not offered — delete and recreate instead.
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/models"
)

// CategoryRequest is the JSON body for add and edit.
type CategoryRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	FromBirthday         string `json:"from_birthday"` // RFC 3339
	ToBirthday           string `json:"to_birthday"`   // RFC 3339
	IsPair               bool   `json:"is_pair"`
	IsSonderpokal        bool   `json:"is_sonderpokal"`
	IsSingleMale         bool   `json:"is_single_male"`
	Order                int64  `json:"order"`
	EinfahrzeitSeconds   int64  `json:"einfahrzeit_seconds"`
	ActDurationSeconds   int64  `json:"act_duration_seconds"`
	JudgeDurationSeconds int64  `json:"judge_duration_seconds"`
}

// CategoryResponse mirrors the stored category.
type CategoryResponse struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	FromBirthday         string `json:"from_birthday"`
	ToBirthday           string `json:"to_birthday"`
	IsPair               bool   `json:"is_pair"`
	IsSonderpokal        bool   `json:"is_sonderpokal"`
	IsSingleMale         bool   `json:"is_single_male"`
	Order                int64  `json:"order"`
	EinfahrzeitSeconds   int64  `json:"einfahrzeit_seconds"`
	ActDurationSeconds   int64  `json:"act_duration_seconds"`
	JudgeDurationSeconds int64  `json:"judge_duration_seconds"`
}

func categoryResponse(cat models.Category) CategoryResponse {
	return CategoryResponse{
		Name:                 cat.Name,
		Description:          cat.Description,
		FromBirthday:         cat.FromBirthday.UTC().Format(time.RFC3339),
		ToBirthday:           cat.ToBirthday.UTC().Format(time.RFC3339),
		IsPair:               cat.IsPair,
		IsSonderpokal:        cat.IsSonderpokal,
		IsSingleMale:         cat.IsSingleMale,
		Order:                cat.Order,
		EinfahrzeitSeconds:   cat.EinfahrzeitSeconds,
		ActDurationSeconds:   cat.ActDurationSeconds,
		JudgeDurationSeconds: cat.JudgeDurationSeconds,
	}
}

func categoryFromRequest(req CategoryRequest) (models.Category, error) {
	if req.Name == "" {
		return models.Category{}, errors.New("name is required")
	}
	if req.EinfahrzeitSeconds < 0 || req.ActDurationSeconds < 0 || req.JudgeDurationSeconds < 0 {
		return models.Category{}, errors.New("durations must not be negative")
	}
	from, err := time.Parse(time.RFC3339, req.FromBirthday)
	if err != nil {
		return models.Category{}, errors.New("from_birthday must be an RFC 3339 timestamp")
	}
	to, err := time.Parse(time.RFC3339, req.ToBirthday)
	if err != nil {
		return models.Category{}, errors.New("to_birthday must be an RFC 3339 timestamp")
	}
	return models.Category{
		Name:                 req.Name,
		Description:          req.Description,
		FromBirthday:         from,
		ToBirthday:           to,
		IsPair:               req.IsPair,
		IsSonderpokal:        req.IsSonderpokal,
		IsSingleMale:         req.IsSingleMale,
		Order:                req.Order,
		EinfahrzeitSeconds:   req.EinfahrzeitSeconds,
		ActDurationSeconds:   req.ActDurationSeconds,
		JudgeDurationSeconds: req.JudgeDurationSeconds,
	}, nil
}

// ListCategories returns the handler for GET /api/v1/categories (public).
func ListCategories(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := db.Get().Order("position").Find(&categories).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch categories",
			})
		}
		response := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			response = append(response, categoryResponse(cat))
		}
		return c.JSON(response)
	}
}

// AddCategory returns the handler for POST /api/v1/admin/categories.
func AddCategory(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CategoryRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		cat, err := categoryFromRequest(req)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err := db.Get().Create(&cat).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create category",
			})
		}
		return c.Status(fiber.StatusCreated).JSON(categoryResponse(cat))
	}
}

// EditCategory returns the handler for PUT /api/v1/admin/categories/:name.
func EditCategory(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")

		var existing models.Category
		if err := db.Get().First(&existing, "name = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "category not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}

		var req CategoryRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		req.Name = name // the key cannot change
		cat, err := categoryFromRequest(req)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		cat.CreatedAt = existing.CreatedAt

		if err := db.Get().Save(&cat).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update category",
			})
		}
		return c.JSON(categoryResponse(cat))
	}
}

// DeleteCategory returns the handler for DELETE /api/v1/admin/categories/:name.
// Timeplan entries referencing the category go with it.
func DeleteCategory(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result := db.Get().Delete(&models.Category{}, "name = ?", c.Params("name"))
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to delete category",
			})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "category not found"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
