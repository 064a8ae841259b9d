// Package handlers contains the HTTP route handler functions of the
// registration server. This file is the operator surface of the live event
// day: advancing, rewinding and predicting the timeplan.
//
// Each exported function follows the "handler factory" pattern: it takes its
// dependencies and returns a fiber.Handler. This lets us inject the database
// handle without using global variables.
package handlers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/live"
	"github.com/freestyle-cup/registration/internal/timeplan"
)

// stepTxOptions isolates each forward/backward step. The step reads the
// running state and then writes based on it; at READ COMMITTED two concurrent
// steps could both observe the same state and both write, starting two acts
// at once. Row locks are not an option because the act reads go through the
// act_overview view (grouped, so not lockable), so the whole step runs
// SERIALIZABLE: one of two racing steps aborts and surfaces as an error,
// which the operator simply retries.
var stepTxOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}

// notifyTimeplanChanged tells watching displays that the running position
// moved, so they re-fetch the prediction.
func notifyTimeplanChanged(hub *live.Hub) {
	if hub != nil {
		hub.Broadcast(live.TopicTimeplan, []byte(`{"event":"timeplan_changed"}`))
	}
}

// AdvanceTimeplan returns the handler for POST /api/v1/admin/timeplan/forward.
// Admin only (enforced by RequireAdmin on the route). One call performs
// exactly one step; the whole read-then-write sequence runs in a single
// transaction so concurrent operator calls serialize instead of racing.
func AdvanceTimeplan(db *database.DB, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := db.Get().Transaction(func(tx *gorm.DB) error {
			return timeplan.Forward(timeplan.NewGormStore(tx), time.Now().UTC())
		}, stepTxOptions)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to advance timeplan",
			})
		}
		notifyTimeplanChanged(hub)
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// RewindTimeplan returns the handler for POST /api/v1/admin/timeplan/backward,
// the inverse of AdvanceTimeplan.
func RewindTimeplan(db *database.DB, hub *live.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := db.Get().Transaction(func(tx *gorm.DB) error {
			return timeplan.Backward(timeplan.NewGormStore(tx))
		}, stepTxOptions)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to rewind timeplan",
			})
		}
		notifyTimeplanChanged(hub)
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// PredictTimeplan returns the handler for GET /api/v1/timeplan.
// Public and read-only: it loads the schedule and folds the prediction over
// it. Validation problems of the stored plan (missing anchor, malformed
// entries, unknown categories) surface as errors instead of a guessed
// projection.
func PredictTimeplan(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schedule, err := timeplan.LoadSchedule(db.Get())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load timeplan",
			})
		}

		projection, err := timeplan.Predict(schedule, time.Now().UTC())
		if err != nil {
			switch {
			case errors.Is(err, timeplan.ErrEmptyTimeplan):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "timeplan has no entries",
				})
			case errors.Is(err, timeplan.ErrNoAnchor),
				errors.Is(err, timeplan.ErrUnknownCategory):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": err.Error(),
				})
			default:
				// Integrity failures carry a generic message to the client.
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "timeplan is inconsistent",
				})
			}
		}

		return c.JSON(projection)
	}
}
