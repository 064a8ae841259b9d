// Package timeplan implements the live event-day schedule logic:
//
//   - Predict: a pure, read-only projection of the admin-defined timeplan
//     against the real start/end timestamps observed so far
//   - Forward/Backward: the operator state machine that advances or rewinds
//     the live event by exactly one step (control.go)
//
// All event-day state lives in the database (timeplan/act timestamp columns).
// Nothing here keeps in-process cursor state, so every call computes its
// answer fresh from the rows it is given — consistent across restarts and
// across multiple server instances.
package timeplan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freestyle-cup/registration/internal/models"
)

// Errors returned by Predict. ErrEmptyTimeplan and ErrUnknownCategory are
// "not found" conditions; ErrNoAnchor, ErrBadEntry and ErrInconsistentTimes
// are data-integrity failures that abort the whole computation.
var (
	ErrEmptyTimeplan     = errors.New("timeplan has no entries")
	ErrNoAnchor          = errors.New("first timeplan entry has no earliest start time")
	ErrBadEntry          = errors.New("timeplan entry is neither a category nor a custom block")
	ErrInconsistentTimes = errors.New("timeplan item has ended_at without started_at")
	ErrUnknownCategory   = errors.New("timeplan entry references an unknown category")
)

// Status classifies a timeplan item purely from its own timestamps.
type Status string

const (
	StatusPlanned Status = "planned" // neither started nor ended
	StatusStarted Status = "started" // started, still running
	StatusEnded   Status = "ended"   // started and ended
)

// statusOf derives the Status of a started/ended timestamp pair.
// An ended_at without a started_at has no meaningful classification and is
// reported as an integrity failure.
func statusOf(startedAt, endedAt *time.Time) (Status, error) {
	switch {
	case startedAt != nil && endedAt != nil:
		return StatusEnded, nil
	case startedAt != nil:
		return StatusStarted, nil
	case endedAt != nil:
		return "", ErrInconsistentTimes
	default:
		return StatusPlanned, nil
	}
}

// Schedule is the immutable input of Predict: everything it needs, already
// loaded from the database. Entries must be ordered by id ascending and acts
// by position ascending — LoadSchedule (store.go) queries them that way.
type Schedule struct {
	Entries    []models.TimeplanEntry
	Categories map[string]models.Category
	// ActsByCategory holds each category's acts in running order.
	ActsByCategory map[string][]models.ActView
}

// PredictedAct is one act annotated with planned and predicted timing.
type PredictedAct struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Status         Status     `json:"status"`
	StartedAt      *time.Time `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	PredictedStart time.Time  `json:"predicted_start"`
	PredictedEnd   time.Time  `json:"predicted_end"`
	PlannedStart   time.Time  `json:"planned_start"`
	PlannedEnd     time.Time  `json:"planned_end"`
}

// CategoryBlock is the category-shaped payload of a projected item.
type CategoryBlock struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Order         int64          `json:"order"`
	Einfahrzeit   time.Duration  `json:"einfahrzeit"`
	ActDuration   time.Duration  `json:"act_duration"`
	JudgeDuration time.Duration  `json:"judge_duration"`
	Acts          []PredictedAct `json:"acts"`
}

// CustomBlock is the free-form payload of a projected item.
type CustomBlock struct {
	Label string `json:"label"`
}

// Item is one fully annotated timeplan entry. Exactly one of Category or
// Custom is non-nil, mirroring the two entry shapes.
type Item struct {
	Status          Status         `json:"status"`
	PredictedStart  time.Time      `json:"predicted_start"`
	PredictedEnd    time.Time      `json:"predicted_end"`
	PlannedStart    time.Time      `json:"planned_start"`
	PlannedEnd      time.Time      `json:"planned_end"`
	PlannedDuration time.Duration  `json:"planned_duration"`
	RealStart       *time.Time     `json:"real_start"`
	RealEnd         *time.Time     `json:"real_end"`
	Category        *CategoryBlock `json:"category,omitempty"`
	Custom          *CustomBlock   `json:"custom,omitempty"`
}

// Projection is the result of Predict: every entry time-annotated, plus the
// current global drift. Offset is positive when the event runs late and is
// always taken from the most recently observed live timing signal.
type Projection struct {
	Offset time.Duration `json:"offset"`
	Items  []Item        `json:"items"`
}

// maxTime returns the later of two instants.
func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// Predict folds over the schedule in entry order and annotates every entry
// and act with planned and predicted start/end times.
//
// Two cursors run through the fold:
//
//   - planned: the static schedule position. It starts at the first entry's
//     earliest start time, is floored by every later earliest_start_time and
//     otherwise just accumulates durations. It never looks at the clock.
//   - predicted: the live projection. It starts at max(now, planned), is
//     floored by the same earliest_start_time constraints, and snaps to every
//     real started_at/ended_at it encounters. A real timestamp is the only
//     thing that can place it in the past.
//
// The plan never compresses: even when an act finishes early, both cursors
// advance by the full act+judge duration before the next act.
func Predict(s Schedule, now time.Time) (*Projection, error) {
	if len(s.Entries) == 0 {
		return nil, ErrEmptyTimeplan
	}
	if s.Entries[0].EarliestStartTime == nil {
		return nil, ErrNoAnchor
	}

	planned := *s.Entries[0].EarliestStartTime
	predicted := maxTime(now, planned)

	projection := &Projection{Items: make([]Item, 0, len(s.Entries))}

	for _, entry := range s.Entries {
		if entry.EarliestStartTime != nil {
			planned = maxTime(planned, *entry.EarliestStartTime)
			predicted = maxTime(predicted, *entry.EarliestStartTime)
		}

		status, err := statusOf(entry.StartedAt, entry.EndedAt)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", entry.ID, err)
		}

		// A started entry pins the predicted cursor to reality. Without a
		// real timestamp the cursor may never fall behind the clock: an
		// entry that has not started cannot be predicted to start in the
		// past, even when its predecessor finished early.
		if entry.StartedAt != nil {
			predicted = *entry.StartedAt
		} else {
			predicted = maxTime(predicted, now)
		}

		plannedStart := planned
		predictedStart := predicted

		var item Item
		// entryOffset records live drift observed inside this entry: the
		// running act's (or the entry's own) real start measured against the
		// planned cursor at that point.
		var entryOffset *time.Duration

		switch {
		case entry.IsCategory():
			cat, ok := s.Categories[*entry.Category]
			if !ok {
				return nil, fmt.Errorf("entry %d: %w: %q", entry.ID, ErrUnknownCategory, *entry.Category)
			}
			acts := s.ActsByCategory[*entry.Category]

			// Warm-up elapses before the first act.
			planned = planned.Add(cat.Einfahrzeit())
			predicted = predicted.Add(cat.Einfahrzeit())

			projected := make([]PredictedAct, 0, len(acts))
			for _, act := range acts {
				actStatus, err := statusOf(act.StartedAt, act.EndedAt)
				if err != nil {
					return nil, fmt.Errorf("act %s: %w", act.ID, err)
				}

				if actStatus == StatusStarted && entryOffset == nil {
					d := act.StartedAt.Sub(planned)
					entryOffset = &d
				}

				if act.StartedAt != nil {
					predicted = *act.StartedAt
				} else {
					predicted = maxTime(predicted, now)
				}
				predictedEnd := predicted.Add(cat.ActDuration())
				if act.EndedAt != nil {
					predictedEnd = *act.EndedAt
				}

				projected = append(projected, PredictedAct{
					ID:             act.ID,
					Name:           act.Name,
					Status:         actStatus,
					StartedAt:      act.StartedAt,
					EndedAt:        act.EndedAt,
					PredictedStart: predicted,
					PredictedEnd:   predictedEnd,
					PlannedStart:   planned,
					PlannedEnd:     planned.Add(cat.ActDuration()),
				})

				// Judging always elapses before the next act, regardless of
				// how the act really went.
				predicted = predictedEnd.Add(cat.JudgeDuration())
				planned = planned.Add(cat.ActDuration() + cat.JudgeDuration())
			}

			item.Category = &CategoryBlock{
				Name:          cat.Name,
				Description:   cat.Description,
				Order:         cat.Order,
				Einfahrzeit:   cat.Einfahrzeit(),
				ActDuration:   cat.ActDuration(),
				JudgeDuration: cat.JudgeDuration(),
				Acts:          projected,
			}
			item.PlannedDuration = cat.Einfahrzeit() +
				time.Duration(len(acts))*(cat.ActDuration()+cat.JudgeDuration())

		case entry.Label != nil && entry.DurationSeconds != nil:
			item.Custom = &CustomBlock{Label: *entry.Label}
			item.PlannedDuration = entry.Duration()
			planned = planned.Add(entry.Duration())
			predicted = predicted.Add(entry.Duration())

		default:
			return nil, fmt.Errorf("entry %d: %w", entry.ID, ErrBadEntry)
		}

		// An ended entry pins the predicted cursor to its real end.
		if entry.EndedAt != nil {
			predicted = *entry.EndedAt
		}

		item.Status = status
		item.PlannedStart = plannedStart
		item.PlannedEnd = plannedStart.Add(item.PlannedDuration)
		item.PredictedStart = predictedStart
		item.PredictedEnd = predicted
		item.RealStart = entry.StartedAt
		item.RealEnd = entry.EndedAt

		// The global offset always reflects the most recent live signal:
		// an act-level drift measured inside this entry wins, else the
		// entry's own real start against its planned start. Later entries
		// supersede earlier ones.
		if entryOffset != nil {
			projection.Offset = *entryOffset
		} else if status != StatusPlanned {
			projection.Offset = entry.StartedAt.Sub(plannedStart)
		}

		projection.Items = append(projection.Items, item)
	}

	return projection, nil
}
