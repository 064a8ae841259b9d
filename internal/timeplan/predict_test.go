package timeplan

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freestyle-cup/registration/internal/models"
)

// Test fixture: a two-act "Jugend" category (einfahrzeit 120s, act 60s,
// judge 30s) anchored at 10:00 UTC, followed by a 600s pause block.
var anchor = time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return anchor.Add(time.Duration(sec) * time.Second) }

func atPtr(sec int) *time.Time {
	t := at(sec)
	return &t
}

func strPtr(s string) *string { return &s }

func i64Ptr(n int64) *int64 { return &n }

func jugend() models.Category {
	return models.Category{
		Name:                 "Jugend",
		Order:                1,
		EinfahrzeitSeconds:   120,
		ActDurationSeconds:   60,
		JudgeDurationSeconds: 30,
	}
}

// twoActSchedule builds the fixture schedule and returns it together with the
// act ids in running order, so tests can set timestamps on specific acts.
func twoActSchedule() (Schedule, []uuid.UUID) {
	actA := uuid.New()
	actB := uuid.New()
	s := Schedule{
		Entries: []models.TimeplanEntry{
			{ID: 1, Category: strPtr("Jugend"), EarliestStartTime: atPtr(0)},
			{ID: 2, Label: strPtr("Pause"), DurationSeconds: i64Ptr(600)},
		},
		Categories: map[string]models.Category{"Jugend": jugend()},
		ActsByCategory: map[string][]models.ActView{
			"Jugend": {
				{ID: actA, Name: "Alpha", Category: strPtr("Jugend")},
				{ID: actB, Name: "Beta", Category: strPtr("Jugend")},
			},
		},
	}
	return s, []uuid.UUID{actA, actB}
}

func TestPredictInputErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		schedule Schedule
		want     error
	}{
		{
			"empty",
			Schedule{},
			ErrEmptyTimeplan,
		},
		{
			"no_anchor",
			Schedule{Entries: []models.TimeplanEntry{
				{ID: 1, Label: strPtr("Pause"), DurationSeconds: i64Ptr(60)},
			}},
			ErrNoAnchor,
		},
		{
			"shapeless_entry",
			Schedule{Entries: []models.TimeplanEntry{
				{ID: 1, EarliestStartTime: atPtr(0)},
			}},
			ErrBadEntry,
		},
		{
			"unknown_category",
			Schedule{Entries: []models.TimeplanEntry{
				{ID: 1, Category: strPtr("Nope"), EarliestStartTime: atPtr(0)},
			}},
			ErrUnknownCategory,
		},
		{
			"ended_without_started",
			Schedule{Entries: []models.TimeplanEntry{
				{ID: 1, Label: strPtr("Pause"), DurationSeconds: i64Ptr(60),
					EarliestStartTime: atPtr(0), EndedAt: atPtr(60)},
			}},
			ErrInconsistentTimes,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Predict(tt.schedule, anchor)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Predict error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPredictBeforeEventMatchesPlan(t *testing.T) {
	t.Parallel()

	s, _ := twoActSchedule()
	// An hour before the anchor the projection is the plan itself.
	p, err := Predict(s, at(-3600))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if p.Offset != 0 {
		t.Fatalf("offset = %v, want 0", p.Offset)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(p.Items))
	}

	cat := p.Items[0]
	if cat.Status != StatusPlanned {
		t.Fatalf("category status = %q, want planned", cat.Status)
	}
	if !cat.PlannedStart.Equal(at(0)) || !cat.PlannedEnd.Equal(at(300)) {
		t.Fatalf("category planned %v..%v, want %v..%v",
			cat.PlannedStart, cat.PlannedEnd, at(0), at(300))
	}
	if cat.PlannedDuration != 300*time.Second {
		t.Fatalf("planned duration = %v, want 300s", cat.PlannedDuration)
	}
	if !cat.PredictedStart.Equal(cat.PlannedStart) || !cat.PredictedEnd.Equal(cat.PlannedEnd) {
		t.Fatalf("predicted %v..%v diverges from plan before the event",
			cat.PredictedStart, cat.PredictedEnd)
	}

	acts := cat.Category.Acts
	if len(acts) != 2 {
		t.Fatalf("acts = %d, want 2", len(acts))
	}
	// Einfahrzeit elapses first, then act+judge per act.
	if !acts[0].PlannedStart.Equal(at(120)) || !acts[0].PlannedEnd.Equal(at(180)) {
		t.Fatalf("act 0 planned %v..%v", acts[0].PlannedStart, acts[0].PlannedEnd)
	}
	if !acts[1].PlannedStart.Equal(at(210)) || !acts[1].PlannedEnd.Equal(at(270)) {
		t.Fatalf("act 1 planned %v..%v", acts[1].PlannedStart, acts[1].PlannedEnd)
	}

	pause := p.Items[1]
	if pause.Custom == nil || pause.Custom.Label != "Pause" {
		t.Fatalf("second item is not the pause block: %+v", pause)
	}
	if !pause.PlannedStart.Equal(at(300)) || !pause.PlannedEnd.Equal(at(900)) {
		t.Fatalf("pause planned %v..%v, want %v..%v",
			pause.PlannedStart, pause.PlannedEnd, at(300), at(900))
	}
}

func TestPredictUnstartedNeverInThePast(t *testing.T) {
	t.Parallel()

	s, _ := twoActSchedule()
	// Nothing has started and the clock is already 10 minutes past the
	// anchor: everything shifts to start no earlier than now.
	now := at(600)
	p, err := Predict(s, now)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	cat := p.Items[0]
	if !cat.PredictedStart.Equal(now) {
		t.Fatalf("predicted start = %v, want %v", cat.PredictedStart, now)
	}
	if !cat.PredictedEnd.Equal(now.Add(300 * time.Second)) {
		t.Fatalf("predicted end = %v, want %v", cat.PredictedEnd, now.Add(300*time.Second))
	}
	// The plan itself is unmoved.
	if !cat.PlannedStart.Equal(at(0)) {
		t.Fatalf("planned start = %v, want %v", cat.PlannedStart, at(0))
	}
	if p.Offset != 0 {
		t.Fatalf("offset = %v, want 0 without any live signal", p.Offset)
	}
}

func TestPredictRunningActSetsOffset(t *testing.T) {
	t.Parallel()

	s, _ := twoActSchedule()
	// The category started on time but the first act went on 90s late and is
	// still running.
	s.Entries[0].StartedAt = atPtr(0)
	s.ActsByCategory["Jugend"][0].StartedAt = atPtr(210)

	now := at(230)
	p, err := Predict(s, now)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if p.Offset != 90*time.Second {
		t.Fatalf("offset = %v, want 90s", p.Offset)
	}

	acts := p.Items[0].Category.Acts
	if acts[0].Status != StatusStarted {
		t.Fatalf("act 0 status = %q, want started", acts[0].Status)
	}
	if !acts[0].PredictedStart.Equal(at(210)) || !acts[0].PredictedEnd.Equal(at(270)) {
		t.Fatalf("act 0 predicted %v..%v, want %v..%v",
			acts[0].PredictedStart, acts[0].PredictedEnd, at(210), at(270))
	}
	// The second act inherits the drift: real end + judge time.
	if !acts[1].PredictedStart.Equal(at(300)) {
		t.Fatalf("act 1 predicted start = %v, want %v", acts[1].PredictedStart, at(300))
	}
	// Its planned slot is untouched.
	if !acts[1].PlannedStart.Equal(at(210)) {
		t.Fatalf("act 1 planned start = %v, want %v", acts[1].PlannedStart, at(210))
	}
}

func TestPredictEarlyFinishPullsPredictionForward(t *testing.T) {
	t.Parallel()

	s, _ := twoActSchedule()
	// First act started on time and finished after 30 of its 60 seconds.
	s.Entries[0].StartedAt = atPtr(0)
	s.ActsByCategory["Jugend"][0].StartedAt = atPtr(120)
	s.ActsByCategory["Jugend"][0].EndedAt = atPtr(150)

	now := at(150)
	p, err := Predict(s, now)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	acts := p.Items[0].Category.Acts
	if acts[0].Status != StatusEnded {
		t.Fatalf("act 0 status = %q, want ended", acts[0].Status)
	}
	if !acts[0].PredictedEnd.Equal(at(150)) {
		t.Fatalf("act 0 predicted end = %v, want real end %v", acts[0].PredictedEnd, at(150))
	}
	// Judging still takes its full 30s, but the next act may start earlier
	// than planned.
	if !acts[1].PredictedStart.Equal(at(180)) {
		t.Fatalf("act 1 predicted start = %v, want %v", acts[1].PredictedStart, at(180))
	}
	if !acts[1].PlannedStart.Equal(at(210)) {
		t.Fatalf("act 1 planned start = %v, want %v", acts[1].PlannedStart, at(210))
	}
	// No act is running; the offset falls back to the entry's own start.
	if p.Offset != 0 {
		t.Fatalf("offset = %v, want 0", p.Offset)
	}
}

func TestPredictEarliestStartTimeFloorsBothCursors(t *testing.T) {
	t.Parallel()

	s, _ := twoActSchedule()
	// The pause must not begin before 11:00, well after the category's
	// planned end at 10:05.
	s.Entries[1].EarliestStartTime = atPtr(3600)

	p, err := Predict(s, at(-3600))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	pause := p.Items[1]
	if !pause.PlannedStart.Equal(at(3600)) {
		t.Fatalf("pause planned start = %v, want %v", pause.PlannedStart, at(3600))
	}
	if !pause.PredictedStart.Equal(at(3600)) {
		t.Fatalf("pause predicted start = %v, want %v", pause.PredictedStart, at(3600))
	}
}

func TestPredictLateCustomBlockSetsOffset(t *testing.T) {
	t.Parallel()

	s := Schedule{
		Entries: []models.TimeplanEntry{
			{ID: 1, Label: strPtr("Aufbau"), DurationSeconds: i64Ptr(300),
				EarliestStartTime: atPtr(0), StartedAt: atPtr(120)},
		},
	}

	p, err := Predict(s, at(130))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.Offset != 120*time.Second {
		t.Fatalf("offset = %v, want 120s", p.Offset)
	}
	item := p.Items[0]
	if item.Status != StatusStarted {
		t.Fatalf("status = %q, want started", item.Status)
	}
	if !item.PredictedStart.Equal(at(120)) || !item.PredictedEnd.Equal(at(420)) {
		t.Fatalf("predicted %v..%v, want %v..%v",
			item.PredictedStart, item.PredictedEnd, at(120), at(420))
	}
}

func TestPredictEndedEntryPinsNextPrediction(t *testing.T) {
	t.Parallel()

	s := Schedule{
		Entries: []models.TimeplanEntry{
			{ID: 1, Label: strPtr("Aufbau"), DurationSeconds: i64Ptr(300),
				EarliestStartTime: atPtr(0), StartedAt: atPtr(0), EndedAt: atPtr(240)},
			{ID: 2, Label: strPtr("Pause"), DurationSeconds: i64Ptr(60)},
		},
	}

	// The first block finished a minute early; now equals its real end.
	p, err := Predict(s, at(240))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !p.Items[0].PredictedEnd.Equal(at(240)) {
		t.Fatalf("item 0 predicted end = %v, want real end %v", p.Items[0].PredictedEnd, at(240))
	}
	if !p.Items[1].PredictedStart.Equal(at(240)) {
		t.Fatalf("item 1 predicted start = %v, want %v", p.Items[1].PredictedStart, at(240))
	}
	if !p.Items[1].PlannedStart.Equal(at(300)) {
		t.Fatalf("item 1 planned start = %v, want %v", p.Items[1].PlannedStart, at(300))
	}
}
