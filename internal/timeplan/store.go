package timeplan

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/models"
)

// GormStore implements Store on a *gorm.DB. Pass the transaction handle from
// db.Transaction so a whole Forward/Backward step commits atomically.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle (usually a transaction) as a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// firstOrNil converts gorm's ErrRecordNotFound into a nil result, which is
// how the Store contract reports "nothing matches".
func firstOrNil[T any](tx *gorm.DB, dest *T) (*T, error) {
	if err := tx.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dest, nil
}

func (s *GormStore) RunningEntry() (*models.TimeplanEntry, error) {
	var entry models.TimeplanEntry
	return firstOrNil(s.db.
		Where("started_at IS NOT NULL AND ended_at IS NULL").
		Order("id"), &entry)
}

func (s *GormStore) NextUnstartedEntry() (*models.TimeplanEntry, error) {
	var entry models.TimeplanEntry
	return firstOrNil(s.db.
		Where("started_at IS NULL").
		Order("id"), &entry)
}

func (s *GormStore) LastEndedEntry() (*models.TimeplanEntry, error) {
	var entry models.TimeplanEntry
	return firstOrNil(s.db.
		Where("ended_at IS NOT NULL").
		Order("id DESC"), &entry)
}

func (s *GormStore) StartEntry(id int64, at time.Time) error {
	return s.db.Model(&models.TimeplanEntry{}).
		Where("id = ?", id).
		Update("started_at", at).Error
}

func (s *GormStore) EndEntry(id int64, at time.Time) error {
	return s.db.Model(&models.TimeplanEntry{}).
		Where("id = ?", id).
		Update("ended_at", at).Error
}

func (s *GormStore) ClearEntryStarted(id int64) error {
	return s.db.Model(&models.TimeplanEntry{}).
		Where("id = ?", id).
		Update("started_at", nil).Error
}

func (s *GormStore) ClearEntryEnded(id int64) error {
	return s.db.Model(&models.TimeplanEntry{}).
		Where("id = ?", id).
		Update("ended_at", nil).Error
}

func (s *GormStore) RunningAct(category string) (*models.ActView, error) {
	var act models.ActView
	return firstOrNil(s.db.
		Where("category = ? AND started_at IS NOT NULL AND ended_at IS NULL", category).
		Order("position"), &act)
}

func (s *GormStore) NextUnstartedAct(category string) (*models.ActView, error) {
	var act models.ActView
	return firstOrNil(s.db.
		Where("category = ? AND started_at IS NULL", category).
		Order("position"), &act)
}

func (s *GormStore) LastEndedAct(category string) (*models.ActView, error) {
	var act models.ActView
	return firstOrNil(s.db.
		Where("category = ? AND ended_at IS NOT NULL", category).
		Order("position DESC"), &act)
}

func (s *GormStore) UnstartedActCount(category string) (int64, error) {
	var count int64
	err := s.db.Model(&models.ActView{}).
		Where("category = ? AND started_at IS NULL", category).
		Count(&count).Error
	return count, err
}

// Act timestamps are written to the acts table; the view is read-only.

func (s *GormStore) StartAct(id uuid.UUID, at time.Time) error {
	return s.db.Model(&models.Act{}).
		Where("id = ?", id).
		Update("started_at", at).Error
}

func (s *GormStore) EndAct(id uuid.UUID, at time.Time) error {
	return s.db.Model(&models.Act{}).
		Where("id = ?", id).
		Update("ended_at", at).Error
}

func (s *GormStore) ClearActStarted(id uuid.UUID) error {
	return s.db.Model(&models.Act{}).
		Where("id = ?", id).
		Update("started_at", nil).Error
}

func (s *GormStore) ClearActEnded(id uuid.UUID) error {
	return s.db.Model(&models.Act{}).
		Where("id = ?", id).
		Update("ended_at", nil).Error
}

// LoadSchedule reads everything Predict needs in one pass: all timeplan
// entries in id order, the categories they reference, and each referenced
// category's acts in position order.
func LoadSchedule(db *gorm.DB) (Schedule, error) {
	s := Schedule{
		Categories:     map[string]models.Category{},
		ActsByCategory: map[string][]models.ActView{},
	}

	if err := db.Order("id").Find(&s.Entries).Error; err != nil {
		return Schedule{}, err
	}

	for _, entry := range s.Entries {
		if !entry.IsCategory() {
			continue
		}
		name := *entry.Category
		if _, ok := s.Categories[name]; ok {
			continue
		}

		var cat models.Category
		if err := db.First(&cat, "name = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Predict reports this as ErrUnknownCategory; loading just
				// leaves the map entry absent.
				continue
			}
			return Schedule{}, err
		}
		s.Categories[name] = cat

		var acts []models.ActView
		if err := db.
			Where("category = ?", name).
			Order("position").
			Find(&acts).Error; err != nil {
			return Schedule{}, err
		}
		s.ActsByCategory[name] = acts
	}

	return s, nil
}
