package pairing

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freestyle-cup/registration/internal/models"
)

// GormStore implements Store on a *gorm.DB. Pass the transaction handle from
// db.Transaction so each engine operation applies all-or-nothing.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle (usually a transaction) as a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) StarterByID(id uuid.UUID) (*models.Starter, error) {
	var starter models.Starter
	if err := s.db.First(&starter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &starter, nil
}

func (s *GormStore) FindPairCandidates(clubID uuid.UUID, fullName string) ([]models.Starter, error) {
	var candidates []models.Starter
	err := s.db.
		Where("club_id = ? AND pair = TRUE AND concat_ws(' ', firstname, lastname) = ?",
			clubID, fullName).
		Find(&candidates).Error
	return candidates, err
}

func (s *GormStore) InsertStarter(starter *models.Starter) error {
	return s.db.Create(starter).Error
}

func (s *GormStore) UpdateStarter(starter *models.Starter) error {
	// Save writes every column, including the pointer fields being nulled.
	return s.db.Save(starter).Error
}

func (s *GormStore) DeleteStarter(id uuid.UUID) error {
	return s.db.Delete(&models.Starter{}, "id = ?", id).Error
}

func (s *GormStore) ClearPartner(id uuid.UUID) error {
	return s.db.Model(&models.Starter{}).
		Where("id = ?", id).
		Updates(map[string]any{"partner_id": nil, "partner_name": nil}).Error
}

func (s *GormStore) ClearPartnerRefs(partnerID uuid.UUID) error {
	return s.db.Model(&models.Starter{}).
		Where("partner_id = ?", partnerID).
		Updates(map[string]any{"partner_id": nil, "partner_name": nil}).Error
}

func (s *GormStore) SetPartner(id, partnerID uuid.UUID, partnerName string) error {
	return s.db.Model(&models.Starter{}).
		Where("id = ?", id).
		Updates(map[string]any{"partner_id": partnerID, "partner_name": partnerName}).Error
}

func (s *GormStore) ActIDForStarter(starterID uuid.UUID, isPair bool) (*uuid.UUID, error) {
	var act models.Act
	err := s.db.
		Joins("JOIN act_participants ON act_participants.act_id = acts.id").
		Where("act_participants.starter_id = ? AND acts.is_pair = ?", starterID, isPair).
		First(&act).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &act.ID, nil
}

func (s *GormStore) DeleteAct(id uuid.UUID) error {
	if err := s.db.Delete(&models.ActParticipant{}, "act_id = ?", id).Error; err != nil {
		return err
	}
	return s.db.Delete(&models.Act{}, "id = ?", id).Error
}

func (s *GormStore) CreateAct(name string, participants []uuid.UUID, isPair bool) (uuid.UUID, error) {
	act := models.Act{
		ID:     uuid.New(),
		Name:   name,
		IsPair: isPair,
	}
	if err := s.db.Create(&act).Error; err != nil {
		return uuid.Nil, err
	}
	for _, starterID := range participants {
		participant := models.ActParticipant{ActID: act.ID, StarterID: starterID}
		if err := s.db.Create(&participant).Error; err != nil {
			return uuid.Nil, err
		}
	}
	return act.ID, nil
}
