// Package pairing keeps the Act aggregate set consistent with starter
// eligibility and partner links as starters are added or edited.
//
// Acts are never created or deleted directly by users. The rules are:
//
//   - a singles act exists for a starter iff single_male or single_female
//   - a pair act exists for a couple iff their partner link is resolved
//
// The partner link is symmetric: if A.partner_id = B then B.partner_id = A,
// and every starter has at most one partner. Clubs may name a partner who has
// not registered yet; the free-text partner_name is then resolved later by
// exact "Firstname Lastname" match within the same club.
package pairing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/freestyle-cup/registration/internal/models"
)

// ErrSelfPartner is the validation failure for a starter partnering itself.
// It is raised before any mutation, so the caller can surface it verbatim.
var ErrSelfPartner = errors.New("starter and partner are the same person")

// ErrStarterNotFound reports an edit of a starter id that does not exist.
var ErrStarterNotFound = errors.New("starter not found")

// Store is the persistence surface of the pairing engine. The gorm
// implementation lives in store.go; tests use an in-memory fake.
// Each public engine operation must run against a transactional Store so the
// multi-step link/act updates apply all-or-nothing.
type Store interface {
	// StarterByID returns nil (no error) when the starter does not exist.
	StarterByID(id uuid.UUID) (*models.Starter, error)
	// FindPairCandidates returns all starters of the club flagged pair=true
	// whose "Firstname Lastname" equals fullName exactly.
	FindPairCandidates(clubID uuid.UUID, fullName string) ([]models.Starter, error)
	InsertStarter(s *models.Starter) error
	UpdateStarter(s *models.Starter) error
	DeleteStarter(id uuid.UUID) error
	// ClearPartner nulls partner_id and partner_name of the given starter.
	ClearPartner(id uuid.UUID) error
	// ClearPartnerRefs nulls partner_id and partner_name of every starter
	// currently pointing at partnerID.
	ClearPartnerRefs(partnerID uuid.UUID) error
	// SetPartner points the given starter at partnerID with partnerName as
	// the denormalized display name.
	SetPartner(id, partnerID uuid.UUID, partnerName string) error
	// ActIDForStarter returns the starter's act of the given kind, or nil.
	ActIDForStarter(starterID uuid.UUID, isPair bool) (*uuid.UUID, error)
	DeleteAct(id uuid.UUID) error
	CreateAct(name string, participants []uuid.UUID, isPair bool) (uuid.UUID, error)
}

// Input carries the submitted starter fields for create and edit.
type Input struct {
	ClubID            uuid.UUID
	Firstname         string
	Lastname          string
	Birthdate         time.Time
	SingleSonderpokal bool
	SingleMale        bool
	SingleFemale      bool
	PairSonderpokal   bool
	Pair              bool
	PartnerID         *uuid.UUID
	PartnerName       *string
}

func (in Input) fullName() string {
	return in.Firstname + " " + in.Lastname
}

func (in Input) wantsSingles() bool {
	return in.SingleMale || in.SingleFemale
}

// resolvePartner applies the resolution rule: an explicit partner id wins;
// otherwise the partner name is matched exactly against same-club starters
// flagged pair=true. Zero or multiple matches mean "unresolved" — ambiguity
// is deliberately not an error, the name just stays free text.
func resolvePartner(s Store, in Input) (*uuid.UUID, error) {
	if in.PartnerID != nil {
		return in.PartnerID, nil
	}
	if !in.Pair || in.PartnerName == nil || *in.PartnerName == "" {
		return nil, nil
	}
	candidates, err := s.FindPairCandidates(in.ClubID, *in.PartnerName)
	if err != nil {
		return nil, err
	}
	if len(candidates) != 1 {
		return nil, nil
	}
	id := candidates[0].ID
	return &id, nil
}

// link establishes the bidirectional partner link between the starter and
// partnerID, first detaching whatever either side was linked to. The caller
// has already verified partnerID != selfID.
func link(s Store, selfID uuid.UUID, selfName string, partner *models.Starter) error {
	// The resolved partner may itself have had a partner; that third starter
	// loses its backlink (at-most-one-partner).
	if partner.PartnerID != nil {
		if err := s.ClearPartner(*partner.PartnerID); err != nil {
			return err
		}
	}
	// Any other starter still pointing at the new partner is dangling now.
	if err := s.ClearPartnerRefs(partner.ID); err != nil {
		return err
	}
	return s.SetPartner(partner.ID, selfID, selfName)
}

// replacePairAct deletes both parties' existing pair acts (a partner change
// invalidates the previous pairing's act) and creates one fresh pair act for
// the couple.
func replacePairAct(s Store, selfID, partnerID uuid.UUID) error {
	for _, id := range []uuid.UUID{selfID, partnerID} {
		actID, err := s.ActIDForStarter(id, true)
		if err != nil {
			return err
		}
		if actID != nil {
			if err := s.DeleteAct(*actID); err != nil {
				return err
			}
		}
	}
	_, err := s.CreateAct("", []uuid.UUID{selfID, partnerID}, true)
	return err
}

// Create registers a new starter, resolves its partner, links both sides and
// creates the acts its eligibility calls for. It returns the new starter id.
func Create(s Store, in Input) (uuid.UUID, error) {
	resolved, err := resolvePartner(s, in)
	if err != nil {
		return uuid.Nil, err
	}

	var partner *models.Starter
	if resolved != nil {
		partner, err = s.StarterByID(*resolved)
		if err != nil {
			return uuid.Nil, err
		}
		if partner == nil {
			// An explicit partner_id pointing nowhere stays unresolved.
			resolved = nil
		} else if in.PartnerName == nil {
			// Resolved by id alone: carry the partner's name onto this
			// side too, so both rows show who is paired with whom.
			name := partner.FullName()
			in.PartnerName = &name
		}
	}

	starter := &models.Starter{
		ID:                uuid.New(),
		ClubID:            in.ClubID,
		Firstname:         in.Firstname,
		Lastname:          in.Lastname,
		Birthdate:         in.Birthdate,
		SingleSonderpokal: in.SingleSonderpokal,
		SingleMale:        in.SingleMale,
		SingleFemale:      in.SingleFemale,
		PairSonderpokal:   in.PairSonderpokal,
		Pair:              in.Pair,
		PartnerID:         resolved,
		PartnerName:       in.PartnerName,
	}
	if err := s.InsertStarter(starter); err != nil {
		return uuid.Nil, err
	}

	if partner != nil {
		if err := link(s, starter.ID, in.fullName(), partner); err != nil {
			return uuid.Nil, err
		}
		if err := replacePairAct(s, starter.ID, partner.ID); err != nil {
			return uuid.Nil, err
		}
	}

	if in.wantsSingles() {
		if _, err := s.CreateAct("", []uuid.UUID{starter.ID}, false); err != nil {
			return uuid.Nil, err
		}
	}

	return starter.ID, nil
}

// Edit updates a starter and reconciles partner links and acts with the new
// field values. The partner is re-resolved from scratch whenever the
// submitted partner name changed or pairing was switched off: a previously
// resolved id is only trusted while its name text is untouched.
func Edit(s Store, id uuid.UUID, in Input) error {
	existing, err := s.StarterByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrStarterNotFound
	}

	// A changed partner-name text (or pair=false) invalidates the submitted
	// partner id and forces re-resolution by name.
	if !in.Pair || !equalName(existing.PartnerName, in.PartnerName) {
		in.PartnerID = nil
	}

	resolved, err := resolvePartner(s, in)
	if err != nil {
		return err
	}

	if !sameID(resolved, existing.PartnerID) {
		if resolved != nil && *resolved == id {
			return ErrSelfPartner
		}

		if existing.PartnerID != nil {
			if err := s.ClearPartner(*existing.PartnerID); err != nil {
				return err
			}
		}

		if resolved != nil {
			partner, err := s.StarterByID(*resolved)
			if err != nil {
				return err
			}
			if partner == nil {
				return ErrStarterNotFound
			}
			if in.PartnerName == nil {
				name := partner.FullName()
				in.PartnerName = &name
			}
			if err := link(s, id, in.fullName(), partner); err != nil {
				return err
			}
			if err := replacePairAct(s, id, partner.ID); err != nil {
				return err
			}
		} else if existing.PartnerID != nil {
			// Unlinked without a replacement: the old couple's pair act
			// goes away with the link.
			actID, err := s.ActIDForStarter(id, true)
			if err != nil {
				return err
			}
			if actID != nil {
				if err := s.DeleteAct(*actID); err != nil {
					return err
				}
			}
		}
	}

	existing.Firstname = in.Firstname
	existing.Lastname = in.Lastname
	existing.Birthdate = in.Birthdate
	existing.SingleSonderpokal = in.SingleSonderpokal
	existing.SingleMale = in.SingleMale
	existing.SingleFemale = in.SingleFemale
	existing.PairSonderpokal = in.PairSonderpokal
	existing.Pair = in.Pair
	existing.PartnerID = resolved
	existing.PartnerName = in.PartnerName
	if err := s.UpdateStarter(existing); err != nil {
		return err
	}

	// Singles eligibility is reconciled independently of partner changes.
	singlesAct, err := s.ActIDForStarter(id, false)
	if err != nil {
		return err
	}
	switch {
	case in.wantsSingles() && singlesAct == nil:
		_, err := s.CreateAct("", []uuid.UUID{id}, false)
		return err
	case !in.wantsSingles() && singlesAct != nil:
		return s.DeleteAct(*singlesAct)
	}
	return nil
}

// Remove deletes a starter together with its acts and detaches its partner.
func Remove(s Store, id uuid.UUID) error {
	existing, err := s.StarterByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrStarterNotFound
	}

	for _, isPair := range []bool{false, true} {
		actID, err := s.ActIDForStarter(id, isPair)
		if err != nil {
			return err
		}
		if actID != nil {
			if err := s.DeleteAct(*actID); err != nil {
				return err
			}
		}
	}

	if existing.PartnerID != nil {
		if err := s.ClearPartner(*existing.PartnerID); err != nil {
			return err
		}
	}
	// Unresolved backlinks (partner registered but link one-sided) too.
	if err := s.ClearPartnerRefs(id); err != nil {
		return err
	}

	return s.DeleteStarter(id)
}

func equalName(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
