// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a freestyle-cup registration platform where:
//   - Clubs register Starters (competitors) and Judges
//   - Starters form singles or pair Acts, assigned to a Category by eligibility
//   - An admin runs the event day through an ordered Timeplan of entries
//
// There is no standalone "pair" table — a pair IS an Act with two participants.
// The partner relationship itself lives on the Starter rows (partner_id both ways).
package models

import (
	"time"

	// uuid provides universally unique identifiers for primary keys.
	// Using UUIDs instead of auto-incrementing integers makes IDs safe to generate
	// in application code and avoids leaking record counts to end users.
	"github.com/google/uuid"
)

// Club is the organization a user belongs to. Starters and judges are always
// registered through a club account.
type Club struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Payment   *float64  // amount paid, recorded by an admin
	CreatedAt time.Time // GORM automatically sets this on create
	UpdatedAt time.Time // GORM automatically updates this on every save
}

// User is a login account. Club accounts carry a ClubID; the event
// administrator has IsAdmin set and usually no club.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email         string     `gorm:"uniqueIndex;not null"`
	Name          string     `gorm:"not null"`
	PasswordHash  string     `gorm:"not null"` // bcrypt hash; never serialized to clients
	IsAdmin       bool       `gorm:"not null;default:false"`
	EmailVerified bool       `gorm:"not null;default:false"`
	ClubID        *uuid.UUID `gorm:"type:uuid"` // nil for the admin account
	Club          *Club      `gorm:"foreignKey:ClubID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Category is a competition division with its own timing parameters and
// eligibility rule. The name doubles as the natural key: acts and timeplan
// entries reference categories by name, not by a surrogate id.
//
// The three *_Seconds fields drive the timeplan prediction:
//   - EinfahrzeitSeconds: warm-up time on the floor before the first act
//   - ActDurationSeconds: performance time per act
//   - JudgeDurationSeconds: judging/scoring time after each act
type Category struct {
	Name                 string    `gorm:"primaryKey"`
	Description          string    `gorm:"not null;default:''"`
	FromBirthday         time.Time `gorm:"not null"` // Oldest admissible birthdate (inclusive)
	ToBirthday           time.Time `gorm:"not null"` // Youngest admissible birthdate (inclusive)
	IsPair               bool      `gorm:"not null"`
	IsSonderpokal        bool      `gorm:"not null"`
	IsSingleMale         bool      `gorm:"not null"`
	Order                int64     `gorm:"column:position;uniqueIndex;not null"` // Run order; unique per catalog
	EinfahrzeitSeconds   int64     `gorm:"not null;default:0"`
	ActDurationSeconds   int64     `gorm:"not null;default:0"`
	JudgeDurationSeconds int64     `gorm:"not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Einfahrzeit returns the category warm-up time as a time.Duration.
func (c Category) Einfahrzeit() time.Duration {
	return time.Duration(c.EinfahrzeitSeconds) * time.Second
}

// ActDuration returns the per-act performance time as a time.Duration.
func (c Category) ActDuration() time.Duration {
	return time.Duration(c.ActDurationSeconds) * time.Second
}

// JudgeDuration returns the per-act judging time as a time.Duration.
func (c Category) JudgeDuration() time.Duration {
	return time.Duration(c.JudgeDurationSeconds) * time.Second
}

// Starter is one registered competitor. The boolean flags express what the
// starter competes in; the Pairing Engine (internal/pairing) keeps the Act
// aggregates consistent with them.
//
// PartnerID/PartnerName implement the partner link. PartnerName is kept even
// when PartnerID is unresolved: clubs may enter a partner who has not
// registered yet, and resolution happens later by exact name match.
// Invariant (maintained by the pairing engine): when both sides are
// registered, the link is symmetric — if A.PartnerID = B then B.PartnerID = A.
type Starter struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClubID            uuid.UUID  `gorm:"type:uuid;not null"`
	Club              Club       `gorm:"foreignKey:ClubID"`
	Firstname         string     `gorm:"not null"`
	Lastname          string     `gorm:"not null"`
	Birthdate         time.Time  `gorm:"not null"`
	SingleSonderpokal bool       `gorm:"not null;default:false"`
	SingleMale        bool       `gorm:"not null;default:false"`
	SingleFemale      bool       `gorm:"not null;default:false"`
	PairSonderpokal   bool       `gorm:"not null;default:false"`
	Pair              bool       `gorm:"not null;default:false"`
	PartnerID         *uuid.UUID `gorm:"type:uuid"`
	PartnerName       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FullName returns "Firstname Lastname", the form used for partner matching.
func (s Starter) FullName() string {
	return s.Firstname + " " + s.Lastname
}

// Judge is a club-registered judge for the event.
type Judge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClubID    uuid.UUID `gorm:"type:uuid;not null"`
	Club      Club      `gorm:"foreignKey:ClubID"`
	Firstname string    `gorm:"not null"`
	Lastname  string    `gorm:"not null"`
	Birthdate time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Act is one judged performance unit: a single competitor or a pair.
// Acts are created and destroyed exclusively by the pairing engine as a side
// effect of starter mutations — never directly by the end user.
//
// Position is nullable: an act without a position has not been placed in the
// running order yet. StartedAt/EndedAt are the live event-day timestamps:
// both nil = not started, started only = in progress, both set = finished.
type Act struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null;default:''"`
	Description  *string
	IsPair       bool    `gorm:"not null"`
	Position     *int64  `gorm:"column:position"`
	SongFile     *string // Storage key of the uploaded music; nil until uploaded
	SongFileName *string // Original file name shown back to the club
	SongChecked  bool    `gorm:"not null;default:false"`
	StartedAt    *time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Participants []ActParticipant `gorm:"foreignKey:ActID"`
}

// ActParticipant links an Act to one of its one or two Starters.
// Composite primary key prevents the same starter appearing twice in an act.
type ActParticipant struct {
	ActID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	StarterID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Act       Act       `gorm:"foreignKey:ActID"`
	Starter   Starter   `gorm:"foreignKey:StarterID"`
}

// ActView is the read model over the act_overview SQL view: an act joined to
// the category it falls into. Category assignment is derived from the
// participants (age, pair flag, sonderpokal flag), not stored on the act row,
// so it stays correct when a starter's data changes.
//
// The view is read-only; writes always go to the acts table.
type ActView struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string
	Description  *string
	IsPair       bool
	Position     *int64 `gorm:"column:position"`
	SongFile     *string
	SongFileName *string
	SongChecked  bool
	StartedAt    *time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
	Category     *string // nil when no category matches the participants
}

// TableName points GORM at the SQL view instead of a derived table name.
func (ActView) TableName() string { return "act_overview" }

// TimeplanEntry is one scheduled unit of the live event day. Exactly one of
// the two shapes is valid:
//   - Category pass: Category set, Label/DurationSeconds unused
//   - Custom block:  Label and DurationSeconds set, Category nil
//
// A row matching neither shape is a data-integrity failure — the prediction
// engine rejects the whole computation rather than guessing.
//
// The integer ID defines the running order; entries are processed strictly
// ascending. EarliestStartTime is a floor: the entry is never planned or
// predicted to start before it. The first entry of the plan must carry one,
// otherwise the schedule has no anchor.
type TimeplanEntry struct {
	ID                int64 `gorm:"primaryKey"`
	Category          *string
	CategoryRef       *Category `gorm:"foreignKey:Category;references:Name"`
	Label             *string
	DurationSeconds   *int64
	EarliestStartTime *time.Time
	StartedAt         *time.Time
	EndedAt           *time.Time
}

// TableName keeps the original singular table name.
func (TimeplanEntry) TableName() string { return "timeplan" }

// IsCategory reports whether the entry is a category pass.
func (e TimeplanEntry) IsCategory() bool { return e.Category != nil }

// Duration returns the fixed duration of a custom block.
// Only meaningful when IsCategory() is false and DurationSeconds is set.
func (e TimeplanEntry) Duration() time.Duration {
	if e.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*e.DurationSeconds) * time.Second
}
