package timeplan

import (
	"time"

	"github.com/google/uuid"

	"github.com/freestyle-cup/registration/internal/models"
)

// Store is the persistence surface the forward/backward state machine runs
// against. The gorm implementation lives in store.go; tests use an in-memory
// fake. All "find" methods return nil (no error) when nothing matches.
//
// Callers are expected to run one whole Forward/Backward step against a
// transactional Store, so the read-then-write sequence commits or rolls back
// as a unit.
type Store interface {
	// RunningEntry returns the earliest entry that has started but not ended.
	RunningEntry() (*models.TimeplanEntry, error)
	// NextUnstartedEntry returns the earliest entry with no started_at.
	NextUnstartedEntry() (*models.TimeplanEntry, error)
	// LastEndedEntry returns the latest entry (by id) that has ended.
	LastEndedEntry() (*models.TimeplanEntry, error)
	StartEntry(id int64, at time.Time) error
	EndEntry(id int64, at time.Time) error
	ClearEntryStarted(id int64) error
	ClearEntryEnded(id int64) error

	// RunningAct returns the first act (by position) of the category that has
	// started but not ended.
	RunningAct(category string) (*models.ActView, error)
	// NextUnstartedAct returns the first act (by position) of the category
	// with no started_at.
	NextUnstartedAct(category string) (*models.ActView, error)
	// LastEndedAct returns the highest-positioned act of the category that
	// has ended.
	LastEndedAct(category string) (*models.ActView, error)
	// UnstartedActCount counts the category's acts with no started_at.
	UnstartedActCount(category string) (int64, error)
	StartAct(id uuid.UUID, at time.Time) error
	EndAct(id uuid.UUID, at time.Time) error
	ClearActStarted(id uuid.UUID) error
	ClearActEnded(id uuid.UUID) error
}

// Forward advances the live event by exactly one step:
//
//  1. A category entry with a running act: end the act. If no act of the
//     category remains unstarted, the category is complete — end the entry
//     in the same step.
//  2. A category entry without a running act: start its next unstarted act.
//     If none is left either (every act already ended), end the entry.
//  3. A running custom block: end it.
//  4. Nothing running: start the next unstarted entry. If the whole plan has
//     been played, Forward is a no-op.
//
// Invariant maintained throughout: an entry is ended iff all its acts are
// ended, and at most one entry (and within it one act) is running.
func Forward(s Store, now time.Time) error {
	entry, err := s.RunningEntry()
	if err != nil {
		return err
	}

	if entry == nil {
		next, err := s.NextUnstartedEntry()
		if err != nil || next == nil {
			return err
		}
		return s.StartEntry(next.ID, now)
	}

	if !entry.IsCategory() {
		return s.EndEntry(entry.ID, now)
	}

	category := *entry.Category
	running, err := s.RunningAct(category)
	if err != nil {
		return err
	}

	if running != nil {
		if err := s.EndAct(running.ID, now); err != nil {
			return err
		}
		unstarted, err := s.UnstartedActCount(category)
		if err != nil {
			return err
		}
		if unstarted == 0 {
			return s.EndEntry(entry.ID, now)
		}
		return nil
	}

	next, err := s.NextUnstartedAct(category)
	if err != nil {
		return err
	}
	if next == nil {
		// Every act has already finished but the entry is still open.
		return s.EndEntry(entry.ID, now)
	}
	return s.StartAct(next.ID, now)
}

// Backward rewinds the live event by exactly one step, the inverse walk of
// Forward:
//
//  1. A category entry with a running act: un-start that act.
//  2. A category entry without a running act: un-end its last ended act,
//     or un-start the entry itself if no act has ended yet.
//  3. A running custom block: un-start it.
//  4. Nothing running: un-end the most recently ended entry. If it is a
//     category, also un-end its last ended act so the entry reacquires a
//     running act (the entry-ended-iff-all-acts-ended invariant).
func Backward(s Store) error {
	entry, err := s.RunningEntry()
	if err != nil {
		return err
	}

	if entry == nil {
		last, err := s.LastEndedEntry()
		if err != nil || last == nil {
			return err
		}
		if err := s.ClearEntryEnded(last.ID); err != nil {
			return err
		}
		if last.IsCategory() {
			act, err := s.LastEndedAct(*last.Category)
			if err != nil {
				return err
			}
			if act != nil {
				return s.ClearActEnded(act.ID)
			}
		}
		return nil
	}

	if !entry.IsCategory() {
		return s.ClearEntryStarted(entry.ID)
	}

	category := *entry.Category
	running, err := s.RunningAct(category)
	if err != nil {
		return err
	}
	if running != nil {
		return s.ClearActStarted(running.ID)
	}

	last, err := s.LastEndedAct(category)
	if err != nil {
		return err
	}
	if last != nil {
		return s.ClearActEnded(last.ID)
	}
	return s.ClearEntryStarted(entry.ID)
}
