// Package undo keeps a bounded in-memory history of reversible review
// actions and replays them backwards on request. Only the most recent
// actions are kept; the history does not survive a process restart.
package undo

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCapacity bounds the history when no capacity is configured.
const DefaultCapacity = 50

// ErrNothingToUndo is returned when the history is empty.
var ErrNothingToUndo = errors.New("undo: nothing to undo")

// Entry captures everything needed to reverse one review.
type Entry struct {
	CardID uint

	// Truncated first field of the card's note, for display in an
	// undo prompt.
	FrontPreview string

	// Rating the undone review applied (1..4).
	Rating int

	// Scheduling fields as they were before the review.
	Before models.SchedulingState

	// Row created by the review, deleted on undo.
	ReviewLogID uint

	// True when the review's leech check auto-paused the card; undo
	// lifts that pause again.
	AutoPaused bool

	RecordedAt time.Time
}

// Stack is a fixed-capacity LIFO of review entries, safe for
// concurrent use.
type Stack struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewStack returns a stack holding at most capacity entries. A
// capacity below 1 falls back to DefaultCapacity.
func NewStack(capacity int) *Stack {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Stack{capacity: capacity}
}

// Record pushes an entry, evicting the oldest one when full.
func (s *Stack) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	if len(s.entries) == s.capacity {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, e)
}

// Peek returns the entry that the next Undo would reverse.
func (s *Stack) Peek() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// CanUndo reports whether the history holds at least one entry.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries) > 0
}

// Len returns the number of recorded entries.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear drops the whole history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *Stack) pop() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e, true
}

// Undo reverses the most recent recorded review: the card's scheduling
// fields go back to their pre-review values, the review log row is
// deleted, and an auto-pause applied by that review is lifted. If the
// transaction fails the entry is pushed back so the user can retry.
func (s *Stack) Undo(gdb *gorm.DB) (Entry, error) {
	entry, ok := s.pop()
	if !ok {
		return Entry{}, ErrNothingToUndo
	}
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		var card models.Card
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", entry.CardID).
			First(&card).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("undo: card %d: %w", entry.CardID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("undo: load card %d: %w", entry.CardID, err)
		}

		assignments := map[string]interface{}{
			"card_type":      entry.Before.CardType,
			"due":            entry.Before.Due,
			"interval_days":  entry.Before.IntervalDays,
			"stability":      entry.Before.Stability,
			"difficulty":     entry.Before.Difficulty,
			"reps":           entry.Before.Reps,
			"lapses":         entry.Before.Lapses,
			"last_review_at": entry.Before.LastReviewAt,
		}
		if entry.AutoPaused && card.SuspendedBy == models.SuspendLeechAuto {
			assignments["suspended"] = false
			assignments["suspended_at"] = nil
			assignments["suspended_by"] = ""
			assignments["pause_reason"] = ""
			assignments["resume_date"] = nil
		}
		err = tx.Model(&models.Card{}).Where("id = ?", entry.CardID).
			Updates(assignments).Error
		if err != nil {
			return fmt.Errorf("undo: restore card %d: %w", entry.CardID, err)
		}

		if entry.ReviewLogID != 0 {
			err = tx.Delete(&models.ReviewLog{}, entry.ReviewLogID).Error
			if err != nil {
				return fmt.Errorf("undo: delete review log %d: %w", entry.ReviewLogID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.Record(entry)
		return Entry{}, err
	}
	return entry, nil
}
