// Package review commits the outcome of a single card review: it
// applies the scheduler's result to the card, writes the review log,
// runs the leech check, and hands back an undo entry. All of it happens
// in one transaction so a review never half-applies.
package review

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/fsrs"
	"github.com/palabra-app/palabra/internal/leech"
	"github.com/palabra-app/palabra/internal/models"
	"github.com/palabra-app/palabra/internal/undo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Params carries the per-review inputs alongside the leech policy in
// effect for the reviewing user.
type Params struct {
	Rating      fsrs.Rating
	TimeTakenMs int

	LeechThreshold int
	LeechAction    leech.Action
}

// Outcome reports what one committed review did.
type Outcome struct {
	Card  models.Card
	Log   models.ReviewLog
	Leech leech.Evaluation
	Undo  undo.Entry
}

// Apply commits one review. The scheduler decides the next memory
// state and due date; this flow owns everything around it: state
// transitions, the lapse counter, the review log row, the leech check,
// and recording the action on the undo stack after the transaction
// commits.
func Apply(gdb *gorm.DB, sched fsrs.Scheduler, stack *undo.Stack, cardID uint, p Params) (Outcome, error) {
	var out Outcome
	if !p.Rating.Valid() {
		return out, fmt.Errorf("review: rating %d: %w", p.Rating, models.ErrInvalidArgument)
	}

	err := db.Transact(gdb, func(tx *gorm.DB) error {
		var card models.Card
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", cardID).
			First(&card).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("review: card %d: %w", cardID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("review: load card %d: %w", cardID, err)
		}
		if card.Suspended {
			return fmt.Errorf("review: card %d is suspended: %w", cardID, models.ErrInvalidState)
		}

		now := time.Now()
		before := card.Scheduling()

		var elapsed time.Duration
		if card.LastReviewAt != nil {
			elapsed = now.Sub(*card.LastReviewAt)
		}
		result := sched.NextState(
			fsrs.MemoryState{Stability: card.Stability, Difficulty: card.Difficulty},
			elapsed, p.Rating)

		card.Stability = result.State.Stability
		card.Difficulty = result.State.Difficulty
		card.IntervalDays = result.IntervalDays
		due := result.Due
		card.Due = &due
		card.Reps++
		card.LastReviewAt = &now
		card.CardType = nextCardType(before.CardType, p.Rating)
		if p.Rating == fsrs.Again && before.CardType == models.CardTypeReview {
			card.Lapses++
		}

		err = tx.Model(&models.Card{}).Where("id = ?", card.ID).
			Updates(map[string]interface{}{
				"card_type":      card.CardType,
				"due":            card.Due,
				"interval_days":  card.IntervalDays,
				"stability":      card.Stability,
				"difficulty":     card.Difficulty,
				"reps":           card.Reps,
				"lapses":         card.Lapses,
				"last_review_at": card.LastReviewAt,
			}).Error
		if err != nil {
			return fmt.Errorf("review: update card %d: %w", card.ID, err)
		}

		log := models.ReviewLog{
			CardID:       card.ID,
			UserID:       card.UserID,
			Rating:       int(p.Rating),
			IntervalDays: card.IntervalDays,
			Stability:    card.Stability,
			Difficulty:   card.Difficulty,
			TimeTakenMs:  p.TimeTakenMs,
			ReviewedAt:   now,
		}
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("review: log card %d: %w", card.ID, err)
		}

		eval, err := leech.CheckCard(tx, &card, p.LeechThreshold, p.LeechAction)
		if err != nil {
			return err
		}

		out = Outcome{
			Card:  card,
			Log:   log,
			Leech: eval,
			Undo: undo.Entry{
				CardID:       card.ID,
				FrontPreview: frontPreview(tx, card.NoteID),
				Rating:       int(p.Rating),
				Before:       before,
				ReviewLogID:  log.ID,
				AutoPaused:   eval.WasPaused,
				RecordedAt:   now,
			},
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if stack != nil {
		stack.Record(out.Undo)
	}
	return out, nil
}

// previewLen bounds the card-front text kept on an undo entry.
const previewLen = 40

// frontPreview returns a truncated first field of the card's note for
// display in undo prompts. Display-only: a missing or malformed note
// yields an empty preview, never an error.
func frontPreview(tx *gorm.DB, noteID uint) string {
	var note models.Note
	if err := tx.Where("id = ?", noteID).First(&note).Error; err != nil {
		return ""
	}
	fields, err := note.FieldMap()
	if err != nil || len(fields) == 0 {
		return ""
	}
	value, ok := fields["Front"]
	if !ok {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		value = fields[names[0]]
	}
	runes := []rune(value)
	if len(runes) > previewLen {
		return string(runes[:previewLen]) + "…"
	}
	return value
}

// nextCardType is the state transition for one review. A failed review
// card goes to relearning; any passed review graduates to review; a
// failed card that has not graduated yet keeps learning.
func nextCardType(current string, rating fsrs.Rating) string {
	if rating == fsrs.Again {
		switch current {
		case models.CardTypeReview, models.CardTypeRelearning:
			return models.CardTypeRelearning
		default:
			return models.CardTypeLearning
		}
	}
	return models.CardTypeReview
}
