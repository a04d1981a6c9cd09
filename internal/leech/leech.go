// Package leech decides when a chronically-failed card needs attention
// and applies the configured reaction: tagging the owning note, and
// optionally auto-suspending the card. The firing rule and its side
// effects are used both by the review flow and by bulk card management,
// so they live here once.
package leech

import (
	"errors"
	"fmt"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"github.com/palabra-app/palabra/internal/suspend"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Action selects what happens when the detector fires.
type Action string

const (
	ActionTagOnly Action = "tag_only"
	ActionPause   Action = "pause"
)

// Evaluation is the ephemeral result of one leech check.
type Evaluation struct {
	IsLeech   bool
	Lapses    int
	Threshold int
	Action    Action
	WasTagged bool
	WasPaused bool
}

// Firing reports whether the detector fires at this lapse count: at the
// threshold exactly, then every half-threshold lapses after it. The gap
// keeps a leech from being re-tagged on every single further failure.
func Firing(lapses, threshold int) bool {
	if threshold < 1 || lapses < threshold {
		return false
	}
	half := threshold / 2
	if half < 1 {
		half = 1
	}
	return (lapses-threshold)%half == 0
}

// Check evaluates one card and applies side effects in its own
// transaction. The review flow, which already holds the card inside a
// transaction, uses CheckCard instead.
func Check(gdb *gorm.DB, cardID uint, threshold int, action Action) (Evaluation, error) {
	var eval Evaluation
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		var card models.Card
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", cardID).
			First(&card).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("leech: card %d: %w", cardID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("leech: load card %d: %w", cardID, err)
		}
		eval, err = CheckCard(tx, &card, threshold, action)
		return err
	})
	return eval, err
}

// CheckCard evaluates a card inside an open transaction and applies the
// side effects of a firing evaluation: an idempotent "Leech" tag on the
// owning note, and an auto-pause when the action asks for one and the
// card is not already suspended.
func CheckCard(tx *gorm.DB, card *models.Card, threshold int, action Action) (Evaluation, error) {
	eval := Evaluation{
		IsLeech:   threshold >= 1 && card.Lapses >= threshold,
		Lapses:    card.Lapses,
		Threshold: threshold,
		Action:    action,
	}
	if !Firing(card.Lapses, threshold) {
		return eval, nil
	}

	tag, _, err := db.EnsureTag(tx, card.UserID, models.TagLeech)
	if err != nil {
		return eval, fmt.Errorf("leech: %w", err)
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.NoteTag{NoteID: card.NoteID, TagID: tag.ID})
	if result.Error != nil {
		return eval, fmt.Errorf("leech: tag note %d: %w", card.NoteID, result.Error)
	}
	eval.WasTagged = result.RowsAffected > 0

	if action == ActionPause && !card.Suspended {
		reason := fmt.Sprintf("leech: %d lapses", card.Lapses)
		if err := suspend.ApplyPause(tx, card.ID, models.SuspendLeechAuto, reason, nil); err != nil {
			return eval, fmt.Errorf("leech: %w", err)
		}
		card.Suspended = true
		card.SuspendedBy = models.SuspendLeechAuto
		eval.WasPaused = true
	}
	return eval, nil
}
