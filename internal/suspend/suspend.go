// Package suspend applies and clears the suspension fields on cards:
// manual pauses, timed pauses, tag- and deck-scoped batches, and the
// periodic jobs that lift expired pauses.
package suspend

import (
	"errors"
	"fmt"
	"time"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pauseAssignments builds the column set for suspending a card.
func pauseAssignments(source, reason string, resumeDate *time.Time, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"suspended":    true,
		"suspended_at": now,
		"suspended_by": source,
		"pause_reason": reason,
		"resume_date":  resumeDate,
	}
}

// resumeAssignments builds the column set for clearing a suspension.
func resumeAssignments() map[string]interface{} {
	return map[string]interface{}{
		"suspended":    false,
		"suspended_at": nil,
		"suspended_by": "",
		"pause_reason": "",
		"resume_date":  nil,
	}
}

// lockCard loads a card inside tx with a row lock, mapping a missing
// row to models.ErrNotFound.
func lockCard(tx *gorm.DB, cardID uint) (*models.Card, error) {
	var card models.Card
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", cardID).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("suspend: card %d: %w", cardID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("suspend: load card %d: %w", cardID, err)
	}
	return &card, nil
}

// Pause suspends a single card manually, with an optional reason.
func Pause(gdb *gorm.DB, cardID uint, reason string) error {
	return db.Transact(gdb, func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		return ApplyPause(tx, card.ID, models.SuspendManual, reason, nil)
	})
}

// ApplyPause writes the suspension fields for one card inside an open
// transaction. Callers that have already locked the row (the leech
// detector, the batch operations) use this directly.
func ApplyPause(tx *gorm.DB, cardID uint, source, reason string, resumeDate *time.Time) error {
	err := tx.Model(&models.Card{}).Where("id = ?", cardID).
		Updates(pauseAssignments(source, reason, resumeDate, time.Now())).Error
	if err != nil {
		return fmt.Errorf("suspend: pause card %d: %w", cardID, err)
	}
	return nil
}

// Resume clears all suspension fields on a card unconditionally.
// Idempotent: resuming an active card is a no-op.
func Resume(gdb *gorm.DB, cardID uint) error {
	return db.Transact(gdb, func(tx *gorm.DB) error {
		if _, err := lockCard(tx, cardID); err != nil {
			return err
		}
		err := tx.Model(&models.Card{}).Where("id = ?", cardID).
			Updates(resumeAssignments()).Error
		if err != nil {
			return fmt.Errorf("suspend: resume card %d: %w", cardID, err)
		}
		return nil
	})
}

// SkipUntilTomorrow buries a card: suspended until the start of the
// owner's next calendar day, when the unbury job lifts it. The day
// boundary follows the owner's configured time zone.
func SkipUntilTomorrow(gdb *gorm.DB, cardID uint) error {
	return db.Transact(gdb, func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		tomorrow := StartOfNextDay(time.Now().In(userLocation(tx, card.UserID)))
		return ApplyPause(tx, card.ID, models.SuspendManual, "buried", &tomorrow)
	})
}

// PauseUntil suspends a card with an explicit future resume date.
func PauseUntil(gdb *gorm.DB, cardID uint, date time.Time, reason string) error {
	if !date.After(time.Now()) {
		return fmt.Errorf("suspend: resume date %s is not in the future: %w",
			date.Format(time.RFC3339), models.ErrInvalidArgument)
	}
	return db.Transact(gdb, func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		return ApplyPause(tx, card.ID, models.SuspendManual, reason, &date)
	})
}

// StartOfNextDay returns the next midnight after t in t's location.
func StartOfNextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// userLocation resolves a user's configured time zone. Missing users,
// an empty setting, or an unknown zone name fall back to server time.
func userLocation(tx *gorm.DB, userID uint) *time.Location {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil || user.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(user.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
