// Package lifecycle implements the state-machine operations a user or
// scheduler invokes on cards outside the review loop: due-date changes,
// resets, repositioning, note copying, marking, and the read-side card
// info views.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockCard loads a card inside tx with a row lock, mapping a missing
// row to models.ErrNotFound.
func lockCard(tx *gorm.DB, cardID uint) (*models.Card, error) {
	var card models.Card
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", cardID).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lifecycle: card %d: %w", cardID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lifecycle: load card %d: %w", cardID, err)
	}
	return &card, nil
}

// lockNote does the same for notes.
func lockNote(tx *gorm.DB, noteID uint) (*models.Note, error) {
	var note models.Note
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", noteID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lifecycle: note %d: %w", noteID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lifecycle: load note %d: %w", noteID, err)
	}
	return &note, nil
}
