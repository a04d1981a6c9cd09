package lifecycle

import (
	"fmt"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// resetAssignments zeroes every scheduling field and returns the card
// to the New state.
func resetAssignments() map[string]interface{} {
	return map[string]interface{}{
		"card_type":      models.CardTypeNew,
		"due":            nil,
		"interval_days":  0,
		"stability":      0,
		"difficulty":     0,
		"reps":           0,
		"lapses":         0,
		"last_review_at": nil,
	}
}

// ResetToNew unconditionally returns a card to the New state with all
// scheduling history zeroed. Applying it twice is the same as once.
func ResetToNew(gdb *gorm.DB, cardID uint) error {
	return db.Transact(gdb, func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).Updates(resetAssignments()).Error; err != nil {
			return fmt.Errorf("lifecycle: reset card %d: %w", card.ID, err)
		}
		return nil
	})
}

// BatchResetToNew resets many cards in a single set-based update and
// returns the number of rows touched.
func BatchResetToNew(gdb *gorm.DB, cardIDs []uint) (int64, error) {
	if len(cardIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		result := tx.Model(&models.Card{}).Where("id IN ?", cardIDs).Updates(resetAssignments())
		if result.Error != nil {
			return fmt.Errorf("lifecycle: batch reset: %w", result.Error)
		}
		total = result.RowsAffected
		return nil
	})
	return total, err
}
