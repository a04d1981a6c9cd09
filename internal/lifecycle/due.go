package lifecycle

import (
	"fmt"
	"math"
	"time"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// intervalFromDate derives the interval a New card gets when promoted
// straight to Review with an explicit due date: at least one day.
func intervalFromDate(date, now time.Time) int {
	days := int(math.Round(date.Sub(now).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// SetDueDate rewrites a card's due date. For a New card this is a state
// transition: the card is promoted to Review with an interval derived
// from the date. For all other states only the due date changes.
func SetDueDate(gdb *gorm.DB, cardID uint, date time.Time) error {
	return db.Transact(gdb, func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"due": date}
		if card.CardType == models.CardTypeNew {
			updates["card_type"] = models.CardTypeReview
			updates["interval_days"] = intervalFromDate(date, time.Now())
		}
		if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("lifecycle: set due date on card %d: %w", card.ID, err)
		}
		return nil
	})
}

// BatchSetDueDate applies the SetDueDate rule to many cards as two
// set-based updates (New cards vs. the rest) in one transaction.
// Returns the number of rows touched; ids that do not resolve are
// simply not counted.
func BatchSetDueDate(gdb *gorm.DB, cardIDs []uint, date time.Time) (int64, error) {
	if len(cardIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		promote := tx.Model(&models.Card{}).
			Where("id IN ? AND card_type = ?", cardIDs, models.CardTypeNew).
			Updates(map[string]interface{}{
				"due":           date,
				"card_type":     models.CardTypeReview,
				"interval_days": intervalFromDate(date, time.Now()),
			})
		if promote.Error != nil {
			return fmt.Errorf("lifecycle: batch promote new cards: %w", promote.Error)
		}

		reschedule := tx.Model(&models.Card{}).
			Where("id IN ? AND card_type != ?", cardIDs, models.CardTypeNew).
			Update("due", date)
		if reschedule.Error != nil {
			return fmt.Errorf("lifecycle: batch set due date: %w", reschedule.Error)
		}

		total = promote.RowsAffected + reschedule.RowsAffected
		return nil
	})
	return total, err
}
