package lifecycle

import (
	"fmt"
	"math/rand"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepositionNewCards assigns queue positions start, start+step, … to
// the given New cards, in the order the ids were passed. With randomize
// the same set of positions is dealt out in shuffled order, so the
// position multiset is identical either way. Fails with InvalidState if
// any target card is not New.
func RepositionNewCards(gdb *gorm.DB, cardIDs []uint, start, step int, randomize bool) error {
	if len(cardIDs) == 0 {
		return nil
	}
	return db.Transact(gdb, func(tx *gorm.DB) error {
		var cards []models.Card
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", cardIDs).
			Find(&cards).Error
		if err != nil {
			return fmt.Errorf("lifecycle: load cards for reposition: %w", err)
		}
		if len(cards) != len(cardIDs) {
			return fmt.Errorf("lifecycle: reposition resolved %d of %d cards: %w",
				len(cards), len(cardIDs), models.ErrNotFound)
		}

		byID := make(map[uint]*models.Card, len(cards))
		for i := range cards {
			c := &cards[i]
			if c.CardType != models.CardTypeNew {
				return fmt.Errorf("lifecycle: card %d is %s, reposition needs new: %w",
					c.ID, c.CardType, models.ErrInvalidState)
			}
			byID[c.ID] = c
		}

		positions := make([]int, len(cardIDs))
		for i := range positions {
			positions[i] = start + i*step
		}
		if randomize {
			rand.Shuffle(len(positions), func(i, j int) {
				positions[i], positions[j] = positions[j], positions[i]
			})
		}

		for i, id := range cardIDs {
			card := byID[id]
			if err := card.SetPosition(positions[i]); err != nil {
				return fmt.Errorf("lifecycle: encode position for card %d: %w", id, err)
			}
			if err := tx.Model(&models.Card{}).Where("id = ?", id).Update("meta", card.Meta).Error; err != nil {
				return fmt.Errorf("lifecycle: write position for card %d: %w", id, err)
			}
		}
		return nil
	})
}
