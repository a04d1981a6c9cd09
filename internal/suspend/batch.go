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

// BatchResult reports what a batch suspension operation touched.
type BatchResult struct {
	AffectedCount int
	CardIDs       []uint
}

// PauseByTag suspends every currently-active card whose note carries
// the tag (or, with includeChildren, any tag in its subtree). The write
// is a single set-based UPDATE.
func PauseByTag(gdb *gorm.DB, tagID uint, includeChildren bool, reason string) (BatchResult, error) {
	var result BatchResult
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		tagIDs, err := tagSubtreeIDs(tx, tagID, includeChildren)
		if err != nil {
			return err
		}

		var cardIDs []uint
		err = tx.Model(&models.Card{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Joins("JOIN note_tags ON note_tags.note_id = cards.note_id").
			Where("note_tags.tag_id IN ?", tagIDs).
			Where("cards.suspended = ?", false).
			Distinct().
			Pluck("cards.id", &cardIDs).Error
		if err != nil {
			return fmt.Errorf("suspend: find active cards for tag %d: %w", tagID, err)
		}
		if len(cardIDs) == 0 {
			return nil
		}

		err = tx.Model(&models.Card{}).Where("id IN ?", cardIDs).
			Updates(pauseAssignments(models.SuspendTagBatch, reason, nil, time.Now())).Error
		if err != nil {
			return fmt.Errorf("suspend: pause by tag %d: %w", tagID, err)
		}
		result = BatchResult{AffectedCount: len(cardIDs), CardIDs: cardIDs}
		return nil
	})
	return result, err
}

// ResumeByTag resumes the cards a tag batch paused through this tag (or
// its subtree). Cards paused by any other means, manually or by the
// leech detector, keep their suspension even when they carry the tag.
func ResumeByTag(gdb *gorm.DB, tagID uint, includeChildren bool) (BatchResult, error) {
	var result BatchResult
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		tagIDs, err := tagSubtreeIDs(tx, tagID, includeChildren)
		if err != nil {
			return err
		}

		var cardIDs []uint
		err = tx.Model(&models.Card{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Joins("JOIN note_tags ON note_tags.note_id = cards.note_id").
			Where("note_tags.tag_id IN ?", tagIDs).
			Where("cards.suspended = ?", true).
			Where("cards.suspended_by = ?", models.SuspendTagBatch).
			Distinct().
			Pluck("cards.id", &cardIDs).Error
		if err != nil {
			return fmt.Errorf("suspend: find batch-paused cards for tag %d: %w", tagID, err)
		}
		if len(cardIDs) == 0 {
			return nil
		}

		err = tx.Model(&models.Card{}).Where("id IN ?", cardIDs).
			Updates(resumeAssignments()).Error
		if err != nil {
			return fmt.Errorf("suspend: resume by tag %d: %w", tagID, err)
		}
		result = BatchResult{AffectedCount: len(cardIDs), CardIDs: cardIDs}
		return nil
	})
	return result, err
}

// PauseByDeck suspends every currently-active card in the deck (or,
// with includeSubtree, its whole deck subtree).
func PauseByDeck(gdb *gorm.DB, deckID uint, includeSubtree bool, reason string) (BatchResult, error) {
	var result BatchResult
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		deckIDs, err := deckSubtreeIDs(tx, deckID, includeSubtree)
		if err != nil {
			return err
		}

		var cardIDs []uint
		err = tx.Model(&models.Card{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deck_id IN ?", deckIDs).
			Where("suspended = ?", false).
			Pluck("id", &cardIDs).Error
		if err != nil {
			return fmt.Errorf("suspend: find active cards for deck %d: %w", deckID, err)
		}
		if len(cardIDs) == 0 {
			return nil
		}

		err = tx.Model(&models.Card{}).Where("id IN ?", cardIDs).
			Updates(pauseAssignments(models.SuspendDeckBatch, reason, nil, time.Now())).Error
		if err != nil {
			return fmt.Errorf("suspend: pause by deck %d: %w", deckID, err)
		}
		result = BatchResult{AffectedCount: len(cardIDs), CardIDs: cardIDs}
		return nil
	})
	return result, err
}

// ResumeByDeck resumes the cards a deck batch paused in the deck (or
// its subtree), leaving independently-paused cards suspended.
func ResumeByDeck(gdb *gorm.DB, deckID uint, includeSubtree bool) (BatchResult, error) {
	var result BatchResult
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		deckIDs, err := deckSubtreeIDs(tx, deckID, includeSubtree)
		if err != nil {
			return err
		}

		var cardIDs []uint
		err = tx.Model(&models.Card{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deck_id IN ?", deckIDs).
			Where("suspended = ?", true).
			Where("suspended_by = ?", models.SuspendDeckBatch).
			Pluck("id", &cardIDs).Error
		if err != nil {
			return fmt.Errorf("suspend: find batch-paused cards for deck %d: %w", deckID, err)
		}
		if len(cardIDs) == 0 {
			return nil
		}

		err = tx.Model(&models.Card{}).Where("id IN ?", cardIDs).
			Updates(resumeAssignments()).Error
		if err != nil {
			return fmt.Errorf("suspend: resume by deck %d: %w", deckID, err)
		}
		result = BatchResult{AffectedCount: len(cardIDs), CardIDs: cardIDs}
		return nil
	})
	return result, err
}

// tagSubtreeIDs resolves a tag id (and optionally its descendants) to
// the set of tag ids to match against. NotFound if the root is missing.
func tagSubtreeIDs(tx *gorm.DB, tagID uint, includeChildren bool) ([]uint, error) {
	var root models.Tag
	if err := tx.Where("id = ?", tagID).First(&root).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("suspend: tag %d: %w", tagID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("suspend: load tag %d: %w", tagID, err)
	}

	ids := []uint{root.ID}
	if !includeChildren {
		return ids, nil
	}
	frontier := ids
	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&models.Tag{}).Where("parent_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
			return nil, fmt.Errorf("suspend: tag children of %v: %w", frontier, err)
		}
		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}

// deckSubtreeIDs resolves a deck id (and optionally its descendants).
func deckSubtreeIDs(tx *gorm.DB, deckID uint, includeSubtree bool) ([]uint, error) {
	var root models.Deck
	if err := tx.Where("id = ?", deckID).First(&root).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("suspend: deck %d: %w", deckID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("suspend: load deck %d: %w", deckID, err)
	}

	ids := []uint{root.ID}
	if !includeSubtree {
		return ids, nil
	}
	frontier := ids
	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&models.Deck{}).Where("parent_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
			return nil, fmt.Errorf("suspend: deck children of %v: %w", frontier, err)
		}
		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}
