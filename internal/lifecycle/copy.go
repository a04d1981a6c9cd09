package lifecycle

import (
	"fmt"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// CopyNote duplicates a note's content and tags into a new note, and
// creates one fresh card per source card-template slot. Every new card
// starts in the New state regardless of how far the source cards had
// progressed. targetDeckID, when non-nil, moves the copy to that deck.
func CopyNote(gdb *gorm.DB, noteID uint, targetDeckID *uint) (*models.Note, []models.Card, error) {
	var copied models.Note
	var cards []models.Card

	err := db.Transact(gdb, func(tx *gorm.DB) error {
		src, err := lockNote(tx, noteID)
		if err != nil {
			return err
		}

		deckID := src.DeckID
		if targetDeckID != nil {
			deckID = *targetDeckID
		}

		fields, err := src.FieldMap()
		if err != nil {
			return fmt.Errorf("lifecycle: decode fields of note %d: %w", noteID, err)
		}

		copied = models.Note{
			UserID:             src.UserID,
			DeckID:             deckID,
			Fields:             src.Fields,
			FirstFieldChecksum: Checksum(fields),
		}
		if err := tx.Create(&copied).Error; err != nil {
			return fmt.Errorf("lifecycle: copy note %d: %w", noteID, err)
		}

		var srcCards []models.Card
		if err := tx.Where("note_id = ?", src.ID).Order("template_ord ASC").Find(&srcCards).Error; err != nil {
			return fmt.Errorf("lifecycle: load cards of note %d: %w", noteID, err)
		}
		cards = make([]models.Card, len(srcCards))
		for i, sc := range srcCards {
			cards[i] = models.Card{
				NoteID:      copied.ID,
				DeckID:      deckID,
				UserID:      src.UserID,
				TemplateOrd: sc.TemplateOrd,
				CardType:    models.CardTypeNew,
			}
		}
		if len(cards) > 0 {
			if err := tx.Create(&cards).Error; err != nil {
				return fmt.Errorf("lifecycle: create copied cards: %w", err)
			}
		}

		var tags []models.NoteTag
		if err := tx.Where("note_id = ?", src.ID).Find(&tags).Error; err != nil {
			return fmt.Errorf("lifecycle: load tags of note %d: %w", noteID, err)
		}
		for _, nt := range tags {
			if err := tx.Create(&models.NoteTag{NoteID: copied.ID, TagID: nt.TagID}).Error; err != nil {
				return fmt.Errorf("lifecycle: copy tag %d: %w", nt.TagID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &copied, cards, nil
}
