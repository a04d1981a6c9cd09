package lifecycle

import (
	"errors"
	"fmt"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// ToggleMarked flips the reserved "Marked" tag on a note, creating the
// tag for the note's owner if it does not exist yet. Returns the state
// after the flip: true when the note is now marked.
func ToggleMarked(gdb *gorm.DB, noteID uint) (bool, error) {
	var marked bool
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		note, err := lockNote(tx, noteID)
		if err != nil {
			return err
		}

		tag, _, err := db.EnsureTag(tx, note.UserID, models.TagMarked)
		if err != nil {
			return fmt.Errorf("lifecycle: %w", err)
		}

		var existing models.NoteTag
		err = tx.Where("note_id = ? AND tag_id = ?", note.ID, tag.ID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("note_id = ? AND tag_id = ?", note.ID, tag.ID).
				Delete(&models.NoteTag{}).Error; err != nil {
				return fmt.Errorf("lifecycle: unmark note %d: %w", note.ID, err)
			}
			marked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.NoteTag{NoteID: note.ID, TagID: tag.ID}).Error; err != nil {
				return fmt.Errorf("lifecycle: mark note %d: %w", note.ID, err)
			}
			marked = true
		default:
			return fmt.Errorf("lifecycle: check mark on note %d: %w", note.ID, err)
		}
		return nil
	})
	return marked, err
}
