package lifecycle

import (
	"fmt"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// EditDuringReview merges a partial field map into a note's content
// without touching fields the map does not name, then refreshes the
// duplicate-detection fingerprint. An empty update map is a no-op.
func EditDuringReview(gdb *gorm.DB, noteID uint, fieldUpdates map[string]string) error {
	if len(fieldUpdates) == 0 {
		return nil
	}
	return db.Transact(gdb, func(tx *gorm.DB) error {
		note, err := lockNote(tx, noteID)
		if err != nil {
			return err
		}

		fields, err := note.FieldMap()
		if err != nil {
			return fmt.Errorf("lifecycle: decode fields of note %d: %w", noteID, err)
		}
		for name, value := range fieldUpdates {
			fields[name] = value
		}
		if err := note.SetFieldMap(fields); err != nil {
			return fmt.Errorf("lifecycle: encode fields of note %d: %w", noteID, err)
		}

		err = tx.Model(&models.Note{}).Where("id = ?", note.ID).Updates(map[string]interface{}{
			"fields":               note.Fields,
			"first_field_checksum": Checksum(fields),
		}).Error
		if err != nil {
			return fmt.Errorf("lifecycle: save note %d: %w", note.ID, err)
		}
		return nil
	})
}
