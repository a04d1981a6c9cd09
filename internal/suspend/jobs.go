package suspend

import (
	"fmt"
	"time"

	"github.com/palabra-app/palabra/internal/db"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// UnburyDueToday resumes all of one user's cards whose resume date has
// arrived. Run once per day boundary per user; running it again in the
// same window finds nothing to do.
func UnburyDueToday(gdb *gorm.DB, userID uint) (int64, error) {
	var affected int64
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		result := tx.Model(&models.Card{}).
			Where("user_id = ? AND suspended = ? AND resume_date IS NOT NULL AND resume_date <= ?",
				userID, true, time.Now()).
			Updates(resumeAssignments())
		if result.Error != nil {
			return fmt.Errorf("suspend: unbury for user %d: %w", userID, result.Error)
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// ResumeExpiredTimedPauses resumes any user's cards whose resume date
// has arrived, regardless of how the pause was created. This is the
// global periodic job; it is idempotent for the same reason as unbury.
func ResumeExpiredTimedPauses(gdb *gorm.DB) (int64, error) {
	var affected int64
	err := db.Transact(gdb, func(tx *gorm.DB) error {
		result := tx.Model(&models.Card{}).
			Where("suspended = ? AND resume_date IS NOT NULL AND resume_date <= ?", true, time.Now()).
			Updates(resumeAssignments())
		if result.Error != nil {
			return fmt.Errorf("suspend: resume expired pauses: %w", result.Error)
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}
