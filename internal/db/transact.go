package db

import (
	"errors"
	"fmt"

	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// Transact runs fn inside a transaction. Errors carrying one of the
// shared error kinds pass through unchanged; anything else, including
// a failed commit or rollback, is classified as models.ErrTransaction
// so callers can match the kind with errors.Is.
func Transact(gdb *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := gdb.Transaction(fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrInvalidArgument):
		return err
	default:
		return fmt.Errorf("db: transaction: %w: %w", models.ErrTransaction, err)
	}
}
