package db

import (
	"fmt"

	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns every GORM model the engine persists, for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Deck{},
		&models.Note{},
		&models.Card{},
		&models.Tag{},
		&models.NoteTag{},
		&models.ReviewLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// EnsureTag upserts a tag by (user, name) and returns its row. The
// insert is idempotent; created reports whether this call added it.
func EnsureTag(db *gorm.DB, userID uint, name string) (tag models.Tag, created bool, err error) {
	tag = models.Tag{UserID: userID, Name: name}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&tag)
	if result.Error != nil {
		return models.Tag{}, false, fmt.Errorf("db: ensure tag %q for user %d: %w", name, userID, result.Error)
	}
	created = result.RowsAffected > 0

	// DoNothing leaves the struct without an ID when the row existed.
	if tag.ID == 0 {
		if err := db.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error; err != nil {
			return models.Tag{}, false, fmt.Errorf("db: load tag %q for user %d: %w", name, userID, err)
		}
	}
	return tag, created, nil
}

// SeedUser creates a user with a default deck and the reserved tags,
// returning the user row. Safe to run repeatedly.
func SeedUser(db *gorm.DB, name, deckName string) (models.User, error) {
	user := models.User{Name: name}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&user)
	if result.Error != nil {
		return models.User{}, fmt.Errorf("db: seed user %q: %w", name, result.Error)
	}
	if user.ID == 0 {
		if err := db.Where("name = ?", name).First(&user).Error; err != nil {
			return models.User{}, fmt.Errorf("db: load user %q: %w", name, err)
		}
	}

	var deck models.Deck
	err := db.Where("user_id = ? AND name = ? AND parent_id IS NULL", user.ID, deckName).First(&deck).Error
	if err == gorm.ErrRecordNotFound {
		deck = models.Deck{UserID: user.ID, Name: deckName}
		err = db.Create(&deck).Error
	}
	if err != nil {
		return models.User{}, fmt.Errorf("db: seed deck %q: %w", deckName, err)
	}

	for _, name := range []string{models.TagLeech, models.TagMarked} {
		if _, _, err := EnsureTag(db, user.ID, name); err != nil {
			return models.User{}, err
		}
	}
	return user, nil
}
