package lifecycle

import (
	"testing"

	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Deck{},
		&models.Note{},
		&models.Card{},
		&models.Tag{},
		&models.NoteTag{},
		&models.ReviewLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

// newNote inserts a note with a Front/Back field pair.
func newNote(t *testing.T, db *gorm.DB, userID, deckID uint) *models.Note {
	t.Helper()
	note := models.Note{UserID: userID, DeckID: deckID}
	if err := note.SetFieldMap(map[string]string{"Front": "hablar", "Back": "to speak"}); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	note.FirstFieldChecksum = Checksum(map[string]string{"Front": "hablar", "Back": "to speak"})
	mustCreate(t, db, &note)
	return &note
}

// newCardFor inserts a card for the note in the given state.
func newCardFor(t *testing.T, db *gorm.DB, note *models.Note, cardType string) *models.Card {
	t.Helper()
	card := models.Card{
		NoteID:   note.ID,
		DeckID:   note.DeckID,
		UserID:   note.UserID,
		CardType: cardType,
	}
	mustCreate(t, db, &card)
	return &card
}

func reload(t *testing.T, db *gorm.DB, cardID uint) *models.Card {
	t.Helper()
	var card models.Card
	if err := db.First(&card, cardID).Error; err != nil {
		t.Fatalf("reload card %d: %v", cardID, err)
	}
	return &card
}
