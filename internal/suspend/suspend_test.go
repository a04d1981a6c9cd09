package suspend

import (
	"errors"
	"testing"
	"time"

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

// newCard inserts a review-state card in the given deck and returns it.
func newCard(t *testing.T, db *gorm.DB, userID, deckID uint) *models.Card {
	t.Helper()
	note := models.Note{UserID: userID, DeckID: deckID, Fields: `{"Front":"hola"}`}
	mustCreate(t, db, &note)
	card := models.Card{
		NoteID:   note.ID,
		DeckID:   deckID,
		UserID:   userID,
		CardType: models.CardTypeReview,
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

func TestPauseAndResume(t *testing.T) {
	db := testDB(t)
	card := newCard(t, db, 1, 1)

	if err := Pause(db, card.ID, "too hard for now"); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	got := reload(t, db, card.ID)
	if !got.Suspended {
		t.Error("card should be suspended")
	}
	if got.SuspendedBy != models.SuspendManual {
		t.Errorf("SuspendedBy = %q, want %q", got.SuspendedBy, models.SuspendManual)
	}
	if got.PauseReason != "too hard for now" {
		t.Errorf("PauseReason = %q", got.PauseReason)
	}
	if got.ResumeDate != nil {
		t.Error("manual pause should have no resume date")
	}
	if got.SuspendedAt == nil {
		t.Error("SuspendedAt should be set")
	}

	if err := Resume(db, card.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	got = reload(t, db, card.ID)
	if got.Suspended || got.SuspendedBy != "" || got.PauseReason != "" || got.ResumeDate != nil || got.SuspendedAt != nil {
		t.Errorf("Resume left suspension fields: %+v", got)
	}
}

func TestResume_Idempotent(t *testing.T) {
	db := testDB(t)
	card := newCard(t, db, 1, 1)

	if err := Resume(db, card.ID); err != nil {
		t.Fatalf("Resume on active card: %v", err)
	}
	if err := Resume(db, card.ID); err != nil {
		t.Fatalf("Resume twice: %v", err)
	}
}

func TestPause_NotFound(t *testing.T) {
	db := testDB(t)
	err := Pause(db, 999, "")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Pause on missing card = %v, want ErrNotFound", err)
	}
}

func TestSkipUntilTomorrow(t *testing.T) {
	db := testDB(t)
	card := newCard(t, db, 1, 1)

	if err := SkipUntilTomorrow(db, card.ID); err != nil {
		t.Fatalf("SkipUntilTomorrow: %v", err)
	}
	got := reload(t, db, card.ID)
	if !got.Suspended {
		t.Fatal("buried card should be suspended")
	}
	if got.ResumeDate == nil {
		t.Fatal("buried card should have a resume date")
	}
	want := StartOfNextDay(time.Now())
	if !got.ResumeDate.Equal(want) {
		t.Errorf("ResumeDate = %v, want %v", got.ResumeDate, want)
	}
}

func TestSkipUntilTomorrow_UserTimeZone(t *testing.T) {
	db := testDB(t)
	owner := models.User{Name: "alma", TimeZone: "UTC"}
	mustCreate(t, db, &owner)
	card := newCard(t, db, owner.ID, 1)

	if err := SkipUntilTomorrow(db, card.ID); err != nil {
		t.Fatalf("SkipUntilTomorrow: %v", err)
	}
	got := reload(t, db, card.ID)
	if got.ResumeDate == nil {
		t.Fatal("buried card should have a resume date")
	}
	want := StartOfNextDay(time.Now().In(time.UTC))
	if !got.ResumeDate.Equal(want) {
		t.Errorf("ResumeDate = %v, want %v (owner's day boundary)", got.ResumeDate, want)
	}
}

func TestSkipUntilTomorrow_UnknownZoneFallsBack(t *testing.T) {
	db := testDB(t)
	owner := models.User{Name: "bruno", TimeZone: "Mars/Olympus_Mons"}
	mustCreate(t, db, &owner)
	card := newCard(t, db, owner.ID, 1)

	if err := SkipUntilTomorrow(db, card.ID); err != nil {
		t.Fatalf("SkipUntilTomorrow: %v", err)
	}
	got := reload(t, db, card.ID)
	if got.ResumeDate == nil {
		t.Fatal("buried card should have a resume date")
	}
	want := StartOfNextDay(time.Now())
	if !got.ResumeDate.Equal(want) {
		t.Errorf("ResumeDate = %v, want server-local %v", got.ResumeDate, want)
	}
}

func TestPause_StorageFailure(t *testing.T) {
	db := testDB(t)
	if err := db.Migrator().DropTable(&models.Card{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	err := Pause(db, 1, "")
	if !errors.Is(err, models.ErrTransaction) {
		t.Errorf("Pause on broken store = %v, want ErrTransaction", err)
	}
}

func TestStartOfNextDay(t *testing.T) {
	at := time.Date(2026, 8, 24, 23, 59, 59, 0, time.UTC)
	want := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	if got := StartOfNextDay(at); !got.Equal(want) {
		t.Errorf("StartOfNextDay = %v, want %v", got, want)
	}
}

func TestPauseUntil(t *testing.T) {
	db := testDB(t)
	card := newCard(t, db, 1, 1)

	future := time.Now().Add(72 * time.Hour)
	if err := PauseUntil(db, card.ID, future, "vacation"); err != nil {
		t.Fatalf("PauseUntil: %v", err)
	}
	got := reload(t, db, card.ID)
	if got.ResumeDate == nil || !got.ResumeDate.Equal(future) {
		t.Errorf("ResumeDate = %v, want %v", got.ResumeDate, future)
	}
}

func TestPauseUntil_PastDate(t *testing.T) {
	db := testDB(t)
	card := newCard(t, db, 1, 1)

	err := PauseUntil(db, card.ID, time.Now().Add(-time.Hour), "")
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("PauseUntil with past date = %v, want ErrInvalidArgument", err)
	}
	if reload(t, db, card.ID).Suspended {
		t.Error("card should not be suspended after rejected PauseUntil")
	}
}
