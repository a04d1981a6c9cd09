package leech

import (
	"errors"
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
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func cardWithLapses(t *testing.T, db *gorm.DB, lapses int) *models.Card {
	t.Helper()
	note := models.Note{UserID: 1, DeckID: 1, Fields: `{"Front":"ser"}`}
	if err := db.Create(&note).Error; err != nil {
		t.Fatalf("create note: %v", err)
	}
	card := models.Card{
		NoteID:   note.ID,
		DeckID:   1,
		UserID:   1,
		CardType: models.CardTypeRelearning,
		Lapses:   lapses,
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("create card: %v", err)
	}
	return &card
}

func TestFiring_ThresholdPeriodicity(t *testing.T) {
	// threshold=8 fires at 8, 12, 16, 20, ...
	fires := map[int]bool{8: true, 12: true, 16: true, 20: true}
	for lapses := 0; lapses <= 21; lapses++ {
		want := fires[lapses]
		if got := Firing(lapses, 8); got != want {
			t.Errorf("Firing(%d, 8) = %v, want %v", lapses, got, want)
		}
	}
}

func TestFiring_SmallThresholds(t *testing.T) {
	tests := []struct {
		lapses, threshold int
		want              bool
	}{
		{0, 1, false},
		{1, 1, true},
		{2, 1, true}, // half-threshold clamps to 1: fires every lapse
		{3, 1, true},
		{1, 2, false},
		{2, 2, true},
		{3, 2, true},
		{4, 2, true},
		{2, 3, false},
		{3, 3, true},
		{4, 3, true}, // floor(3/2)=1
		{5, 0, false},
		{5, -1, false},
	}
	for _, tt := range tests {
		if got := Firing(tt.lapses, tt.threshold); got != tt.want {
			t.Errorf("Firing(%d, %d) = %v, want %v", tt.lapses, tt.threshold, got, tt.want)
		}
	}
}

func TestCheck_BelowThreshold(t *testing.T) {
	db := testDB(t)
	card := cardWithLapses(t, db, 4)

	eval, err := Check(db, card.ID, 8, ActionPause)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if eval.IsLeech {
		t.Error("IsLeech = true below threshold")
	}
	if eval.WasTagged || eval.WasPaused {
		t.Errorf("side effects fired below threshold: %+v", eval)
	}

	var got models.Card
	if err := db.First(&got, card.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Suspended {
		t.Error("card should stay active below threshold")
	}
}

func TestCheck_AtThreshold_Pause(t *testing.T) {
	db := testDB(t)
	card := cardWithLapses(t, db, 8)

	eval, err := Check(db, card.ID, 8, ActionPause)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !eval.IsLeech || !eval.WasTagged || !eval.WasPaused {
		t.Errorf("eval = %+v, want leech tagged and paused", eval)
	}

	var got models.Card
	if err := db.First(&got, card.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !got.Suspended || got.SuspendedBy != models.SuspendLeechAuto {
		t.Errorf("card = suspended %v by %q, want leech_auto suspension", got.Suspended, got.SuspendedBy)
	}

	var tagCount int64
	db.Model(&models.NoteTag{}).Where("note_id = ?", card.NoteID).Count(&tagCount)
	if tagCount != 1 {
		t.Errorf("note tag count = %d, want 1", tagCount)
	}
}

func TestCheck_TagOnly(t *testing.T) {
	db := testDB(t)
	card := cardWithLapses(t, db, 8)

	eval, err := Check(db, card.ID, 8, ActionTagOnly)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !eval.WasTagged {
		t.Error("tag_only should still tag")
	}
	if eval.WasPaused {
		t.Error("tag_only must not pause")
	}

	var got models.Card
	if err := db.First(&got, card.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Suspended {
		t.Error("card should stay active under tag_only")
	}
}

func TestCheck_TagInsertIdempotent(t *testing.T) {
	db := testDB(t)
	card := cardWithLapses(t, db, 8)

	first, err := Check(db, card.ID, 8, ActionTagOnly)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !first.WasTagged {
		t.Error("first firing should insert the tag")
	}

	// Next firing point for threshold 8 is 12 lapses.
	if err := db.Model(&models.Card{}).Where("id = ?", card.ID).Update("lapses", 12).Error; err != nil {
		t.Fatal(err)
	}
	second, err := Check(db, card.ID, 8, ActionTagOnly)
	if err != nil {
		t.Fatalf("Check at 12 lapses: %v", err)
	}
	if second.WasTagged {
		t.Error("re-firing should report the tag as already present")
	}

	var tagCount int64
	db.Model(&models.NoteTag{}).Where("note_id = ?", card.NoteID).Count(&tagCount)
	if tagCount != 1 {
		t.Errorf("note tag count = %d, want 1", tagCount)
	}
}

func TestCheck_AlreadySuspendedNotRepaused(t *testing.T) {
	db := testDB(t)
	card := cardWithLapses(t, db, 8)
	if err := db.Model(&models.Card{}).Where("id = ?", card.ID).
		Updates(map[string]interface{}{"suspended": true, "suspended_by": models.SuspendManual}).Error; err != nil {
		t.Fatal(err)
	}

	eval, err := Check(db, card.ID, 8, ActionPause)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if eval.WasPaused {
		t.Error("already-suspended card must not be re-paused")
	}

	var got models.Card
	if err := db.First(&got, card.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.SuspendedBy != models.SuspendManual {
		t.Errorf("SuspendedBy = %q, want manual suspension preserved", got.SuspendedBy)
	}
}

func TestCheck_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := Check(db, 999, 8, ActionPause)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Check on missing card = %v, want ErrNotFound", err)
	}
}
