package lifecycle

import (
	"errors"
	"testing"

	"github.com/palabra-app/palabra/internal/models"
)

func TestCopyNote(t *testing.T) {
	db := testDB(t)
	note := newNote(t, db, 1, 1)

	// Two template slots, one well into review.
	first := newCardFor(t, db, note, models.CardTypeReview)
	if err := db.Model(first).Updates(map[string]interface{}{"reps": 12, "lapses": 2}).Error; err != nil {
		t.Fatal(err)
	}
	second := newCardFor(t, db, note, models.CardTypeLearning)
	if err := db.Model(second).Update("template_ord", 1).Error; err != nil {
		t.Fatal(err)
	}

	tag := models.Tag{UserID: 1, Name: "verbs"}
	mustCreate(t, db, &tag)
	mustCreate(t, db, &models.NoteTag{NoteID: note.ID, TagID: tag.ID})

	copied, cards, err := CopyNote(db, note.ID, nil)
	if err != nil {
		t.Fatalf("CopyNote: %v", err)
	}
	if copied.ID == note.ID {
		t.Fatal("copy reused the source note id")
	}
	if copied.Fields != note.Fields {
		t.Errorf("copied fields = %s, want %s", copied.Fields, note.Fields)
	}
	if copied.FirstFieldChecksum == "" {
		t.Error("copied note missing checksum")
	}

	if len(cards) != 2 {
		t.Fatalf("copied %d cards, want 2", len(cards))
	}
	for _, c := range cards {
		if c.CardType != models.CardTypeNew {
			t.Errorf("copied card type = %q, want new regardless of source state", c.CardType)
		}
		if c.Reps != 0 || c.Lapses != 0 || c.Due != nil {
			t.Errorf("copied card carries history: %+v", c)
		}
	}
	if cards[0].TemplateOrd == cards[1].TemplateOrd {
		t.Error("copied cards should keep distinct template slots")
	}

	var tagCount int64
	db.Model(&models.NoteTag{}).Where("note_id = ?", copied.ID).Count(&tagCount)
	if tagCount != 1 {
		t.Errorf("copied note tag count = %d, want 1", tagCount)
	}
}

func TestCopyNote_TargetDeck(t *testing.T) {
	db := testDB(t)
	note := newNote(t, db, 1, 1)
	newCardFor(t, db, note, models.CardTypeReview)

	target := uint(7)
	copied, cards, err := CopyNote(db, note.ID, &target)
	if err != nil {
		t.Fatalf("CopyNote: %v", err)
	}
	if copied.DeckID != target {
		t.Errorf("copied note deck = %d, want %d", copied.DeckID, target)
	}
	if cards[0].DeckID != target {
		t.Errorf("copied card deck = %d, want %d", cards[0].DeckID, target)
	}
}

func TestCopyNote_NotFound(t *testing.T) {
	db := testDB(t)
	_, _, err := CopyNote(db, 999, nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("CopyNote on missing note = %v, want ErrNotFound", err)
	}
}
