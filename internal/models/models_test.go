package models

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestCard_Fields(t *testing.T) {
	typ := reflect.TypeOf(Card{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "NoteID", "index")
	assertGormTag(t, typ, "DeckID", "index")
	assertGormTag(t, typ, "UserID", "index")
	assertGormTag(t, typ, "CardType", "default:new")
	assertGormTag(t, typ, "CardType", "index")
	assertGormTag(t, typ, "Suspended", "default:false")
	assertGormTag(t, typ, "ResumeDate", "index")
	assertGormTag(t, typ, "SuspendedBy", "size:16")
	assertGormTag(t, typ, "Meta", "type:json")
}

func TestTag_UniquePerUser(t *testing.T) {
	typ := reflect.TypeOf(Tag{})
	assertGormTag(t, typ, "UserID", "uniqueIndex:idx_tag_user_name")
	assertGormTag(t, typ, "Name", "uniqueIndex:idx_tag_user_name")
}

func TestCard_SchedulingRoundTrip(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	last := due.AddDate(0, 0, -7)
	card := Card{
		CardType:     CardTypeReview,
		Due:          &due,
		IntervalDays: 7,
		Stability:    12.5,
		Difficulty:   4.2,
		Reps:         9,
		Lapses:       2,
		LastReviewAt: &last,
	}

	snap := card.Scheduling()

	var restored Card
	restored.ApplyScheduling(snap)

	if restored.CardType != CardTypeReview {
		t.Errorf("CardType = %q, want %q", restored.CardType, CardTypeReview)
	}
	if restored.Due == nil || !restored.Due.Equal(due) {
		t.Errorf("Due = %v, want %v", restored.Due, due)
	}
	if restored.IntervalDays != 7 || restored.Reps != 9 || restored.Lapses != 2 {
		t.Errorf("counters = (%d, %d, %d), want (7, 9, 2)",
			restored.IntervalDays, restored.Reps, restored.Lapses)
	}
	if restored.Stability != 12.5 || restored.Difficulty != 4.2 {
		t.Errorf("memory state = (%v, %v), want (12.5, 4.2)", restored.Stability, restored.Difficulty)
	}
	if restored.LastReviewAt == nil || !restored.LastReviewAt.Equal(last) {
		t.Errorf("LastReviewAt = %v, want %v", restored.LastReviewAt, last)
	}
}

func TestCard_PositionUnset(t *testing.T) {
	var card Card
	if _, ok := card.Position(); ok {
		t.Error("Position() on empty meta should report unset")
	}
}

func TestCard_SetPosition(t *testing.T) {
	var card Card
	if err := card.SetPosition(40); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	pos, ok := card.Position()
	if !ok || pos != 40 {
		t.Errorf("Position() = (%d, %v), want (40, true)", pos, ok)
	}
}

func TestCard_SetPositionPreservesOtherKeys(t *testing.T) {
	card := Card{Meta: `{"flag":"amber","position":10}`}
	if err := card.SetPosition(30); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if !strings.Contains(card.Meta, `"flag":"amber"`) {
		t.Errorf("Meta lost unrelated key: %s", card.Meta)
	}
	pos, ok := card.Position()
	if !ok || pos != 30 {
		t.Errorf("Position() = (%d, %v), want (30, true)", pos, ok)
	}
}

func TestNote_FieldMapRoundTrip(t *testing.T) {
	var note Note
	fields := map[string]string{"Front": "hablar", "Back": "to speak"}
	if err := note.SetFieldMap(fields); err != nil {
		t.Fatalf("SetFieldMap: %v", err)
	}
	got, err := note.FieldMap()
	if err != nil {
		t.Fatalf("FieldMap: %v", err)
	}
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("FieldMap() = %v, want %v", got, fields)
	}
}

func TestNote_FieldMapEmpty(t *testing.T) {
	var note Note
	got, err := note.FieldMap()
	if err != nil {
		t.Fatalf("FieldMap: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FieldMap() on empty blob = %v, want empty", got)
	}
}
