package suspend

import (
	"fmt"
	"sort"
	"time"

	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// Grouping modes for GetPausedCards.
const (
	GroupNone   = ""
	GroupTag    = "tag"
	GroupDeck   = "deck"
	GroupReason = "reason"
)

// PausedCard describes one suspended card for display.
type PausedCard struct {
	CardID      uint
	NoteID      uint
	DeckID      uint
	SuspendedBy string
	PauseReason string
	SuspendedAt *time.Time
	ResumeDate  *time.Time
}

// PausedGroup is one bucket of the grouped paused-card listing.
type PausedGroup struct {
	Group string
	Cards []PausedCard
}

// GetPausedCards lists a user's suspended cards, optionally grouped by
// tag, deck, or pause reason. With tag grouping a card carrying several
// matching tags appears once per tag group.
func GetPausedCards(db *gorm.DB, userID uint, groupBy string) ([]PausedGroup, error) {
	var cards []models.Card
	err := db.Where("user_id = ? AND suspended = ?", userID, true).
		Order("id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("suspend: list paused cards for user %d: %w", userID, err)
	}

	rows := make([]PausedCard, len(cards))
	for i, c := range cards {
		rows[i] = PausedCard{
			CardID:      c.ID,
			NoteID:      c.NoteID,
			DeckID:      c.DeckID,
			SuspendedBy: c.SuspendedBy,
			PauseReason: c.PauseReason,
			SuspendedAt: c.SuspendedAt,
			ResumeDate:  c.ResumeDate,
		}
	}

	switch groupBy {
	case GroupNone:
		return []PausedGroup{{Group: "", Cards: rows}}, nil
	case GroupReason:
		return groupRows(rows, func(r PausedCard) ([]string, error) {
			reason := r.PauseReason
			if reason == "" {
				reason = "(none)"
			}
			return []string{reason}, nil
		})
	case GroupDeck:
		deckNames, err := deckNamesByID(db, userID)
		if err != nil {
			return nil, err
		}
		return groupRows(rows, func(r PausedCard) ([]string, error) {
			name, ok := deckNames[r.DeckID]
			if !ok {
				name = fmt.Sprintf("deck %d", r.DeckID)
			}
			return []string{name}, nil
		})
	case GroupTag:
		noteTags, err := tagNamesByNote(db, userID)
		if err != nil {
			return nil, err
		}
		return groupRows(rows, func(r PausedCard) ([]string, error) {
			names := noteTags[r.NoteID]
			if len(names) == 0 {
				return []string{"(untagged)"}, nil
			}
			return names, nil
		})
	default:
		return nil, fmt.Errorf("suspend: group by %q: %w", groupBy, models.ErrInvalidArgument)
	}
}

// groupRows buckets rows by the keys keyFn yields for each card.
func groupRows(rows []PausedCard, keyFn func(PausedCard) ([]string, error)) ([]PausedGroup, error) {
	buckets := make(map[string][]PausedCard)
	for _, r := range rows {
		keys, err := keyFn(r)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			buckets[k] = append(buckets[k], r)
		}
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]PausedGroup, len(names))
	for i, name := range names {
		groups[i] = PausedGroup{Group: name, Cards: buckets[name]}
	}
	return groups, nil
}

func deckNamesByID(db *gorm.DB, userID uint) (map[uint]string, error) {
	var decks []models.Deck
	if err := db.Where("user_id = ?", userID).Find(&decks).Error; err != nil {
		return nil, fmt.Errorf("suspend: load decks for user %d: %w", userID, err)
	}
	names := make(map[uint]string, len(decks))
	for _, d := range decks {
		names[d.ID] = d.Name
	}
	return names, nil
}

func tagNamesByNote(db *gorm.DB, userID uint) (map[uint][]string, error) {
	type row struct {
		NoteID uint
		Name   string
	}
	var rows []row
	err := db.Table("note_tags").
		Select("note_tags.note_id, tags.name").
		Joins("JOIN tags ON tags.id = note_tags.tag_id").
		Where("tags.user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("suspend: load note tags for user %d: %w", userID, err)
	}
	names := make(map[uint][]string)
	for _, r := range rows {
		names[r.NoteID] = append(names[r.NoteID], r.Name)
	}
	return names, nil
}
