package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/palabra-app/palabra/internal/fsrs"
	"github.com/palabra-app/palabra/internal/models"
	"gorm.io/gorm"
)

// CardInfo is the read-side snapshot the review UI shows for one card.
type CardInfo struct {
	CardID uint
	NoteID uint

	NoteFields map[string]string
	DeckPath   []string
	Tags       []string

	CardType     string
	Due          *time.Time
	IntervalDays int
	Stability    float64
	Difficulty   float64
	Reps         int
	Lapses       int
	LastReviewAt *time.Time

	Suspended   bool
	SuspendedBy string
	PauseReason string
	ResumeDate  *time.Time

	// Display-only derivations.
	Retrievability float64
	LegacyEase     float64

	FirstReviewAt *time.Time
	AverageTimeMs float64
	TotalReviews  int64

	IsLeech  bool
	IsMarked bool

	// Queue position of a New card, nil when unassigned.
	QueuePosition *int
}

// GetCardInfo assembles the full display snapshot for a card: content,
// deck path, tags, scheduling state, derived display values, and review
// aggregates.
func GetCardInfo(db *gorm.DB, cardID uint) (*CardInfo, error) {
	var card models.Card
	err := db.Where("id = ?", cardID).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lifecycle: card %d: %w", cardID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lifecycle: load card %d: %w", cardID, err)
	}

	var note models.Note
	if err := db.Where("id = ?", card.NoteID).First(&note).Error; err != nil {
		return nil, fmt.Errorf("lifecycle: load note %d: %w", card.NoteID, err)
	}
	fields, err := note.FieldMap()
	if err != nil {
		return nil, fmt.Errorf("lifecycle: decode fields of note %d: %w", note.ID, err)
	}

	path, err := deckPath(db, card.DeckID)
	if err != nil {
		return nil, err
	}

	tags, err := noteTagNames(db, note.ID)
	if err != nil {
		return nil, err
	}

	info := &CardInfo{
		CardID:       card.ID,
		NoteID:       note.ID,
		NoteFields:   fields,
		DeckPath:     path,
		Tags:         tags,
		CardType:     card.CardType,
		Due:          card.Due,
		IntervalDays: card.IntervalDays,
		Stability:    card.Stability,
		Difficulty:   card.Difficulty,
		Reps:         card.Reps,
		Lapses:       card.Lapses,
		LastReviewAt: card.LastReviewAt,
		Suspended:    card.Suspended,
		SuspendedBy:  card.SuspendedBy,
		PauseReason:  card.PauseReason,
		ResumeDate:   card.ResumeDate,
		LegacyEase:   fsrs.LegacyEase(card.Difficulty),
	}

	if card.LastReviewAt != nil {
		elapsed := time.Since(*card.LastReviewAt).Hours() / 24
		info.Retrievability = fsrs.Retrievability(elapsed, card.Stability)
	}

	for _, name := range tags {
		switch name {
		case models.TagLeech:
			info.IsLeech = true
		case models.TagMarked:
			info.IsMarked = true
		}
	}

	if pos, ok := card.Position(); ok {
		info.QueuePosition = &pos
	}

	// MIN/AVG come back NULL for never-reviewed cards.
	type aggRow struct {
		First *time.Time
		Avg   *float64
		Total int64
	}
	var agg aggRow
	err = db.Model(&models.ReviewLog{}).
		Select("MIN(reviewed_at) as first, AVG(time_taken_ms) as avg, COUNT(*) as total").
		Where("card_id = ?", card.ID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("lifecycle: review stats for card %d: %w", card.ID, err)
	}
	info.FirstReviewAt = agg.First
	if agg.Avg != nil {
		info.AverageTimeMs = *agg.Avg
	}
	info.TotalReviews = agg.Total

	return info, nil
}

// GetPreviousCardInfo returns the most recent review-log row for a
// card, or nil if the card has never been reviewed.
func GetPreviousCardInfo(db *gorm.DB, cardID uint) (*models.ReviewLog, error) {
	var count int64
	if err := db.Model(&models.Card{}).Where("id = ?", cardID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("lifecycle: check card %d: %w", cardID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("lifecycle: card %d: %w", cardID, models.ErrNotFound)
	}

	var log models.ReviewLog
	err := db.Where("card_id = ?", cardID).
		Order("reviewed_at DESC, id DESC").
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lifecycle: last review of card %d: %w", cardID, err)
	}
	return &log, nil
}

// deckPath walks parent pointers up from the card's deck and returns
// names ordered root→leaf.
func deckPath(db *gorm.DB, deckID uint) ([]string, error) {
	var names []string
	id := &deckID
	for id != nil {
		var deck models.Deck
		if err := db.Where("id = ?", *id).First(&deck).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, fmt.Errorf("lifecycle: load deck %d: %w", *id, err)
		}
		names = append([]string{deck.Name}, names...)
		id = deck.ParentID
	}
	return names, nil
}

func noteTagNames(db *gorm.DB, noteID uint) ([]string, error) {
	var names []string
	err := db.Table("note_tags").
		Joins("JOIN tags ON tags.id = note_tags.tag_id").
		Where("note_tags.note_id = ?", noteID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("lifecycle: tags of note %d: %w", noteID, err)
	}
	return names, nil
}
