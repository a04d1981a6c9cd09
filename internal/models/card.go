package models

import (
	"encoding/json"
	"time"
)

// Card scheduling states. A card moves between these as it is reviewed;
// suspension is an independent axis tracked by Suspended/SuspendedBy.
const (
	CardTypeNew        = "new"
	CardTypeLearning   = "learning"
	CardTypeReview     = "review"
	CardTypeRelearning = "relearning"
)

// Sources that can set the suspended flag on a card.
const (
	SuspendManual    = "manual"
	SuspendTagBatch  = "tag_batch"
	SuspendDeckBatch = "deck_batch"
	SuspendLeechAuto = "leech_auto"
)

// PositionKey is the reserved key inside a card's metadata blob that
// holds the new-card queue position.
const PositionKey = "position"

// Card is one reviewable unit generated from a note template.
type Card struct {
	ID     uint `gorm:"primaryKey;autoIncrement"`
	NoteID uint `gorm:"not null;index"`
	DeckID uint `gorm:"not null;index"`
	UserID uint `gorm:"not null;index"`

	// Template slot this card was generated from (0-based).
	TemplateOrd int `gorm:"default:0"`

	// Scheduling state, owned by the external scheduler except where
	// lifecycle operations reset or promote it.
	CardType     string     `gorm:"size:16;default:new;index"`
	Due          *time.Time `gorm:"index"`
	IntervalDays int        `gorm:"default:0"`
	Stability    float64    `gorm:"default:0"`
	Difficulty   float64    `gorm:"default:0"`
	Reps         int        `gorm:"default:0"`
	Lapses       int        `gorm:"default:0"`
	LastReviewAt *time.Time

	// Suspension state.
	Suspended   bool       `gorm:"default:false;index"`
	SuspendedAt *time.Time
	ResumeDate  *time.Time `gorm:"index"`
	SuspendedBy string     `gorm:"size:16"`
	PauseReason string     `gorm:"size:255"`

	// Free-form per-card metadata. The reposition operation stores the
	// new-card queue position here under PositionKey.
	Meta string `gorm:"type:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SchedulingState is a copy of the fields a review mutates, captured
// before the review so it can be restored on undo.
type SchedulingState struct {
	CardType     string
	Due          *time.Time
	IntervalDays int
	Stability    float64
	Difficulty   float64
	Reps         int
	Lapses       int
	LastReviewAt *time.Time
}

// Scheduling returns a snapshot of the card's scheduling fields.
func (c *Card) Scheduling() SchedulingState {
	return SchedulingState{
		CardType:     c.CardType,
		Due:          c.Due,
		IntervalDays: c.IntervalDays,
		Stability:    c.Stability,
		Difficulty:   c.Difficulty,
		Reps:         c.Reps,
		Lapses:       c.Lapses,
		LastReviewAt: c.LastReviewAt,
	}
}

// ApplyScheduling overwrites the card's scheduling fields from a snapshot.
func (c *Card) ApplyScheduling(s SchedulingState) {
	c.CardType = s.CardType
	c.Due = s.Due
	c.IntervalDays = s.IntervalDays
	c.Stability = s.Stability
	c.Difficulty = s.Difficulty
	c.Reps = s.Reps
	c.Lapses = s.Lapses
	c.LastReviewAt = s.LastReviewAt
}

// Position reads the queue position from the metadata blob. The second
// return value is false if no position has been assigned.
func (c *Card) Position() (int, bool) {
	meta, err := c.metaMap()
	if err != nil {
		return 0, false
	}
	v, ok := meta[PositionKey]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// SetPosition writes the queue position into the metadata blob,
// preserving any other keys it holds.
func (c *Card) SetPosition(pos int) error {
	meta, err := c.metaMap()
	if err != nil {
		return err
	}
	meta[PositionKey] = pos
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	c.Meta = string(data)
	return nil
}

func (c *Card) metaMap() (map[string]interface{}, error) {
	meta := make(map[string]interface{})
	if c.Meta == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(c.Meta), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
