package models

import "time"

// ReviewLog records one completed review of a card. Undo deletes the
// row it created; card info aggregates over them for display.
type ReviewLog struct {
	ID     uint `gorm:"primaryKey;autoIncrement"`
	CardID uint `gorm:"not null;index"`
	UserID uint `gorm:"not null;index"`

	// FSRS rating: 1 Again, 2 Hard, 3 Good, 4 Easy.
	Rating int `gorm:"not null"`

	// Scheduling state after the review was applied.
	IntervalDays int
	Stability    float64
	Difficulty   float64

	TimeTakenMs int
	ReviewedAt  time.Time `gorm:"not null;index"`
}
