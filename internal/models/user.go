package models

import "time"

// User owns decks, notes, and the reserved tags.
type User struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:64;not null;uniqueIndex"`

	// Day-boundary jobs (unbury) use this zone; empty means local time.
	TimeZone string `gorm:"size:64"`

	CreatedAt time.Time
}
