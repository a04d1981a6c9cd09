package models

import "time"

// Deck groups cards for study. Decks form a tree via ParentID; the
// engine walks the tree for subtree-scoped suspension and for the
// root→leaf path shown in card info.
type Deck struct {
	ID       uint    `gorm:"primaryKey;autoIncrement"`
	UserID   uint    `gorm:"not null;index"`
	Name     string  `gorm:"size:128;not null"`
	ParentID *uint   `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Parent   *Deck  `gorm:"foreignKey:ParentID"`
	Children []Deck `gorm:"foreignKey:ParentID"`
}
