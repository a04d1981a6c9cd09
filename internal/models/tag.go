package models

import "time"

// Reserved per-user tag names the engine creates on demand.
const (
	TagLeech  = "Leech"
	TagMarked = "Marked"
)

// Tag labels notes. Tags form a tree via ParentID; names are unique
// per user.
type Tag struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_tag_user_name"`
	Name     string `gorm:"size:64;not null;uniqueIndex:idx_tag_user_name"`
	ParentID *uint  `gorm:"index"`

	CreatedAt time.Time
}
