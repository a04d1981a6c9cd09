package models

import (
	"encoding/json"
	"time"
)

// Note holds the authored content that one or more cards render.
// Fields is a JSON object mapping field names to values; the order of
// template slots is owned by the rendering pipeline, not this engine.
type Note struct {
	ID     uint `gorm:"primaryKey;autoIncrement"`
	UserID uint `gorm:"not null;index"`
	DeckID uint `gorm:"not null;index"`

	Fields string `gorm:"type:json"`

	// Checksum of the normalized first field, used by duplicate
	// detection. Refreshed whenever the first field changes.
	FirstFieldChecksum string `gorm:"size:64;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Cards []Card    `gorm:"foreignKey:NoteID"`
	Tags  []NoteTag `gorm:"foreignKey:NoteID"`
}

// FieldMap decodes the Fields blob. An empty blob decodes to an empty map.
func (n *Note) FieldMap() (map[string]string, error) {
	fields := make(map[string]string)
	if n.Fields == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(n.Fields), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SetFieldMap encodes the map back into the Fields blob.
func (n *Note) SetFieldMap(fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	n.Fields = string(data)
	return nil
}

// NoteTag associates a note with a tag.
type NoteTag struct {
	NoteID uint `gorm:"primaryKey"`
	TagID  uint `gorm:"primaryKey"`
}
