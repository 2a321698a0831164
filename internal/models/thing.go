package models

import "time"

// Thing is a generic keyed JSON blob, optionally scoped to a place.
type Thing struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"size:255;not null;uniqueIndex" json:"key"`
	Type      string    `gorm:"size:64;not null;index" json:"type"`
	PlaceID   *uint     `gorm:"index" json:"place_id,omitempty"`
	Data      JSON      `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Thing
func (Thing) TableName() string {
	return "things"
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Place{},
		&Person{},
		&Activity{},
		&Coverage{},
		&VoterIDInfo{},
		&Thing{},
	}
}
