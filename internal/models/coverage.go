package models

import "time"

// DateLayout is the format of coverage dates.
const DateLayout = "2006-01-02"

// Coverage records the households canvassed at a place on one day.
type Coverage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaceID   uint      `gorm:"not null;index:idx_coverage_place_date,unique" json:"place_id"`
	Date      string    `gorm:"size:10;not null;index:idx_coverage_place_date,unique" json:"date"`
	Data      JSON      `json:"data"`
	Count     int       `gorm:"not null;default:0" json:"count"`
	EditorID  *uint     `gorm:"index" json:"editor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name for Coverage
func (Coverage) TableName() string {
	return "coverage"
}
