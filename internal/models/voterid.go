package models

import "time"

// VoterIDInfo is the electoral roll entry for a voter id, resolved to a polling booth.
// Rows are written once and never updated.
type VoterIDInfo struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	VoterID   string    `gorm:"column:voterid;size:32;not null;uniqueIndex" json:"voterid"`
	PBID      *uint     `gorm:"column:pb_id;index" json:"pb_id,omitempty"`
	ACNum     string    `gorm:"size:16" json:"ac_num"`
	PartNo    string    `gorm:"size:16" json:"part_no"`
	SerialNo  string    `gorm:"size:16" json:"serial_no"`
	Name      string    `gorm:"size:255" json:"name"`
	RelName   string    `gorm:"size:255" json:"rel_name"`
	Gender    string    `gorm:"size:8" json:"gender"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name for VoterIDInfo
func (VoterIDInfo) TableName() string {
	return "voterid_info"
}
