package models

import "time"

// ActivityType names an event recorded in the activity ledger.
type ActivityType string

const (
	ActivityVolunteerAdded  ActivityType = "volunteer-added"
	ActivityCoverageAdded   ActivityType = "coverage-added"
	ActivityCoverageUpdated ActivityType = "coverage-updated"
	ActivityVoterIDAdded    ActivityType = "voterid-added"
	ActivityPlacesAdded     ActivityType = "places-added"
	ActivityPersonUpdated   ActivityType = "person-updated"
)

// Activity is an append-only ledger entry. PersonID is the actor and is cleared
// when that person is deleted.
type Activity struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      ActivityType `gorm:"size:64;not null;index" json:"type"`
	PlaceID   uint         `gorm:"not null;index" json:"place_id"`
	PersonID  *uint        `gorm:"index" json:"person_id,omitempty"`
	Data      JSON         `json:"data"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}

// TableName overrides the table name for Activity
func (Activity) TableName() string {
	return "activity"
}
