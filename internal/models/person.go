package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the function a person performs at their place.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleUser         Role = "user"
	RoleCoordinator  Role = "coordinator"
	RoleVolunteer    Role = "volunteer"
	RolePBAgent      Role = "pb_agent"
	RolePXAgent      Role = "px_agent"
	RoleMember       Role = "member"
	RoleActiveMember Role = "active_member"
)

// Roles lists every known role.
var Roles = []Role{
	RoleAdmin,
	RoleUser,
	RoleCoordinator,
	RoleVolunteer,
	RolePBAgent,
	RolePXAgent,
	RoleMember,
	RoleActiveMember,
}

// ParseRole validates a role name. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Person is a volunteer, agent or coordinator attached to exactly one place.
type Person struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaceID   uint      `gorm:"not null;index" json:"place_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;index" json:"email,omitempty"`
	Phone     string    `gorm:"size:32;index" json:"phone"`
	VoterID   string    `gorm:"column:voterid;size:32;index" json:"voterid,omitempty"`
	Role      Role      `gorm:"size:32;not null;index" json:"role"`
	Notes     string    `gorm:"size:255" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Person
func (Person) TableName() string {
	return "people"
}

// CacheKey identifies the person in the object cache.
func (p Person) CacheKey() string {
	return fmt.Sprintf("person:%d", p.ID)
}

// HasRole reports whether the person's role is one of roles.
func (p *Person) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
