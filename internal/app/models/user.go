package models

import (
	"time"
)

// User defines the user model based on the 'users' table.
// AnonymousParticipation hides identity and display name from participant lists.
type User struct {
	ID                     int64     `json:"id" db:"id"`
	Email                  string    `json:"email" db:"email"`
	Password               string    `json:"-" db:"password"`
	DisplayName            string    `json:"displayName" db:"display_name"`
	Village                string    `json:"village" db:"village"`
	Neighborhood           string    `json:"neighborhood" db:"neighborhood"`
	AnonymousParticipation bool      `json:"anonymousParticipation" db:"anonymous_participation"`
	RoleType               RoleType  `json:"roleType" db:"role_type"`
	CenterID               *int64    `json:"centerId,omitempty" db:"center_id"` // set for center admins
	CreatedAt              time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time `json:"updatedAt" db:"updated_at"`
}
