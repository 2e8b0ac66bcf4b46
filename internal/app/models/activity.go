package models

import "time"

// Activity is a scheduled event hosted by a center. Capacity is set by an
// admin; remaining seats are always derived by counting registrations.
type Activity struct {
	ID          int64     `json:"id" db:"id"`
	CenterID    int64     `json:"centerId" db:"center_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	Capacity    int       `json:"capacity" db:"capacity"`
	StartsAt    time.Time `json:"startsAt" db:"starts_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
