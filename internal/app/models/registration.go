package models

import "time"

// Registration is a confirmed seat. At most one per (user, activity).
type Registration struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	ActivityID int64     `json:"activityId" db:"activity_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// WaitlistEntry is a queued request for a seat. Queue order is
// RegistrationDate ascending, ID breaking ties.
type WaitlistEntry struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"userId" db:"user_id"`
	ActivityID       int64     `json:"activityId" db:"activity_id"`
	RegistrationDate time.Time `json:"registrationDate" db:"registration_date"`
}
