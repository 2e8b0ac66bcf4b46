package models

import "time"

// Reminder is the day-before notice created alongside a Registration and
// removed with it.
type Reminder struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"userId" db:"user_id"`
	ActivityID   int64     `json:"activityId" db:"activity_id"`
	ReminderDate time.Time `json:"reminderDate" db:"reminder_date"`
	Title        string    `json:"title" db:"title"`
	Message      string    `json:"message" db:"message"`
	IsRead       bool      `json:"isRead" db:"is_read"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
