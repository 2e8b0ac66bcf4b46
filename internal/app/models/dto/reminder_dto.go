package dto

import (
	"time"

	"github.com/samenactief/backend/internal/app/models"
)

// ReminderResponse is a reminder as shown to its owner
type ReminderResponse struct {
	ID           int64     `json:"id"`
	ActivityID   int64     `json:"activityId"`
	ReminderDate time.Time `json:"reminderDate"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"isRead"`
}

// FromReminder converts a models.Reminder to a ReminderResponse
func FromReminder(r *models.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:           r.ID,
		ActivityID:   r.ActivityID,
		ReminderDate: r.ReminderDate,
		Title:        r.Title,
		Message:      r.Message,
		IsRead:       r.IsRead,
	}
}
