package dto

import (
	"time"

	"github.com/samenactief/backend/internal/app/models"
)

// CreateActivityRequest is submitted by a center or platform admin
type CreateActivityRequest struct {
	CenterID    int64     `json:"centerId" binding:"required,gt=0"`
	Title       string    `json:"title" binding:"required,notblank,min=2,max=200"`
	Description string    `json:"description" binding:"max=5000"`
	Location    string    `json:"location" binding:"required,notblank,max=300"`
	Capacity    int       `json:"capacity" binding:"required,gt=0"`
	StartsAt    time.Time `json:"startsAt" binding:"required"`
}

// UpdateActivityRequest replaces the editable fields of an activity
type UpdateActivityRequest struct {
	Title       string    `json:"title" binding:"required,notblank,min=2,max=200"`
	Description string    `json:"description" binding:"max=5000"`
	Location    string    `json:"location" binding:"required,notblank,max=300"`
	Capacity    int       `json:"capacity" binding:"required,gt=0"`
	StartsAt    time.Time `json:"startsAt" binding:"required"`
}

// ActivityFilterRequest filters the public activity listing
type ActivityFilterRequest struct {
	CenterID *int64
	From     *time.Time
	Page     int
	PageSize int
}

// ActivityResponse is an activity with its derived seat counts
type ActivityResponse struct {
	ID             int64     `json:"id"`
	CenterID       int64     `json:"centerId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Capacity       int       `json:"capacity"`
	AttendeeCount  int       `json:"attendeeCount"`
	SeatsRemaining int       `json:"seatsRemaining"`
	StartsAt       time.Time `json:"startsAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ActivityListResponse is one page of activities
type ActivityListResponse struct {
	Activities     []ActivityResponse `json:"activities"`
	PaginationInfo PaginationInfo     `json:"paginationInfo"`
}

// FromActivity converts a models.Activity and its registration count
func FromActivity(activity *models.Activity, attendees int) ActivityResponse {
	remaining := activity.Capacity - attendees
	if remaining < 0 {
		remaining = 0
	}
	return ActivityResponse{
		ID:             activity.ID,
		CenterID:       activity.CenterID,
		Title:          activity.Title,
		Description:    activity.Description,
		Location:       activity.Location,
		Capacity:       activity.Capacity,
		AttendeeCount:  attendees,
		SeatsRemaining: remaining,
		StartsAt:       activity.StartsAt,
		CreatedAt:      activity.CreatedAt,
		UpdatedAt:      activity.UpdatedAt,
	}
}
