package dto

import (
	"time"

	"github.com/samenactief/backend/internal/app/models"
)

// TargetUserRequest names the user a registration or waitlist action applies to.
// An empty body means the caller acts for themselves.
type TargetUserRequest struct {
	UserID int64 `json:"userId" binding:"omitempty,gt=0"`
}

// RegistrationResponse is a confirmed seat
type RegistrationResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	ActivityID int64     `json:"activityId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WaitlistEntryResponse is a queued request with its 1-based position
type WaitlistEntryResponse struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	ActivityID       int64     `json:"activityId"`
	RegistrationDate time.Time `json:"registrationDate"`
	Position         int       `json:"position"`
}

// WaitlistPositionResponse answers "where am I in the queue"
type WaitlistPositionResponse struct {
	ActivityID int64 `json:"activityId"`
	Position   int   `json:"position"`
}

// ParticipantView is how a registrant or waitlisted user is shown to others.
// UserID and DisplayName are nil for anonymous participants.
type ParticipantView struct {
	UserID       *int64    `json:"userId,omitempty"`
	DisplayName  *string   `json:"displayName,omitempty"`
	Village      string    `json:"village"`
	Neighborhood string    `json:"neighborhood"`
	Anonymous    bool      `json:"anonymous"`
	Position     int       `json:"position,omitempty"`
	Since        time.Time `json:"since"`
}

// FromRegistration converts a models.Registration to a RegistrationResponse
func FromRegistration(reg *models.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:         reg.ID,
		UserID:     reg.UserID,
		ActivityID: reg.ActivityID,
		CreatedAt:  reg.CreatedAt,
	}
}

// FromWaitlistEntry converts a models.WaitlistEntry and its position
func FromWaitlistEntry(entry *models.WaitlistEntry, position int) WaitlistEntryResponse {
	return WaitlistEntryResponse{
		ID:               entry.ID,
		UserID:           entry.UserID,
		ActivityID:       entry.ActivityID,
		RegistrationDate: entry.RegistrationDate,
		Position:         position,
	}
}

// NewParticipantView applies the anonymity rule: anonymous users expose only
// village and neighborhood.
func NewParticipantView(user *models.User, since time.Time, position int) ParticipantView {
	view := ParticipantView{
		Village:      user.Village,
		Neighborhood: user.Neighborhood,
		Anonymous:    user.AnonymousParticipation,
		Position:     position,
		Since:        since,
	}
	if !user.AnonymousParticipation {
		id := user.ID
		name := user.DisplayName
		view.UserID = &id
		view.DisplayName = &name
	}
	return view
}
