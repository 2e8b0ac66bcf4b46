package dto

import "github.com/samenactief/backend/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// RegisterRequest signs up a new resident account
type RegisterRequest struct {
	Email                  string `json:"email" binding:"required,email"`
	Password               string `json:"password" binding:"required,min=8"`
	DisplayName            string `json:"displayName" binding:"required,notblank,min=2,max=100"`
	Village                string `json:"village" binding:"required,notblank,max=100"`
	Neighborhood           string `json:"neighborhood" binding:"max=100"`
	AnonymousParticipation bool   `json:"anonymousParticipation"`
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	DisplayName            string `json:"displayName" binding:"required,notblank,min=2,max=100"`
	Village                string `json:"village" binding:"required,notblank,max=100"`
	Neighborhood           string `json:"neighborhood" binding:"max=100"`
	AnonymousParticipation bool   `json:"anonymousParticipation"`
}

// UserResponse is the caller's own profile. Unlike ParticipantView it is never
// masked.
type UserResponse struct {
	ID                     int64  `json:"id"`
	Email                  string `json:"email"`
	DisplayName            string `json:"displayName"`
	Village                string `json:"village"`
	Neighborhood           string `json:"neighborhood"`
	AnonymousParticipation bool   `json:"anonymousParticipation"`
	Role                   string `json:"role"`
	CenterID               *int64 `json:"centerId,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// FromUser converts a models.User to a UserResponse
func FromUser(user *models.User) UserResponse {
	return UserResponse{
		ID:                     user.ID,
		Email:                  user.Email,
		DisplayName:            user.DisplayName,
		Village:                user.Village,
		Neighborhood:           user.Neighborhood,
		AnonymousParticipation: user.AnonymousParticipation,
		Role:                   string(user.RoleType),
		CenterID:               user.CenterID,
	}
}
