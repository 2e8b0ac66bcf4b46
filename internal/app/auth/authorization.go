package auth

import (
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/pkg/apperrors"
)

// Caller is the authenticated identity behind a request, taken from the JWT
type Caller struct {
	UserID   int64
	Role     models.RoleType
	CenterID *int64
}

// IsPlatformAdmin reports whether the caller may act on any center
func (c Caller) IsPlatformAdmin() bool {
	return c.Role == models.RolePlatformAdmin
}

// ManagesCenter reports whether the caller administers centerID
func (c Caller) ManagesCenter(centerID int64) bool {
	if c.IsPlatformAdmin() {
		return true
	}
	return c.Role == models.RoleCenterAdmin && c.CenterID != nil && *c.CenterID == centerID
}

// AuthorizationService decides whether a caller may perform an action
type AuthorizationService struct{}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{}
}

// CanActForUser allows a ledger action on behalf of userID for activity:
// the user themselves, a platform admin, or the admin of the activity's center.
func (s *AuthorizationService) CanActForUser(caller Caller, userID int64, activity *models.Activity) error {
	if caller.UserID == userID {
		return nil
	}
	if activity != nil && caller.ManagesCenter(activity.CenterID) {
		return nil
	}
	return apperrors.NewForbiddenError("you may only manage your own registrations")
}

// CanManageCenter allows creating and editing the activities of centerID
func (s *AuthorizationService) CanManageCenter(caller Caller, centerID int64) error {
	if caller.ManagesCenter(centerID) {
		return nil
	}
	return apperrors.NewForbiddenError("you are not an administrator of this center")
}
