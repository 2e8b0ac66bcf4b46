package models

// RoleType defines the user role type
type RoleType string

const (
	RoleResident      RoleType = "RESIDENT"
	RoleCenterAdmin   RoleType = "CENTER_ADMIN"
	RolePlatformAdmin RoleType = "PLATFORM_ADMIN"
)

// IsAdmin reports whether the role may manage activities on behalf of others
func (r RoleType) IsAdmin() bool {
	return r == RoleCenterAdmin || r == RolePlatformAdmin
}

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	switch r {
	case RoleResident, RoleCenterAdmin, RolePlatformAdmin:
		return true
	}
	return false
}
