package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
)

// Constraint names declared in migrations/001_init.sql
const (
	ConstraintUserEmail        = "users_email_key"
	ConstraintRegistrationPair = "registrations_user_activity_key"
	ConstraintWaitlistPair     = "waitlist_entries_user_activity_key"
	ConstraintActivityCapacity = "activities_capacity_check"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	return hasCode(err, UniqueViolation, constraintName)
}

// IsForeignKeyError reports a foreign key violation on any constraint
func IsForeignKeyError(err error) bool {
	return hasCode(err, ForeignKeyViolation, "")
}

// IsCheckConstraintError reports a CHECK violation for the named constraint
func IsCheckConstraintError(err error, constraintName string) bool {
	return hasCode(err, CheckViolation, constraintName)
}

func hasCode(err error, code, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraintName == "" || pgErr.ConstraintName == constraintName
}
