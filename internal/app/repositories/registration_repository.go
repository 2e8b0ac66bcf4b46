package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/samenactief/backend/internal/pkg/dberrors"
)

// RegistrationRepository handles database operations for confirmed seats
type RegistrationRepository struct{}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository() *RegistrationRepository {
	return &RegistrationRepository{}
}

// Find returns the registration of userID for activityID, or nil if there is none
func (r *RegistrationRepository) Find(ctx context.Context, q db.Querier, userID, activityID int64) (*models.Registration, error) {
	sql, args, err := squirrel.Select("id", "user_id", "activity_id", "created_at").
		From("registrations").
		Where(squirrel.Eq{"user_id": userID, "activity_id": activityID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var reg models.Registration
	err = q.QueryRow(ctx, sql, args...).Scan(&reg.ID, &reg.UserID, &reg.ActivityID, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &reg, nil
}

// Create inserts a registration. A second registration for the same pair
// yields apperrors.ErrAlreadyRegistered.
func (r *RegistrationRepository) Create(ctx context.Context, q db.Querier, reg *models.Registration) error {
	sql, args, err := squirrel.Insert("registrations").
		Columns("user_id", "activity_id").
		Values(reg.UserID, reg.ActivityID).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&reg.ID, &reg.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintRegistrationPair) {
			return apperrors.ErrAlreadyRegistered
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("error creating registration: %w", err)
	}
	return nil
}

// Delete removes the registration of userID for activityID and reports
// whether one existed.
func (r *RegistrationRepository) Delete(ctx context.Context, q db.Querier, userID, activityID int64) (bool, error) {
	sql, args, err := squirrel.Delete("registrations").
		Where(squirrel.Eq{"user_id": userID, "activity_id": activityID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error deleting registration: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountByActivity returns the number of confirmed seats of an activity
func (r *RegistrationRepository) CountByActivity(ctx context.Context, q db.Querier, activityID int64) (int, error) {
	sql, args, err := squirrel.Select("COUNT(*)").
		From("registrations").
		Where(squirrel.Eq{"activity_id": activityID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return count, nil
}

// CountByActivityIDs returns registration counts keyed by activity ID.
// Activities without registrations are absent from the map.
func (r *RegistrationRepository) CountByActivityIDs(ctx context.Context, q db.Querier, activityIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	if len(activityIDs) == 0 {
		return counts, nil
	}

	sql, args, err := squirrel.Select("activity_id", "COUNT(*)").
		From("registrations").
		Where(squirrel.Eq{"activity_id": activityIDs}).
		GroupBy("activity_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var activityID int64
		var count int
		if err := rows.Scan(&activityID, &count); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		counts[activityID] = count
	}
	return counts, rows.Err()
}

// ListByActivity returns the registrations of an activity, oldest first
func (r *RegistrationRepository) ListByActivity(ctx context.Context, q db.Querier, activityID int64) ([]*models.Registration, error) {
	sql, args, err := squirrel.Select("id", "user_id", "activity_id", "created_at").
		From("registrations").
		Where(squirrel.Eq{"activity_id": activityID}).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.ActivityID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}
