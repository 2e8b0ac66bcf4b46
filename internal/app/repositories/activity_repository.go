package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/samenactief/backend/internal/pkg/dberrors"
)

var activityColumns = []string{
	"id", "center_id", "title", "description", "location", "capacity", "starts_at", "created_at", "updated_at",
}

// ActivityFilter narrows List. Zero values mean "no filter".
type ActivityFilter struct {
	CenterID *int64
	From     *time.Time
	Offset   uint64
	Limit    uint64
}

// ActivityRepository handles database operations for activities
type ActivityRepository struct{}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	err := row.Scan(
		&a.ID, &a.CenterID, &a.Title, &a.Description, &a.Location,
		&a.Capacity, &a.StartsAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActivityRepository) getByID(ctx context.Context, q db.Querier, id int64, lock bool) (*models.Activity, error) {
	query := squirrel.Select(activityColumns...).
		From("activities").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
	if lock {
		query = query.Suffix("FOR UPDATE")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	activity, err := scanActivity(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrActivityNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return activity, nil
}

// GetByID retrieves an activity by ID
func (r *ActivityRepository) GetByID(ctx context.Context, q db.Querier, id int64) (*models.Activity, error) {
	return r.getByID(ctx, q, id, false)
}

// GetByIDForUpdate retrieves an activity and locks its row until the
// surrounding transaction ends. Every seat-changing operation takes this lock
// first, which serializes them per activity.
func (r *ActivityRepository) GetByIDForUpdate(ctx context.Context, q db.Querier, id int64) (*models.Activity, error) {
	return r.getByID(ctx, q, id, true)
}

// Create inserts a new activity and fills in its generated fields
func (r *ActivityRepository) Create(ctx context.Context, q db.Querier, activity *models.Activity) error {
	query := squirrel.Insert("activities").
		Columns("center_id", "title", "description", "location", "capacity", "starts_at").
		Values(activity.CenterID, activity.Title, activity.Description, activity.Location, activity.Capacity, activity.StartsAt).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = q.QueryRow(ctx, sql, args...).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsForeignKeyError(err):
			return apperrors.ErrCenterNotFound
		case dberrors.IsCheckConstraintError(err, dberrors.ConstraintActivityCapacity):
			return apperrors.NewValidationError("capacity must be greater than zero")
		}
		return fmt.Errorf("error creating activity: %w", err)
	}
	return nil
}

// Update writes the editable fields of an activity
func (r *ActivityRepository) Update(ctx context.Context, q db.Querier, activity *models.Activity) error {
	query := squirrel.Update("activities").
		Set("title", activity.Title).
		Set("description", activity.Description).
		Set("location", activity.Location).
		Set("capacity", activity.Capacity).
		Set("starts_at", activity.StartsAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": activity.ID}).
		Suffix("RETURNING updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&activity.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrActivityNotFound
		}
		if dberrors.IsCheckConstraintError(err, dberrors.ConstraintActivityCapacity) {
			return apperrors.NewValidationError("capacity must be greater than zero")
		}
		return fmt.Errorf("error updating activity: %w", err)
	}
	return nil
}

// List returns one page of activities ordered by start time, plus the total
// number matching the filter.
func (r *ActivityRepository) List(ctx context.Context, q db.Querier, filter ActivityFilter) ([]*models.Activity, int64, error) {
	where := squirrel.And{}
	if filter.CenterID != nil {
		where = append(where, squirrel.Eq{"center_id": *filter.CenterID})
	}
	if filter.From != nil {
		where = append(where, squirrel.GtOrEq{"starts_at": *filter.From})
	}

	countSQL, countArgs, err := squirrel.Select("COUNT(*)").
		From("activities").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	var total int64
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting activities: %w", err)
	}

	query := squirrel.Select(activityColumns...).
		From("activities").
		Where(where).
		OrderBy("starts_at ASC", "id ASC").
		Offset(filter.Offset).
		PlaceholderFormat(squirrel.Dollar)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return activities, total, nil
}
