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

var waitlistColumns = []string{"id", "user_id", "activity_id", "registration_date"}

// WaitlistRepository handles database operations for waitlist entries.
// Queue order is registration_date ascending with id breaking ties.
type WaitlistRepository struct{}

// NewWaitlistRepository creates a new WaitlistRepository
func NewWaitlistRepository() *WaitlistRepository {
	return &WaitlistRepository{}
}

func scanWaitlistEntry(row pgx.Row) (*models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.ActivityID, &e.RegistrationDate); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *WaitlistRepository) queryOne(ctx context.Context, q db.Querier, query squirrel.SelectBuilder) (*models.WaitlistEntry, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	entry, err := scanWaitlistEntry(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return entry, nil
}

// Find returns the waitlist entry of userID for activityID, or nil
func (r *WaitlistRepository) Find(ctx context.Context, q db.Querier, userID, activityID int64) (*models.WaitlistEntry, error) {
	return r.queryOne(ctx, q, squirrel.Select(waitlistColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"user_id": userID, "activity_id": activityID}))
}

// Head returns the earliest entry of an activity's queue, or nil when empty
func (r *WaitlistRepository) Head(ctx context.Context, q db.Querier, activityID int64) (*models.WaitlistEntry, error) {
	return r.queryOne(ctx, q, squirrel.Select(waitlistColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"activity_id": activityID}).
		OrderBy("registration_date ASC", "id ASC").
		Limit(1))
}

// Create enqueues an entry. RegistrationDate is set by the caller.
func (r *WaitlistRepository) Create(ctx context.Context, q db.Querier, entry *models.WaitlistEntry) error {
	sql, args, err := squirrel.Insert("waitlist_entries").
		Columns("user_id", "activity_id", "registration_date").
		Values(entry.UserID, entry.ActivityID, entry.RegistrationDate).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&entry.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintWaitlistPair) {
			return apperrors.ErrAlreadyWaitlisted
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("error creating waitlist entry: %w", err)
	}
	return nil
}

// Delete removes the entry of userID for activityID and reports whether one existed
func (r *WaitlistRepository) Delete(ctx context.Context, q db.Querier, userID, activityID int64) (bool, error) {
	sql, args, err := squirrel.Delete("waitlist_entries").
		Where(squirrel.Eq{"user_id": userID, "activity_id": activityID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error deleting waitlist entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Position returns the 1-based queue position of userID, or 0 when the user
// is not waitlisted for the activity.
func (r *WaitlistRepository) Position(ctx context.Context, q db.Querier, userID, activityID int64) (int, error) {
	sql, args, err := squirrel.Select("COUNT(*)").
		From("waitlist_entries w").
		Join("waitlist_entries me ON me.activity_id = w.activity_id").
		Where(squirrel.Eq{"me.user_id": userID, "me.activity_id": activityID}).
		Where("(w.registration_date, w.id) <= (me.registration_date, me.id)").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var position int
	if err := q.QueryRow(ctx, sql, args...).Scan(&position); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return position, nil
}

// ListByActivity returns the queue of an activity in promotion order
func (r *WaitlistRepository) ListByActivity(ctx context.Context, q db.Querier, activityID int64) ([]*models.WaitlistEntry, error) {
	sql, args, err := squirrel.Select(waitlistColumns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"activity_id": activityID}).
		OrderBy("registration_date ASC", "id ASC").
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

	entries := make([]*models.WaitlistEntry, 0)
	for rows.Next() {
		entry, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
