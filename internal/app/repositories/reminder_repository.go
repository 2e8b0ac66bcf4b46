package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
)

// ReminderRepository handles database operations for reminders
type ReminderRepository struct{}

// NewReminderRepository creates a new ReminderRepository
func NewReminderRepository() *ReminderRepository {
	return &ReminderRepository{}
}

// Create inserts a reminder
func (r *ReminderRepository) Create(ctx context.Context, q db.Querier, reminder *models.Reminder) error {
	sql, args, err := squirrel.Insert("reminders").
		Columns("user_id", "activity_id", "reminder_date", "title", "message", "is_read").
		Values(reminder.UserID, reminder.ActivityID, reminder.ReminderDate, reminder.Title, reminder.Message, reminder.IsRead).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&reminder.ID, &reminder.CreatedAt); err != nil {
		return fmt.Errorf("error creating reminder: %w", err)
	}
	return nil
}

// DeleteAllFor removes every reminder of userID for activityID
func (r *ReminderRepository) DeleteAllFor(ctx context.Context, q db.Querier, userID, activityID int64) (int64, error) {
	sql, args, err := squirrel.Delete("reminders").
		Where(squirrel.Eq{"user_id": userID, "activity_id": activityID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByUser returns a user's reminders, soonest first
func (r *ReminderRepository) ListByUser(ctx context.Context, q db.Querier, userID int64, unreadOnly bool) ([]*models.Reminder, error) {
	where := squirrel.Eq{"user_id": userID}
	if unreadOnly {
		where["is_read"] = false
	}

	sql, args, err := squirrel.Select("id", "user_id", "activity_id", "reminder_date", "title", "message", "is_read", "created_at").
		From("reminders").
		Where(where).
		OrderBy("reminder_date ASC", "id ASC").
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

	reminders := make([]*models.Reminder, 0)
	for rows.Next() {
		var rem models.Reminder
		err := rows.Scan(&rem.ID, &rem.UserID, &rem.ActivityID, &rem.ReminderDate,
			&rem.Title, &rem.Message, &rem.IsRead, &rem.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		reminders = append(reminders, &rem)
	}
	return reminders, rows.Err()
}

// MarkRead flags a reminder as read. Only the owner's reminders match.
func (r *ReminderRepository) MarkRead(ctx context.Context, q db.Querier, reminderID, userID int64) error {
	sql, args, err := squirrel.Update("reminders").
		Set("is_read", true).
		Where(squirrel.Eq{"id": reminderID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrReminderNotFound
	}
	return nil
}
