package services

import (
	"context"
	"fmt"

	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
)

// ReminderService exposes a resident's own reminders. Reminders are created
// and removed by the ledger only.
type ReminderService interface {
	ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]*models.Reminder, error)
	MarkRead(ctx context.Context, callerID, reminderID int64) error
}

type reminderServiceImpl struct {
	q         db.Querier
	reminders ReminderStore
}

// NewReminderService creates a new reminder service instance
func NewReminderService(q db.Querier, stores Stores) ReminderService {
	return &reminderServiceImpl{
		q:         q,
		reminders: stores.Reminders,
	}
}

// ListForUser returns the user's reminders ordered by reminder date
func (s *reminderServiceImpl) ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]*models.Reminder, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user ID", apperrors.ErrValidationFailed)
	}
	reminders, err := s.reminders.ListByUser(ctx, s.q, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("error retrieving reminders: %w", err)
	}
	return reminders, nil
}

// MarkRead flags a reminder as read. A reminder owned by someone else is
// reported as not found.
func (s *reminderServiceImpl) MarkRead(ctx context.Context, callerID, reminderID int64) error {
	if reminderID <= 0 {
		return fmt.Errorf("%w: invalid reminder ID", apperrors.ErrValidationFailed)
	}
	return s.reminders.MarkRead(ctx, s.q, reminderID, callerID)
}
