package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/samenactief/backend/internal/app/auth"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/app/repositories"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/samenactief/backend/internal/pkg/helpers"
	"github.com/samenactief/backend/internal/pkg/validation"
)

// ActivityService defines the interface for activity-related operations
type ActivityService interface {
	CreateActivity(ctx context.Context, caller auth.Caller, req *dto.CreateActivityRequest) (*dto.ActivityResponse, error)
	GetActivity(ctx context.Context, id int64) (*dto.ActivityResponse, error)
	ListActivities(ctx context.Context, filter dto.ActivityFilterRequest) (*dto.ActivityListResponse, error)
	UpdateActivity(ctx context.Context, caller auth.Caller, id int64, req *dto.UpdateActivityRequest) (*dto.ActivityResponse, error)
}

// MaxActivityCapacity bounds the seats of a single activity
const MaxActivityCapacity = 10000

// activityServiceImpl implements the ActivityService interface
type activityServiceImpl struct {
	tx            TxRunner
	q             db.Querier
	activities    ActivityStore
	centers       CenterStore
	registrations RegistrationStore
	ledger        LedgerService
	promoter      seatPromoter
	authz         *auth.AuthorizationService
	logger        zerolog.Logger
}

// NewActivityService creates a new activity service instance. ledger hands
// out seats freed by a capacity increase.
func NewActivityService(
	tx TxRunner,
	q db.Querier,
	stores Stores,
	ledger LedgerService,
	authz *auth.AuthorizationService,
	logger zerolog.Logger,
) ActivityService {
	promoter, _ := ledger.(seatPromoter)
	return &activityServiceImpl{
		tx:            tx,
		q:             q,
		activities:    stores.Activities,
		centers:       stores.Centers,
		registrations: stores.Registrations,
		ledger:        ledger,
		promoter:      promoter,
		authz:         authz,
		logger:        logger.With().Str("component", "activities").Logger(),
	}
}

// validateActivity validates activity data before database operations
func validateActivity(title, location string, capacity int, startsAt time.Time) error {
	if !validation.NewStringValidation(title).
		WithMinLength(validation.TitleMinLength).
		WithMaxLength(validation.TitleMaxLength).Validate() {
		return fmt.Errorf("%w: title must be between %d and %d characters",
			apperrors.ErrValidationFailed, validation.TitleMinLength, validation.TitleMaxLength)
	}

	if !validation.NewStringValidation(location).WithMaxLength(validation.PlaceMaxLength).Validate() {
		return fmt.Errorf("%w: location cannot be empty", apperrors.ErrValidationFailed)
	}

	if !validation.NewNumericValidation(capacity).WithMin(1).WithMax(MaxActivityCapacity).Validate() {
		return fmt.Errorf("%w: capacity must be between 1 and %d", apperrors.ErrValidationFailed, MaxActivityCapacity)
	}

	if startsAt.IsZero() {
		return fmt.Errorf("%w: start time is required", apperrors.ErrValidationFailed)
	}

	return nil
}

// CreateActivity creates an activity for a center the caller administers
func (s *activityServiceImpl) CreateActivity(ctx context.Context, caller auth.Caller, req *dto.CreateActivityRequest) (*dto.ActivityResponse, error) {
	if err := validateActivity(req.Title, req.Location, req.Capacity, req.StartsAt); err != nil {
		return nil, err
	}

	if err := s.authz.CanManageCenter(caller, req.CenterID); err != nil {
		return nil, err
	}

	if _, err := s.centers.GetByID(ctx, s.q, req.CenterID); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		CenterID:    req.CenterID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Capacity:    req.Capacity,
		StartsAt:    req.StartsAt,
	}
	if err := s.activities.Create(ctx, s.q, activity); err != nil {
		return nil, fmt.Errorf("error creating activity: %w", err)
	}

	s.logger.Info().Int64("activityId", activity.ID).Int64("centerId", activity.CenterID).Msg("Activity created")
	resp := dto.FromActivity(activity, 0)
	return &resp, nil
}

// GetActivity retrieves an activity with its current seat counts
func (s *activityServiceImpl) GetActivity(ctx context.Context, id int64) (*dto.ActivityResponse, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid activity ID", apperrors.ErrValidationFailed)
	}

	activity, err := s.activities.GetByID(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	count, err := s.registrations.CountByActivity(ctx, s.q, id)
	if err != nil {
		return nil, fmt.Errorf("error counting registrations: %w", err)
	}

	resp := dto.FromActivity(activity, count)
	return &resp, nil
}

// ListActivities returns one page of activities ordered by start time
func (s *activityServiceImpl) ListActivities(ctx context.Context, filter dto.ActivityFilterRequest) (*dto.ActivityListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)

	activities, total, err := s.activities.List(ctx, s.q, repositories.ActivityFilter{
		CenterID: filter.CenterID,
		From:     filter.From,
		Offset:   offset,
		Limit:    uint64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("error listing activities: %w", err)
	}

	ids := make([]int64, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}
	counts, err := s.registrations.CountByActivityIDs(ctx, s.q, ids)
	if err != nil {
		return nil, fmt.Errorf("error counting registrations: %w", err)
	}

	items := make([]dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		items = append(items, dto.FromActivity(a, counts[a.ID]))
	}

	return &dto.ActivityListResponse{
		Activities:     items,
		PaginationInfo: helpers.NewPaginationInfo(total, filter.Page, limit),
	}, nil
}

// UpdateActivity replaces the editable fields. Capacity may not drop below
// the current registration count. A raise promotes one waitlist entry per
// added seat in the same transaction, so no newcomer can take a freed seat
// ahead of the queue.
func (s *activityServiceImpl) UpdateActivity(ctx context.Context, caller auth.Caller, id int64, req *dto.UpdateActivityRequest) (*dto.ActivityResponse, error) {
	if err := validateActivity(req.Title, req.Location, req.Capacity, req.StartsAt); err != nil {
		return nil, err
	}

	var updated *models.Activity
	var count, added int
	var promoted []*models.Registration
	var mails []outgoing

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		activity, err := s.activities.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authz.CanManageCenter(caller, activity.CenterID); err != nil {
			return err
		}

		count, err = s.registrations.CountByActivity(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Capacity < count {
			return fmt.Errorf("%w: %d seats are taken", apperrors.ErrCapacityBelowCount, count)
		}

		added = req.Capacity - activity.Capacity
		activity.Title = req.Title
		activity.Description = req.Description
		activity.Location = req.Location
		activity.Capacity = req.Capacity
		activity.StartsAt = req.StartsAt
		if err := s.activities.Update(ctx, tx, activity); err != nil {
			return fmt.Errorf("error updating activity: %w", err)
		}
		updated = activity

		if added > 0 && s.promoter != nil {
			promoted, mails, err = s.promoter.promote(ctx, tx, activity, added)
			if err != nil {
				return fmt.Errorf("error promoting after capacity raise: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("activityId", id).Int("capacity", updated.Capacity).Int("promoted", len(promoted)).Msg("Activity updated")

	switch {
	case s.promoter != nil:
		s.promoter.send(ctx, mails)
	case added > 0:
		// Ledger without in-transaction access; promote in a follow-up transaction
		promoted, err = s.ledger.PromoteFromWaitlist(ctx, id, added)
		if err != nil {
			s.logger.Error().Err(err).Int64("activityId", id).Msg("Promotion after capacity raise failed")
		}
	}
	count += len(promoted)

	resp := dto.FromActivity(updated, count)
	return &resp, nil
}
