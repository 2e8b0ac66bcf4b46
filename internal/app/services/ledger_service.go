package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/samenactief/backend/internal/app/auth"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/samenactief/backend/internal/pkg/notification"
)

// PromotionPolicy decides how many waitlist entries one promotion pass may move
type PromotionPolicy string

const (
	// PromoteSingle moves one entry per freed seat
	PromoteSingle PromotionPolicy = "single"
	// PromoteFill moves entries until the activity is full or the queue is empty
	PromoteFill PromotionPolicy = "fill"
)

// ParsePromotionPolicy accepts "single" and "fill" in any case; empty means single
func ParsePromotionPolicy(s string) (PromotionPolicy, error) {
	switch PromotionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PromoteSingle:
		return PromoteSingle, nil
	case PromoteFill:
		return PromoteFill, nil
	}
	return "", fmt.Errorf("unknown promotion policy %q", s)
}

// LedgerService owns the registration state machine of an activity
type LedgerService interface {
	Register(ctx context.Context, caller auth.Caller, userID, activityID int64) (*models.Registration, error)
	Cancel(ctx context.Context, caller auth.Caller, userID, activityID int64) error
	JoinWaitlist(ctx context.Context, caller auth.Caller, userID, activityID int64) (*models.WaitlistEntry, int, error)
	LeaveWaitlist(ctx context.Context, caller auth.Caller, userID, activityID int64) error
	PromoteFromWaitlist(ctx context.Context, activityID int64, freedSeats int) ([]*models.Registration, error)
	WaitlistPosition(ctx context.Context, caller auth.Caller, userID, activityID int64) (int, error)
	ListRegistrations(ctx context.Context, activityID int64) ([]dto.ParticipantView, error)
	ListWaitlist(ctx context.Context, activityID int64) ([]dto.ParticipantView, error)
	AttendeeCount(ctx context.Context, activityID int64) (int, error)
}

// LedgerOptions configures a LedgerService
type LedgerOptions struct {
	Policy PromotionPolicy
	// Now defaults to time.Now
	Now func() time.Time
}

type ledgerServiceImpl struct {
	tx            TxRunner
	q             db.Querier
	activities    ActivityStore
	users         UserStore
	registrations RegistrationStore
	waitlist      WaitlistStore
	reminders     ReminderStore
	notifier      NotificationGateway
	authz         *auth.AuthorizationService
	policy        PromotionPolicy
	now           func() time.Time
	logger        zerolog.Logger
}

// NewLedgerService creates a LedgerService. q serves reads outside a
// transaction; notifier may be nil, in which case no emails are sent.
func NewLedgerService(
	tx TxRunner,
	q db.Querier,
	stores Stores,
	notifier NotificationGateway,
	authz *auth.AuthorizationService,
	opts LedgerOptions,
	logger zerolog.Logger,
) LedgerService {
	if opts.Policy == "" {
		opts.Policy = PromoteSingle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ledgerServiceImpl{
		tx:            tx,
		q:             q,
		activities:    stores.Activities,
		users:         stores.Users,
		registrations: stores.Registrations,
		waitlist:      stores.Waitlist,
		reminders:     stores.Reminders,
		notifier:      notifier,
		authz:         authz,
		policy:        opts.Policy,
		now:           opts.Now,
		logger:        logger.With().Str("component", "ledger").Logger(),
	}
}

// outgoing is an email decided inside a transaction and sent after commit
type outgoing struct {
	kind   notification.Kind
	notice notification.Notice
}

func newNotice(user *models.User, activity *models.Activity) notification.Notice {
	return notification.Notice{
		ContactAddress: user.Email,
		DisplayName:    user.DisplayName,
		ActivityName:   activity.Title,
		ActivityDate:   activity.StartsAt,
		LocationText:   activity.Location,
	}
}

// NewReminder builds the day-before reminder for a registration
func NewReminder(userID int64, activity *models.Activity) *models.Reminder {
	return &models.Reminder{
		UserID:       userID,
		ActivityID:   activity.ID,
		ReminderDate: activity.StartsAt.Add(-24 * time.Hour),
		Title:        "Herinnering: " + activity.Title,
		Message: fmt.Sprintf("Morgen om %s begint %s op %s.",
			activity.StartsAt.Format("15:04"), activity.Title, activity.Location),
	}
}

func (s *ledgerServiceImpl) send(ctx context.Context, mails []outgoing) {
	if s.notifier == nil {
		return
	}
	for _, m := range mails {
		var err error
		switch m.kind {
		case notification.KindRegistrationConfirmation:
			err = s.notifier.SendRegistrationConfirmation(ctx, m.notice)
		case notification.KindWaitlistPromotion:
			err = s.notifier.SendWaitlistPromotion(ctx, m.notice)
		}
		if err != nil {
			s.logger.Warn().Err(err).
				Str("kind", string(m.kind)).
				Str("activity", m.notice.ActivityName).
				Msg("Notification not queued")
		}
	}
}

// lockForCaller locks the activity row and checks the caller may act for userID
func (s *ledgerServiceImpl) lockForCaller(ctx context.Context, q db.Querier, caller auth.Caller, userID, activityID int64) (*models.Activity, error) {
	activity, err := s.activities.GetByIDForUpdate(ctx, q, activityID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanActForUser(caller, userID, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *ledgerServiceImpl) seat(ctx context.Context, q db.Querier, user *models.User, activity *models.Activity) (*models.Registration, error) {
	reg := &models.Registration{UserID: user.ID, ActivityID: activity.ID}
	if err := s.registrations.Create(ctx, q, reg); err != nil {
		return nil, err
	}
	if err := s.reminders.Create(ctx, q, NewReminder(user.ID, activity)); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return reg, nil
}

// Register seats userID if a seat is free
func (s *ledgerServiceImpl) Register(ctx context.Context, caller auth.Caller, userID, activityID int64) (*models.Registration, error) {
	var reg *models.Registration
	var mail outgoing

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		activity, err := s.lockForCaller(ctx, tx, caller, userID, activityID)
		if err != nil {
			return err
		}

		user, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}

		existing, err := s.registrations.Find(ctx, tx, userID, activityID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.ErrAlreadyRegistered
		}

		count, err := s.registrations.CountByActivity(ctx, tx, activityID)
		if err != nil {
			return err
		}
		if count >= activity.Capacity {
			return apperrors.ErrActivityFull
		}

		if reg, err = s.seat(ctx, tx, user, activity); err != nil {
			return err
		}
		if _, err := s.waitlist.Delete(ctx, tx, userID, activityID); err != nil {
			return err
		}

		mail = outgoing{kind: notification.KindRegistrationConfirmation, notice: newNotice(user, activity)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userId", userID).Int64("activityId", activityID).Msg("Registered")
	s.send(ctx, []outgoing{mail})
	return reg, nil
}

// Cancel removes a registration if present, then promotes from the waitlist
func (s *ledgerServiceImpl) Cancel(ctx context.Context, caller auth.Caller, userID, activityID int64) error {
	var mails []outgoing

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		activity, err := s.lockForCaller(ctx, tx, caller, userID, activityID)
		if err != nil {
			return err
		}

		deleted, err := s.registrations.Delete(ctx, tx, userID, activityID)
		if err != nil {
			return err
		}
		if _, err := s.reminders.DeleteAllFor(ctx, tx, userID, activityID); err != nil {
			return err
		}
		if deleted {
			s.logger.Info().Int64("userId", userID).Int64("activityId", activityID).Msg("Registration cancelled")
		}

		_, mails, err = s.promote(ctx, tx, activity, 1)
		return err
	})
	if err != nil {
		return err
	}

	s.send(ctx, mails)
	return nil
}

// JoinWaitlist queues userID when the activity is full
func (s *ledgerServiceImpl) JoinWaitlist(ctx context.Context, caller auth.Caller, userID, activityID int64) (*models.WaitlistEntry, int, error) {
	var entry *models.WaitlistEntry
	var position int

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		activity, err := s.lockForCaller(ctx, tx, caller, userID, activityID)
		if err != nil {
			return err
		}

		if _, err := s.users.GetByID(ctx, tx, userID); err != nil {
			return err
		}

		reg, err := s.registrations.Find(ctx, tx, userID, activityID)
		if err != nil {
			return err
		}
		if reg != nil {
			return apperrors.ErrAlreadyRegistered
		}

		count, err := s.registrations.CountByActivity(ctx, tx, activityID)
		if err != nil {
			return err
		}
		if count < activity.Capacity {
			return apperrors.ErrSeatsAvailable
		}

		existing, err := s.waitlist.Find(ctx, tx, userID, activityID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.ErrAlreadyWaitlisted
		}

		entry = &models.WaitlistEntry{UserID: userID, ActivityID: activityID, RegistrationDate: s.now()}
		if err := s.waitlist.Create(ctx, tx, entry); err != nil {
			return err
		}

		position, err = s.waitlist.Position(ctx, tx, userID, activityID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info().Int64("userId", userID).Int64("activityId", activityID).Int("position", position).Msg("Joined waitlist")
	return entry, position, nil
}

// LeaveWaitlist removes the caller's entry; leaving twice is not an error
func (s *ledgerServiceImpl) LeaveWaitlist(ctx context.Context, caller auth.Caller, userID, activityID int64) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := s.lockForCaller(ctx, tx, caller, userID, activityID); err != nil {
			return err
		}
		_, err := s.waitlist.Delete(ctx, tx, userID, activityID)
		return err
	})
}

// PromoteFromWaitlist hands up to freedSeats free seats to the head of the
// queue. The fill policy ignores freedSeats and promotes until the activity is full.
func (s *ledgerServiceImpl) PromoteFromWaitlist(ctx context.Context, activityID int64, freedSeats int) ([]*models.Registration, error) {
	var mails []outgoing
	var promoted []*models.Registration

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		activity, err := s.activities.GetByIDForUpdate(ctx, tx, activityID)
		if err != nil {
			return err
		}
		promoted, mails, err = s.promote(ctx, tx, activity, freedSeats)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, mails)
	return promoted, nil
}

// seatPromoter is the in-transaction half of the ledger. ActivityService uses
// it so a capacity raise and the promotions it causes commit together.
type seatPromoter interface {
	promote(ctx context.Context, q db.Querier, activity *models.Activity, freedSeats int) ([]*models.Registration, []outgoing, error)
	send(ctx context.Context, mails []outgoing)
}

// promotionLimit is one promotion per freed seat under single, and up to
// capacity under fill
func (s *ledgerServiceImpl) promotionLimit(activity *models.Activity, freedSeats int) int {
	if s.policy == PromoteFill {
		return activity.Capacity
	}
	if freedSeats < 1 {
		return 1
	}
	return freedSeats
}

// promote must run inside a transaction holding the activity lock. The
// returned mails go out through send after commit.
func (s *ledgerServiceImpl) promote(ctx context.Context, q db.Querier, activity *models.Activity, freedSeats int) ([]*models.Registration, []outgoing, error) {
	limit := s.promotionLimit(activity, freedSeats)

	var promoted []*models.Registration
	var mails []outgoing
	for len(promoted) < limit {
		count, err := s.registrations.CountByActivity(ctx, q, activity.ID)
		if err != nil {
			return nil, nil, err
		}
		if count >= activity.Capacity {
			break
		}

		head, err := s.waitlist.Head(ctx, q, activity.ID)
		if err != nil {
			return nil, nil, err
		}
		if head == nil {
			break
		}

		if _, err := s.waitlist.Delete(ctx, q, head.UserID, activity.ID); err != nil {
			return nil, nil, err
		}
		user, err := s.users.GetByID(ctx, q, head.UserID)
		if err != nil {
			return nil, nil, err
		}
		reg, err := s.seat(ctx, q, user, activity)
		if err != nil {
			return nil, nil, err
		}

		s.logger.Info().Int64("userId", user.ID).Int64("activityId", activity.ID).Msg("Promoted from waitlist")
		promoted = append(promoted, reg)
		mails = append(mails, outgoing{kind: notification.KindWaitlistPromotion, notice: newNotice(user, activity)})
	}

	return promoted, mails, nil
}

// WaitlistPosition returns the 1-based rank of userID in the queue
func (s *ledgerServiceImpl) WaitlistPosition(ctx context.Context, caller auth.Caller, userID, activityID int64) (int, error) {
	activity, err := s.activities.GetByID(ctx, s.q, activityID)
	if err != nil {
		return 0, err
	}
	if err := s.authz.CanActForUser(caller, userID, activity); err != nil {
		return 0, err
	}

	position, err := s.waitlist.Position(ctx, s.q, userID, activityID)
	if err != nil {
		return 0, err
	}
	if position == 0 {
		return 0, apperrors.ErrNotWaitlisted
	}
	return position, nil
}

func (s *ledgerServiceImpl) loadUsers(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users, err := s.users.GetByIDs(ctx, s.q, ids)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	return users, nil
}

// ListRegistrations returns the registrants of an activity, masked for anonymous users
func (s *ledgerServiceImpl) ListRegistrations(ctx context.Context, activityID int64) ([]dto.ParticipantView, error) {
	if _, err := s.activities.GetByID(ctx, s.q, activityID); err != nil {
		return nil, err
	}

	regs, err := s.registrations.ListByActivity(ctx, s.q, activityID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.UserID)
	}
	users, err := s.loadUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]dto.ParticipantView, 0, len(regs))
	for _, r := range regs {
		if u, ok := users[r.UserID]; ok {
			views = append(views, dto.NewParticipantView(u, r.CreatedAt, 0))
		}
	}
	return views, nil
}

// ListWaitlist returns the queue of an activity in promotion order, masked for anonymous users
func (s *ledgerServiceImpl) ListWaitlist(ctx context.Context, activityID int64) ([]dto.ParticipantView, error) {
	if _, err := s.activities.GetByID(ctx, s.q, activityID); err != nil {
		return nil, err
	}

	entries, err := s.waitlist.ListByActivity(ctx, s.q, activityID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.loadUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]dto.ParticipantView, 0, len(entries))
	for i, e := range entries {
		if u, ok := users[e.UserID]; ok {
			views = append(views, dto.NewParticipantView(u, e.RegistrationDate, i+1))
		}
	}
	return views, nil
}

// AttendeeCount returns the number of confirmed seats
func (s *ledgerServiceImpl) AttendeeCount(ctx context.Context, activityID int64) (int, error) {
	if _, err := s.activities.GetByID(ctx, s.q, activityID); err != nil {
		return 0, err
	}
	return s.registrations.CountByActivity(ctx, s.q, activityID)
}
