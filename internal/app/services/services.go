package services

import (
	"context"

	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/app/repositories"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/notification"
)

// Services defined in this package:
// - LedgerService: registrations, waitlists, promotion and reminders
// - ActivityService: activity CRUD for center and platform admins
// - ReminderService: a resident's own reminders
// - AuthService: login, sign-up and profile

// TxRunner opens a transaction and hands it to fn. *db.PostgresDB implements it.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// ActivityStore is implemented by repositories.ActivityRepository
type ActivityStore interface {
	GetByID(ctx context.Context, q db.Querier, id int64) (*models.Activity, error)
	GetByIDForUpdate(ctx context.Context, q db.Querier, id int64) (*models.Activity, error)
	Create(ctx context.Context, q db.Querier, activity *models.Activity) error
	Update(ctx context.Context, q db.Querier, activity *models.Activity) error
	List(ctx context.Context, q db.Querier, filter repositories.ActivityFilter) ([]*models.Activity, int64, error)
}

// UserStore is implemented by repositories.UserRepository
type UserStore interface {
	GetByID(ctx context.Context, q db.Querier, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, q db.Querier, email string) (*models.User, error)
	GetByIDs(ctx context.Context, q db.Querier, ids []int64) (map[int64]*models.User, error)
	Create(ctx context.Context, q db.Querier, user *models.User) error
	UpdateProfile(ctx context.Context, q db.Querier, user *models.User) error
}

// CenterStore is implemented by repositories.CenterRepository
type CenterStore interface {
	GetByID(ctx context.Context, q db.Querier, id int64) (*models.Center, error)
}

// RegistrationStore is implemented by repositories.RegistrationRepository
type RegistrationStore interface {
	Find(ctx context.Context, q db.Querier, userID, activityID int64) (*models.Registration, error)
	Create(ctx context.Context, q db.Querier, reg *models.Registration) error
	Delete(ctx context.Context, q db.Querier, userID, activityID int64) (bool, error)
	CountByActivity(ctx context.Context, q db.Querier, activityID int64) (int, error)
	CountByActivityIDs(ctx context.Context, q db.Querier, activityIDs []int64) (map[int64]int, error)
	ListByActivity(ctx context.Context, q db.Querier, activityID int64) ([]*models.Registration, error)
}

// WaitlistStore is implemented by repositories.WaitlistRepository
type WaitlistStore interface {
	Find(ctx context.Context, q db.Querier, userID, activityID int64) (*models.WaitlistEntry, error)
	Head(ctx context.Context, q db.Querier, activityID int64) (*models.WaitlistEntry, error)
	Create(ctx context.Context, q db.Querier, entry *models.WaitlistEntry) error
	Delete(ctx context.Context, q db.Querier, userID, activityID int64) (bool, error)
	Position(ctx context.Context, q db.Querier, userID, activityID int64) (int, error)
	ListByActivity(ctx context.Context, q db.Querier, activityID int64) ([]*models.WaitlistEntry, error)
}

// ReminderStore is implemented by repositories.ReminderRepository
type ReminderStore interface {
	Create(ctx context.Context, q db.Querier, reminder *models.Reminder) error
	DeleteAllFor(ctx context.Context, q db.Querier, userID, activityID int64) (int64, error)
	ListByUser(ctx context.Context, q db.Querier, userID int64, unreadOnly bool) ([]*models.Reminder, error)
	MarkRead(ctx context.Context, q db.Querier, reminderID, userID int64) error
}

// NotificationGateway accepts best-effort emails. *notification.Dispatcher implements it.
type NotificationGateway interface {
	SendRegistrationConfirmation(ctx context.Context, notice notification.Notice) error
	SendWaitlistPromotion(ctx context.Context, notice notification.Notice) error
}

// Stores bundles the persistence collaborators shared by the services
type Stores struct {
	Activities    ActivityStore
	Users         UserStore
	Centers       CenterStore
	Registrations RegistrationStore
	Waitlist      WaitlistStore
	Reminders     ReminderStore
}

// StoresFromRepositories adapts the Postgres repositories
func StoresFromRepositories(r *repositories.Repositories) Stores {
	return Stores{
		Activities:    r.ActivityRepository,
		Users:         r.UserRepository,
		Centers:       r.CenterRepository,
		Registrations: r.RegistrationRepository,
		Waitlist:      r.WaitlistRepository,
		Reminders:     r.ReminderRepository,
	}
}
