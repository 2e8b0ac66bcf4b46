package repositories

// Repositories holds all the repository instances. Each method takes the
// db.Querier to run on, so callers choose between the pool and a transaction.
type Repositories struct {
	UserRepository         *UserRepository
	CenterRepository       *CenterRepository
	ActivityRepository     *ActivityRepository
	RegistrationRepository *RegistrationRepository
	WaitlistRepository     *WaitlistRepository
	ReminderRepository     *ReminderRepository
}

// NewRepositories initializes all repositories
func NewRepositories() *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(),
		CenterRepository:       NewCenterRepository(),
		ActivityRepository:     NewActivityRepository(),
		RegistrationRepository: NewRegistrationRepository(),
		WaitlistRepository:     NewWaitlistRepository(),
		ReminderRepository:     NewReminderRepository(),
	}
}
