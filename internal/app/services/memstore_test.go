package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/app/repositories"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/samenactief/backend/internal/pkg/notification"
)

// memDB is an in-memory stand-in for Postgres. Transactions are serialized
// by txMu, which plays the role of the activity row lock, and rolled back
// from a snapshot when fn fails.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID        int64
	now           func() time.Time
	activities    map[int64]models.Activity
	users         map[int64]models.User
	centers       map[int64]models.Center
	registrations []models.Registration
	waitlist      []models.WaitlistEntry
	reminders     []models.Reminder

	// failReminderCreate makes reminder inserts fail, to exercise rollback
	failReminderCreate error
}

func newMemDB() *memDB {
	return &memDB{
		now:        func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
		activities: make(map[int64]models.Activity),
		users:      make(map[int64]models.User),
		centers:    make(map[int64]models.Center),
	}
}

type memSnapshot struct {
	nextID        int64
	activities    map[int64]models.Activity
	users         map[int64]models.User
	centers       map[int64]models.Center
	registrations []models.Registration
	waitlist      []models.WaitlistEntry
	reminders     []models.Reminder
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *memDB) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		nextID:        m.nextID,
		activities:    copyMap(m.activities),
		users:         copyMap(m.users),
		centers:       copyMap(m.centers),
		registrations: append([]models.Registration(nil), m.registrations...),
		waitlist:      append([]models.WaitlistEntry(nil), m.waitlist...),
		reminders:     append([]models.Reminder(nil), m.reminders...),
	}
}

func (m *memDB) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = s.nextID
	m.activities = s.activities
	m.users = s.users
	m.centers = s.centers
	m.registrations = s.registrations
	m.waitlist = s.waitlist
	m.reminders = s.reminders
}

func (m *memDB) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(ctx, nil); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) stores() Stores {
	return Stores{
		Activities:    memActivities{m},
		Users:         memUsers{m},
		Centers:       memCenters{m},
		Registrations: memRegistrations{m},
		Waitlist:      memWaitlist{m},
		Reminders:     memReminders{m},
	}
}

// seed helpers, used outside transactions

func (m *memDB) addCenter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.centers[id] = models.Center{ID: id, Name: name}
	return id
}

func (m *memDB) addActivity(centerID int64, capacity int, startsAt time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.activities[id] = models.Activity{
		ID: id, CenterID: centerID, Title: "Koffieochtend", Location: "Buurthuis De Linde",
		Capacity: capacity, StartsAt: startsAt,
	}
	return id
}

func (m *memDB) addUser(name string, anonymous bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.users[id] = models.User{
		ID: id, Email: name + "@buurt.nl", DisplayName: name, Village: "Ede", Neighborhood: "Veldhuizen",
		AnonymousParticipation: anonymous, RoleType: models.RoleResident,
	}
	return id
}

func (m *memDB) setCapacity(activityID int64, capacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.activities[activityID]
	a.Capacity = capacity
	m.activities[activityID] = a
}

func (m *memDB) capacity(activityID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activities[activityID].Capacity
}

func (m *memDB) registrationCount(activityID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.registrations {
		if r.ActivityID == activityID {
			n++
		}
	}
	return n
}

func (m *memDB) isRegistered(userID, activityID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.registrations {
		if r.UserID == userID && r.ActivityID == activityID {
			return true
		}
	}
	return false
}

func (m *memDB) isWaitlisted(userID, activityID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.waitlist {
		if e.UserID == userID && e.ActivityID == activityID {
			return true
		}
	}
	return false
}

func (m *memDB) waitlistLen(activityID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.waitlist {
		if e.ActivityID == activityID {
			n++
		}
	}
	return n
}

func (m *memDB) remindersFor(userID, activityID int64) []models.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.reminders {
		if r.UserID == userID && r.ActivityID == activityID {
			out = append(out, r)
		}
	}
	return out
}

type memActivities struct{ m *memDB }

func (s memActivities) GetByID(_ context.Context, _ db.Querier, id int64) (*models.Activity, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.activities[id]
	if !ok {
		return nil, apperrors.ErrActivityNotFound
	}
	return &a, nil
}

func (s memActivities) GetByIDForUpdate(ctx context.Context, q db.Querier, id int64) (*models.Activity, error) {
	return s.GetByID(ctx, q, id)
}

func (s memActivities) Create(_ context.Context, _ db.Querier, a *models.Activity) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.centers[a.CenterID]; !ok {
		return apperrors.ErrCenterNotFound
	}
	a.ID = s.m.id()
	a.CreatedAt = s.m.now()
	a.UpdatedAt = a.CreatedAt
	s.m.activities[a.ID] = *a
	return nil
}

func (s memActivities) Update(_ context.Context, _ db.Querier, a *models.Activity) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.activities[a.ID]; !ok {
		return apperrors.ErrActivityNotFound
	}
	a.UpdatedAt = s.m.now()
	s.m.activities[a.ID] = *a
	return nil
}

func (s memActivities) List(_ context.Context, _ db.Querier, f repositories.ActivityFilter) ([]*models.Activity, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var all []models.Activity
	for _, a := range s.m.activities {
		if f.CenterID != nil && a.CenterID != *f.CenterID {
			continue
		}
		if f.From != nil && a.StartsAt.Before(*f.From) {
			continue
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartsAt.Equal(all[j].StartsAt) {
			return all[i].StartsAt.Before(all[j].StartsAt)
		}
		return all[i].ID < all[j].ID
	})

	total := int64(len(all))
	start := int(f.Offset)
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if f.Limit > 0 && start+int(f.Limit) < end {
		end = start + int(f.Limit)
	}

	out := make([]*models.Activity, 0, end-start)
	for i := start; i < end; i++ {
		a := all[i]
		out = append(out, &a)
	}
	return out, total, nil
}

type memUsers struct{ m *memDB }

func (s memUsers) GetByID(_ context.Context, _ db.Querier, id int64) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, _ db.Querier, email string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s memUsers) GetByIDs(_ context.Context, _ db.Querier, ids []int64) (map[int64]*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.m.users[id]; ok {
			u := u
			out[id] = &u
		}
	}
	return out, nil
}

func (s memUsers) Create(_ context.Context, _ db.Querier, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = s.m.id()
	user.CreatedAt = s.m.now()
	user.UpdatedAt = user.CreatedAt
	s.m.users[user.ID] = *user
	return nil
}

func (s memUsers) UpdateProfile(_ context.Context, _ db.Querier, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	existing.DisplayName = user.DisplayName
	existing.Village = user.Village
	existing.Neighborhood = user.Neighborhood
	existing.AnonymousParticipation = user.AnonymousParticipation
	existing.UpdatedAt = s.m.now()
	s.m.users[user.ID] = existing
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

type memCenters struct{ m *memDB }

func (s memCenters) GetByID(_ context.Context, _ db.Querier, id int64) (*models.Center, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.centers[id]
	if !ok {
		return nil, apperrors.ErrCenterNotFound
	}
	return &c, nil
}

type memRegistrations struct{ m *memDB }

func (s memRegistrations) Find(_ context.Context, _ db.Querier, userID, activityID int64) (*models.Registration, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.registrations {
		if r.UserID == userID && r.ActivityID == activityID {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (s memRegistrations) Create(_ context.Context, _ db.Querier, reg *models.Registration) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.registrations {
		if r.UserID == reg.UserID && r.ActivityID == reg.ActivityID {
			return apperrors.ErrAlreadyRegistered
		}
	}
	reg.ID = s.m.id()
	reg.CreatedAt = s.m.now()
	s.m.registrations = append(s.m.registrations, *reg)
	return nil
}

func (s memRegistrations) Delete(_ context.Context, _ db.Querier, userID, activityID int64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, r := range s.m.registrations {
		if r.UserID == userID && r.ActivityID == activityID {
			s.m.registrations = append(s.m.registrations[:i], s.m.registrations[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s memRegistrations) CountByActivity(_ context.Context, _ db.Querier, activityID int64) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for _, r := range s.m.registrations {
		if r.ActivityID == activityID {
			n++
		}
	}
	return n, nil
}

func (s memRegistrations) CountByActivityIDs(_ context.Context, _ db.Querier, ids []int64) (map[int64]int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make(map[int64]int)
	for _, r := range s.m.registrations {
		if wanted[r.ActivityID] {
			out[r.ActivityID]++
		}
	}
	return out, nil
}

func (s memRegistrations) ListByActivity(_ context.Context, _ db.Querier, activityID int64) ([]*models.Registration, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]*models.Registration, 0)
	for _, r := range s.m.registrations {
		if r.ActivityID == activityID {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

type memWaitlist struct{ m *memDB }

// queue returns the activity's entries in promotion order; caller holds mu
func (s memWaitlist) queue(activityID int64) []models.WaitlistEntry {
	var q []models.WaitlistEntry
	for _, e := range s.m.waitlist {
		if e.ActivityID == activityID {
			q = append(q, e)
		}
	}
	sort.Slice(q, func(i, j int) bool {
		if !q[i].RegistrationDate.Equal(q[j].RegistrationDate) {
			return q[i].RegistrationDate.Before(q[j].RegistrationDate)
		}
		return q[i].ID < q[j].ID
	})
	return q
}

func (s memWaitlist) Find(_ context.Context, _ db.Querier, userID, activityID int64) (*models.WaitlistEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, e := range s.m.waitlist {
		if e.UserID == userID && e.ActivityID == activityID {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (s memWaitlist) Head(_ context.Context, _ db.Querier, activityID int64) (*models.WaitlistEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q := s.queue(activityID)
	if len(q) == 0 {
		return nil, nil
	}
	return &q[0], nil
}

func (s memWaitlist) Create(_ context.Context, _ db.Querier, entry *models.WaitlistEntry) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, e := range s.m.waitlist {
		if e.UserID == entry.UserID && e.ActivityID == entry.ActivityID {
			return apperrors.ErrAlreadyWaitlisted
		}
	}
	entry.ID = s.m.id()
	s.m.waitlist = append(s.m.waitlist, *entry)
	return nil
}

func (s memWaitlist) Delete(_ context.Context, _ db.Querier, userID, activityID int64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, e := range s.m.waitlist {
		if e.UserID == userID && e.ActivityID == activityID {
			s.m.waitlist = append(s.m.waitlist[:i], s.m.waitlist[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s memWaitlist) Position(_ context.Context, _ db.Querier, userID, activityID int64) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, e := range s.queue(activityID) {
		if e.UserID == userID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (s memWaitlist) ListByActivity(_ context.Context, _ db.Querier, activityID int64) ([]*models.WaitlistEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q := s.queue(activityID)
	out := make([]*models.WaitlistEntry, 0, len(q))
	for i := range q {
		out = append(out, &q[i])
	}
	return out, nil
}

type memReminders struct{ m *memDB }

func (s memReminders) Create(_ context.Context, _ db.Querier, r *models.Reminder) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.failReminderCreate != nil {
		return s.m.failReminderCreate
	}
	r.ID = s.m.id()
	r.CreatedAt = s.m.now()
	s.m.reminders = append(s.m.reminders, *r)
	return nil
}

func (s memReminders) DeleteAllFor(_ context.Context, _ db.Querier, userID, activityID int64) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	kept := s.m.reminders[:0]
	var n int64
	for _, r := range s.m.reminders {
		if r.UserID == userID && r.ActivityID == activityID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.m.reminders = kept
	return n, nil
}

func (s memReminders) ListByUser(_ context.Context, _ db.Querier, userID int64, unreadOnly bool) ([]*models.Reminder, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]*models.Reminder, 0)
	for _, r := range s.m.reminders {
		if r.UserID == userID && (!unreadOnly || !r.IsRead) {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderDate.Before(out[j].ReminderDate) })
	return out, nil
}

func (s memReminders) MarkRead(_ context.Context, _ db.Querier, reminderID, userID int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, r := range s.m.reminders {
		if r.ID == reminderID && r.UserID == userID {
			s.m.reminders[i].IsRead = true
			return nil
		}
	}
	return apperrors.ErrReminderNotFound
}

// recordingGateway captures notices instead of sending email
type recordingGateway struct {
	mu        sync.Mutex
	confirmed []notification.Notice
	promoted  []notification.Notice
	err       error
}

func (g *recordingGateway) SendRegistrationConfirmation(_ context.Context, n notification.Notice) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirmed = append(g.confirmed, n)
	return g.err
}

func (g *recordingGateway) SendWaitlistPromotion(_ context.Context, n notification.Notice) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.promoted = append(g.promoted, n)
	return g.err
}

func (g *recordingGateway) promotedTo() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.promoted))
	for _, n := range g.promoted {
		out = append(out, n.ContactAddress)
	}
	return out
}
