package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/samenactief/backend/internal/app/auth"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var activityStart = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	db       *memDB
	gateway  *recordingGateway
	ledger   LedgerService
	centerID int64
	clock    time.Time
}

func newLedgerFixture(t interface{ Helper() }, policy PromotionPolicy) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		db:      newMemDB(),
		gateway: &recordingGateway{},
		clock:   time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	f.centerID = f.db.addCenter("De Linde")
	f.ledger = NewLedgerService(f.db, nil, f.db.stores(), f.gateway, auth.NewAuthorizationService(),
		LedgerOptions{Policy: policy, Now: f.tick}, zerolog.Nop())
	return f
}

// tick advances the clock one minute per waitlist join
func (f *ledgerFixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func self(userID int64) auth.Caller {
	return auth.Caller{UserID: userID, Role: models.RoleResident}
}

func TestRegister_CreatesRegistrationReminderAndConfirmation(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 2, activityStart)
	an := f.db.addUser("an", false)

	reg, err := f.ledger.Register(context.Background(), self(an), an, activityID)
	require.NoError(t, err)
	assert.Equal(t, an, reg.UserID)
	assert.Equal(t, 1, f.db.registrationCount(activityID))

	reminders := f.db.remindersFor(an, activityID)
	require.Len(t, reminders, 1)
	assert.Equal(t, time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), reminders[0].ReminderDate)
	assert.Equal(t, "Herinnering: Koffieochtend", reminders[0].Title)
	assert.Equal(t, "Morgen om 10:00 begint Koffieochtend op Buurthuis De Linde.", reminders[0].Message)

	require.Len(t, f.gateway.confirmed, 1)
	notice := f.gateway.confirmed[0]
	assert.Equal(t, "an@buurt.nl", notice.ContactAddress)
	assert.Equal(t, "an", notice.DisplayName)
	assert.Equal(t, "Koffieochtend", notice.ActivityName)
	assert.Equal(t, activityStart, notice.ActivityDate)
	assert.Equal(t, "Buurthuis De Linde", notice.LocationText)
}

func TestRegister_Errors(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	an := f.db.addUser("an", false)
	bo := f.db.addUser("bo", false)
	ctx := context.Background()

	_, err := f.ledger.Register(ctx, self(an), an, activityID)
	require.NoError(t, err)

	_, err = f.ledger.Register(ctx, self(an), an, activityID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

	_, err = f.ledger.Register(ctx, self(bo), bo, activityID)
	assert.ErrorIs(t, err, apperrors.ErrActivityFull)
	assert.False(t, f.db.isWaitlisted(bo, activityID), "a full activity must not auto-waitlist")

	_, err = f.ledger.Register(ctx, self(bo), bo, 9999)
	assert.ErrorIs(t, err, apperrors.ErrActivityNotFound)

	_, err = f.ledger.Register(ctx, self(9998), 9998, activityID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.ledger.Register(ctx, self(bo), an, activityID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	assert.Equal(t, 1, f.db.registrationCount(activityID))
}

func TestRegister_AdminActsForResident(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 3, activityStart)
	otherCenter := f.db.addCenter("Het Anker")
	an := f.db.addUser("an", false)
	ctx := context.Background()

	outsider := auth.Caller{UserID: 500, Role: models.RoleCenterAdmin, CenterID: &otherCenter}
	_, err := f.ledger.Register(ctx, outsider, an, activityID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	centerID := f.centerID
	admin := auth.Caller{UserID: 501, Role: models.RoleCenterAdmin, CenterID: &centerID}
	_, err = f.ledger.Register(ctx, admin, an, activityID)
	require.NoError(t, err)
	assert.True(t, f.db.isRegistered(an, activityID))
}

func TestRegister_RemovesOwnWaitlistEntry(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	an := f.db.addUser("an", false)
	bo := f.db.addUser("bo", false)
	ctx := context.Background()

	_, err := f.ledger.Register(ctx, self(an), an, activityID)
	require.NoError(t, err)
	_, _, err = f.ledger.JoinWaitlist(ctx, self(bo), bo, activityID)
	require.NoError(t, err)

	// a seat opens without promotion running
	f.db.setCapacity(activityID, 2)

	_, err = f.ledger.Register(ctx, self(bo), bo, activityID)
	require.NoError(t, err)
	assert.True(t, f.db.isRegistered(bo, activityID))
	assert.False(t, f.db.isWaitlisted(bo, activityID))
}

func TestRegister_NotificationFailureKeepsRegistration(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	f.gateway.err = errors.New("smtp down")
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	an := f.db.addUser("an", false)

	_, err := f.ledger.Register(context.Background(), self(an), an, activityID)

	require.NoError(t, err)
	assert.True(t, f.db.isRegistered(an, activityID))
	assert.Len(t, f.db.remindersFor(an, activityID), 1)
}

func TestRegister_NilGatewaySendsNothing(t *testing.T) {
	db := newMemDB()
	center := db.addCenter("De Linde")
	activityID := db.addActivity(center, 1, activityStart)
	an := db.addUser("an", false)
	ledger := NewLedgerService(db, nil, db.stores(), nil, auth.NewAuthorizationService(), LedgerOptions{}, zerolog.Nop())

	_, err := ledger.Register(context.Background(), self(an), an, activityID)
	require.NoError(t, err)
}

func TestRegister_RollsBackWhenReminderFails(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	an := f.db.addUser("an", false)
	f.db.failReminderCreate = errors.New("disk full")

	_, err := f.ledger.Register(context.Background(), self(an), an, activityID)

	require.Error(t, err)
	assert.False(t, f.db.isRegistered(an, activityID))
	assert.Empty(t, f.gateway.confirmed, "no email for a rolled back registration")
}

func TestJoinWaitlist_Errors(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	an := f.db.addUser("an", false)
	bo := f.db.addUser("bo", false)
	ctx := context.Background()

	_, _, err := f.ledger.JoinWaitlist(ctx, self(an), an, activityID)
	assert.ErrorIs(t, err, apperrors.ErrSeatsAvailable)

	_, err = f.ledger.Register(ctx, self(an), an, activityID)
	require.NoError(t, err)

	_, _, err = f.ledger.JoinWaitlist(ctx, self(an), an, activityID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

	_, pos, err := f.ledger.JoinWaitlist(ctx, self(bo), bo, activityID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	_, _, err = f.ledger.JoinWaitlist(ctx, self(bo), bo, activityID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyWaitlisted)

	_, _, err = f.ledger.JoinWaitlist(ctx, self(bo), bo, 4242)
	assert.ErrorIs(t, err, apperrors.ErrActivityNotFound)
}

func TestJoinWaitlist_ThirdJoinerGetsPositionThree(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	holder := f.db.addUser("holder", false)
	ctx := context.Background()
	_, err := f.ledger.Register(ctx, self(holder), holder, activityID)
	require.NoError(t, err)

	for i, name := range []string{"u1", "u2", "u3"} {
		u := f.db.addUser(name, false)
		entry, pos, err := f.ledger.JoinWaitlist(ctx, self(u), u, activityID)
		require.NoError(t, err)
		assert.Equal(t, i+1, pos)
		assert.Equal(t, u, entry.UserID)

		got, err := f.ledger.WaitlistPosition(ctx, self(u), u, activityID)
		require.NoError(t, err)
		assert.Equal(t, i+1, got)
	}
}

func TestWaitlistPosition_TiesBrokenByID(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.ledger = NewLedgerService(f.db, nil, f.db.stores(), f.gateway, auth.NewAuthorizationService(),
		LedgerOptions{Now: func() time.Time { return frozen }}, zerolog.Nop())
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	holder := f.db.addUser("holder", false)
	ctx := context.Background()
	_, err := f.ledger.Register(ctx, self(holder), holder, activityID)
	require.NoError(t, err)

	first := f.db.addUser("first", false)
	second := f.db.addUser("second", false)
	_, _, err = f.ledger.JoinWaitlist(ctx, self(first), first, activityID)
	require.NoError(t, err)
	_, pos, err := f.ledger.JoinWaitlist(ctx, self(second), second, activityID)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	require.NoError(t, f.ledger.Cancel(ctx, self(holder), holder, activityID))
	assert.True(t, f.db.isRegistered(first, activityID))
	assert.False(t, f.db.isRegistered(second, activityID))
}

func TestWaitlistPosition_NotWaitlisted(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	an := f.db.addUser("an", false)

	_, err := f.ledger.WaitlistPosition(context.Background(), self(an), an, activityID)
	assert.ErrorIs(t, err, apperrors.ErrNotWaitlisted)

	_, err = f.ledger.WaitlistPosition(context.Background(), self(an+1), an, activityID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCancel_PromotesInFIFOOrder(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	holder := f.db.addUser("holder", false)
	u1 := f.db.addUser("u1", false)
	u2 := f.db.addUser("u2", false)
	u3 := f.db.addUser("u3", false)
	ctx := context.Background()

	_, err := f.ledger.Register(ctx, self(holder), holder, activityID)
	require.NoError(t, err)
	for _, u := range []int64{u1, u2, u3} {
		_, _, err := f.ledger.JoinWaitlist(ctx, self(u), u, activityID)
		require.NoError(t, err)
	}

	require.NoError(t, f.ledger.Cancel(ctx, self(holder), holder, activityID))
	assert.True(t, f.db.isRegistered(u1, activityID))
	assert.False(t, f.db.isWaitlisted(u1, activityID))
	assert.Len(t, f.db.remindersFor(u1, activityID), 1)
	assert.Equal(t, []string{"u1@buurt.nl"}, f.gateway.promotedTo())

	require.NoError(t, f.ledger.Cancel(ctx, self(u1), u1, activityID))
	assert.True(t, f.db.isRegistered(u2, activityID))
	assert.True(t, f.db.isWaitlisted(u3, activityID))
	assert.Equal(t, []string{"u1@buurt.nl", "u2@buurt.nl"}, f.gateway.promotedTo())

	pos, err := f.ledger.WaitlistPosition(ctx, self(u3), u3, activityID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
}

func TestCancelAndLeave_AreIdempotent(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	an := f.db.addUser("an", false)
	bo := f.db.addUser("bo", false)
	ctx := context.Background()

	_, err := f.ledger.Register(ctx, self(an), an, activityID)
	require.NoError(t, err)
	_, _, err = f.ledger.JoinWaitlist(ctx, self(bo), bo, activityID)
	require.NoError(t, err)

	require.NoError(t, f.ledger.LeaveWaitlist(ctx, self(bo), bo, activityID))
	require.NoError(t, f.ledger.LeaveWaitlist(ctx, self(bo), bo, activityID))
	assert.False(t, f.db.isWaitlisted(bo, activityID))

	require.NoError(t, f.ledger.Cancel(ctx, self(an), an, activityID))
	require.NoError(t, f.ledger.Cancel(ctx, self(an), an, activityID))
	assert.Zero(t, f.db.registrationCount(activityID))
	assert.Empty(t, f.db.remindersFor(an, activityID))

	assert.ErrorIs(t, f.ledger.Cancel(ctx, self(an), an, 777), apperrors.ErrActivityNotFound)
	assert.ErrorIs(t, f.ledger.LeaveWaitlist(ctx, self(an), bo, activityID), apperrors.ErrPermissionDenied)
}

func TestPromoteFromWaitlist_Policies(t *testing.T) {
	tests := []struct {
		name         string
		policy       PromotionPolicy
		freedSeats   int
		wantPromoted int
	}{
		{"single one seat", PromoteSingle, 1, 1},
		{"single two seats", PromoteSingle, 2, 2},
		{"single no seat count", PromoteSingle, 0, 1},
		{"fill ignores seat count", PromoteFill, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t, tt.policy)
			activityID := f.db.addActivity(f.centerID, 1, activityStart)
			holder := f.db.addUser("holder", false)
			ctx := context.Background()
			_, err := f.ledger.Register(ctx, self(holder), holder, activityID)
			require.NoError(t, err)
			for _, name := range []string{"u1", "u2", "u3"} {
				u := f.db.addUser(name, false)
				_, _, err := f.ledger.JoinWaitlist(ctx, self(u), u, activityID)
				require.NoError(t, err)
			}

			f.db.setCapacity(activityID, 3)
			promoted, err := f.ledger.PromoteFromWaitlist(ctx, activityID, tt.freedSeats)
			require.NoError(t, err)

			assert.Len(t, promoted, tt.wantPromoted)
			assert.Equal(t, 1+tt.wantPromoted, f.db.registrationCount(activityID))
			assert.Equal(t, 3-tt.wantPromoted, f.db.waitlistLen(activityID))
			assert.Len(t, f.gateway.promotedTo(), tt.wantPromoted)
		})
	}
}

func TestPromoteFromWaitlist_FullActivityPromotesNobody(t *testing.T) {
	f := newLedgerFixture(t, PromoteFill)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	holder := f.db.addUser("holder", false)
	waiting := f.db.addUser("waiting", false)
	ctx := context.Background()
	_, err := f.ledger.Register(ctx, self(holder), holder, activityID)
	require.NoError(t, err)
	_, _, err = f.ledger.JoinWaitlist(ctx, self(waiting), waiting, activityID)
	require.NoError(t, err)

	promoted, err := f.ledger.PromoteFromWaitlist(ctx, activityID, 1)
	require.NoError(t, err)
	assert.Empty(t, promoted)
	assert.True(t, f.db.isWaitlisted(waiting, activityID))
}

func TestListings_MaskAnonymousParticipants(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	open := f.db.addUser("open", false)
	hidden := f.db.addUser("hidden", true)
	ctx := context.Background()

	_, err := f.ledger.Register(ctx, self(hidden), hidden, activityID)
	require.NoError(t, err)
	_, _, err = f.ledger.JoinWaitlist(ctx, self(open), open, activityID)
	require.NoError(t, err)

	regs, err := f.ledger.ListRegistrations(ctx, activityID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.True(t, regs[0].Anonymous)
	assert.Nil(t, regs[0].DisplayName)
	assert.Nil(t, regs[0].UserID)
	assert.Equal(t, "Ede", regs[0].Village)
	assert.Equal(t, "Veldhuizen", regs[0].Neighborhood)

	queue, err := f.ledger.ListWaitlist(ctx, activityID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.NotNil(t, queue[0].DisplayName)
	assert.Equal(t, "open", *queue[0].DisplayName)
	assert.Equal(t, 1, queue[0].Position)

	_, err = f.ledger.ListRegistrations(ctx, 31337)
	assert.ErrorIs(t, err, apperrors.ErrActivityNotFound)
}

func TestAttendeeCount(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 5, activityStart)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		u := f.db.addUser(name, false)
		_, err := f.ledger.Register(ctx, self(u), u, activityID)
		require.NoError(t, err)
	}

	count, err := f.ledger.AttendeeCount(ctx, activityID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = f.ledger.AttendeeCount(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrActivityNotFound)
}

func TestEndToEnd_SingleSeatWithWaitlist(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	activityID := f.db.addActivity(f.centerID, 1, activityStart)
	a := f.db.addUser("a", false)
	b := f.db.addUser("b", false)
	ctx := context.Background()

	_, err := f.ledger.Register(ctx, self(a), a, activityID)
	require.NoError(t, err)
	count, err := f.ledger.AttendeeCount(ctx, activityID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = f.ledger.Register(ctx, self(b), b, activityID)
	assert.ErrorIs(t, err, apperrors.ErrActivityFull)

	_, pos, err := f.ledger.JoinWaitlist(ctx, self(b), b, activityID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	require.NoError(t, f.ledger.Cancel(ctx, self(a), a, activityID))

	assert.False(t, f.db.isRegistered(a, activityID))
	assert.Empty(t, f.db.remindersFor(a, activityID))
	assert.True(t, f.db.isRegistered(b, activityID))
	require.Len(t, f.db.remindersFor(b, activityID), 1)
	assert.Equal(t, time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), f.db.remindersFor(b, activityID)[0].ReminderDate)
	assert.Zero(t, f.db.waitlistLen(activityID))
}

func TestRegister_ConcurrentRequestsNeverExceedCapacity(t *testing.T) {
	f := newLedgerFixture(t, PromoteSingle)
	const capacity, residents = 5, 25
	activityID := f.db.addActivity(f.centerID, capacity, activityStart)

	users := make([]int64, residents)
	for i := range users {
		users[i] = f.db.addUser("r"+string(rune('a'+i)), false)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, full int
	for _, u := range users {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			_, err := f.ledger.Register(context.Background(), self(u), u, activityID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperrors.ErrActivityFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, capacity, ok)
	assert.Equal(t, residents-capacity, full)
	assert.Equal(t, capacity, f.db.registrationCount(activityID))
}

// TestLedgerInvariants drives random operation sequences, capacity edits
// included, and checks the capacity bound, mutual exclusion, the
// reminder/registration pairing and that nobody waits while a seat is free.
func TestLedgerInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		policy := rapid.SampledFrom([]PromotionPolicy{PromoteSingle, PromoteFill}).Draw(t, "policy")
		af := newActivityFixture(t, policy)
		f := af.ledgerFixture
		activityID := f.db.addActivity(f.centerID, rapid.IntRange(1, 3).Draw(t, "capacity"), activityStart)

		users := make([]int64, 6)
		for i := range users {
			users[i] = f.db.addUser("u"+string(rune('0'+i)), i%2 == 0)
		}

		ctx := context.Background()
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			u := rapid.SampledFrom(users).Draw(t, "user")
			op := rapid.IntRange(0, 4).Draw(t, "op")

			var err error
			switch op {
			case 0:
				_, err = f.ledger.Register(ctx, self(u), u, activityID)
				if err != nil && !errors.Is(err, apperrors.ErrActivityFull) && !errors.Is(err, apperrors.ErrAlreadyRegistered) {
					t.Fatalf("register: %v", err)
				}
			case 1:
				err = f.ledger.Cancel(ctx, self(u), u, activityID)
				if err != nil {
					t.Fatalf("cancel: %v", err)
				}
			case 2:
				_, _, err = f.ledger.JoinWaitlist(ctx, self(u), u, activityID)
				if err != nil && !errors.Is(err, apperrors.ErrSeatsAvailable) &&
					!errors.Is(err, apperrors.ErrAlreadyRegistered) && !errors.Is(err, apperrors.ErrAlreadyWaitlisted) {
					t.Fatalf("join waitlist: %v", err)
				}
			case 3:
				if err = f.ledger.LeaveWaitlist(ctx, self(u), u, activityID); err != nil {
					t.Fatalf("leave waitlist: %v", err)
				}
			case 4:
				newCapacity := rapid.IntRange(1, 5).Draw(t, "newCapacity")
				_, err = af.activities.UpdateActivity(ctx, af.admin, activityID, updateRequest(newCapacity))
				if err != nil && !errors.Is(err, apperrors.ErrCapacityBelowCount) {
					t.Fatalf("update capacity: %v", err)
				}
			}

			capacity := f.db.capacity(activityID)
			count := f.db.registrationCount(activityID)
			if count > capacity {
				t.Fatalf("count %d exceeds capacity %d", count, capacity)
			}
			if f.db.waitlistLen(activityID) > 0 && count < capacity {
				t.Fatalf("waitlist non-empty while %d of %d seats taken", count, capacity)
			}
			for _, v := range users {
				registered := f.db.isRegistered(v, activityID)
				if registered && f.db.isWaitlisted(v, activityID) {
					t.Fatalf("user %d both registered and waitlisted", v)
				}
				if reminders := len(f.db.remindersFor(v, activityID)); registered != (reminders == 1) {
					t.Fatalf("user %d registered=%v with %d reminders", v, registered, reminders)
				}
			}
		}
	})
}
