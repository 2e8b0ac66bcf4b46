package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samenactief/backend/internal/app/auth"
	"github.com/samenactief/backend/internal/app/controllers"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/app/routes"
	"github.com/samenactief/backend/internal/app/services"
	"github.com/samenactief/backend/internal/middleware"
	pkgauth "github.com/samenactief/backend/internal/pkg/auth"
	"github.com/stretchr/testify/require"
)

type ledgerCall struct {
	caller     auth.Caller
	userID     int64
	activityID int64
}

// fakeLedger records the last call and returns err from every mutation
type fakeLedger struct {
	last     ledgerCall
	err      error
	position int
	views    []dto.ParticipantView
	count    int
}

func (f *fakeLedger) record(caller auth.Caller, userID, activityID int64) {
	f.last = ledgerCall{caller: caller, userID: userID, activityID: activityID}
}

func (f *fakeLedger) Register(_ context.Context, caller auth.Caller, userID, activityID int64) (*models.Registration, error) {
	f.record(caller, userID, activityID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Registration{ID: 1, UserID: userID, ActivityID: activityID}, nil
}

func (f *fakeLedger) Cancel(_ context.Context, caller auth.Caller, userID, activityID int64) error {
	f.record(caller, userID, activityID)
	return f.err
}

func (f *fakeLedger) JoinWaitlist(_ context.Context, caller auth.Caller, userID, activityID int64) (*models.WaitlistEntry, int, error) {
	f.record(caller, userID, activityID)
	if f.err != nil {
		return nil, 0, f.err
	}
	return &models.WaitlistEntry{ID: 7, UserID: userID, ActivityID: activityID}, f.position, nil
}

func (f *fakeLedger) LeaveWaitlist(_ context.Context, caller auth.Caller, userID, activityID int64) error {
	f.record(caller, userID, activityID)
	return f.err
}

func (f *fakeLedger) PromoteFromWaitlist(context.Context, int64, int) ([]*models.Registration, error) {
	return nil, f.err
}

func (f *fakeLedger) WaitlistPosition(_ context.Context, caller auth.Caller, userID, activityID int64) (int, error) {
	f.record(caller, userID, activityID)
	return f.position, f.err
}

func (f *fakeLedger) ListRegistrations(_ context.Context, activityID int64) ([]dto.ParticipantView, error) {
	f.last.activityID = activityID
	return f.views, f.err
}

func (f *fakeLedger) ListWaitlist(_ context.Context, activityID int64) ([]dto.ParticipantView, error) {
	f.last.activityID = activityID
	return f.views, f.err
}

func (f *fakeLedger) AttendeeCount(_ context.Context, activityID int64) (int, error) {
	f.last.activityID = activityID
	return f.count, f.err
}

type fakeActivities struct {
	created *dto.CreateActivityRequest
	filter  dto.ActivityFilterRequest
	err     error
}

func (f *fakeActivities) CreateActivity(_ context.Context, _ auth.Caller, req *dto.CreateActivityRequest) (*dto.ActivityResponse, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ActivityResponse{ID: 10, CenterID: req.CenterID, Title: req.Title, Capacity: req.Capacity}, nil
}

func (f *fakeActivities) GetActivity(_ context.Context, id int64) (*dto.ActivityResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ActivityResponse{ID: id}, nil
}

func (f *fakeActivities) ListActivities(_ context.Context, filter dto.ActivityFilterRequest) (*dto.ActivityListResponse, error) {
	f.filter = filter
	return &dto.ActivityListResponse{Activities: []dto.ActivityResponse{}}, f.err
}

func (f *fakeActivities) UpdateActivity(_ context.Context, _ auth.Caller, id int64, req *dto.UpdateActivityRequest) (*dto.ActivityResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ActivityResponse{ID: id, Capacity: req.Capacity}, nil
}

type fakeAuth struct {
	err error
}

func (f *fakeAuth) Register(_ context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AuthResponse{User: dto.UserResponse{ID: 1, Email: req.Email}}, nil
}

func (f *fakeAuth) Login(_ context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AuthResponse{Token: dto.TokenResponse{AccessToken: "t", TokenType: "Bearer"}}, nil
}

func (f *fakeAuth) GetProfile(_ context.Context, userID int64) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: userID}, f.err
}

func (f *fakeAuth) UpdateProfile(_ context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: userID, DisplayName: req.DisplayName}, f.err
}

type fakeReminders struct {
	unreadOnly bool
	marked     int64
	err        error
}

func (f *fakeReminders) ListForUser(_ context.Context, userID int64, unreadOnly bool) ([]*models.Reminder, error) {
	f.unreadOnly = unreadOnly
	return []*models.Reminder{{ID: 3, UserID: userID, Title: "Herinnering: Koffieochtend"}}, f.err
}

func (f *fakeReminders) MarkRead(_ context.Context, _ int64, reminderID int64) error {
	f.marked = reminderID
	return f.err
}

var (
	_ services.LedgerService   = (*fakeLedger)(nil)
	_ services.ActivityService = (*fakeActivities)(nil)
	_ services.AuthService     = (*fakeAuth)(nil)
	_ services.ReminderService = (*fakeReminders)(nil)
)

type testServer struct {
	router     *gin.Engine
	jwt        *pkgauth.JWTService
	ledger     *fakeLedger
	activities *fakeActivities
	auth       *fakeAuth
	reminders  *fakeReminders
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{
		jwt: pkgauth.NewJWTService(pkgauth.JWTConfig{
			SecretKey:      "controller-test",
			AccessTokenExp: time.Hour,
			TokenIssuer:    "samenactief.test",
		}),
		ledger:     &fakeLedger{},
		activities: &fakeActivities{},
		auth:       &fakeAuth{},
		reminders:  &fakeReminders{},
	}

	s.router = gin.New()
	routes.SetupRouter(s.router, routes.Controllers{
		Auth:     controllers.NewAuthController(s.auth, zerolog.Nop()),
		User:     controllers.NewUserController(s.auth, s.reminders),
		Activity: controllers.NewActivityController(s.activities),
		Ledger:   controllers.NewLedgerController(s.ledger),
	}, middleware.NewAuthMiddleware(s.jwt))
	return s
}

func (s *testServer) token(t *testing.T, user models.User) string {
	t.Helper()
	if user.Email == "" {
		user.Email = "test@buurt.nl"
	}
	token, _, err := s.jwt.GenerateAccessToken(&user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
