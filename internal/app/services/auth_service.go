package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	pkgauth "github.com/samenactief/backend/internal/pkg/auth"
	"github.com/samenactief/backend/internal/pkg/validation"
)

// Define custom error types for auth service
var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("invalid password format")
)

// AuthService handles login, resident sign-up and the caller's own profile
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

type authServiceImpl struct {
	q          db.Querier
	users      UserStore
	jwtService *pkgauth.JWTService
	hash       func(password string) (string, error)
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(q db.Querier, stores Stores, jwtService *pkgauth.JWTService, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		q:          q,
		users:      stores.Users,
		jwtService: jwtService,
		hash:       pkgauth.HashPassword,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail validates an email address
func (s *authServiceImpl) validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidationFailed)
	}
	if !validation.ValidEmail(email) {
		return fmt.Errorf("%w: %w", apperrors.ErrValidationFailed, ErrInvalidEmail)
	}
	return nil
}

// validateProfile checks the fields shared by sign-up and profile updates
func validateProfile(displayName, village, neighborhood string) error {
	if !validation.NewStringValidation(displayName).
		WithMinLength(validation.NameMinLength).
		WithMaxLength(validation.NameMaxLength).Validate() {
		return fmt.Errorf("%w: display name must be between %d and %d characters",
			apperrors.ErrValidationFailed, validation.NameMinLength, validation.NameMaxLength)
	}
	if !validation.NewStringValidation(village).WithMaxLength(validation.NameMaxLength).Validate() {
		return fmt.Errorf("%w: village cannot be empty", apperrors.ErrValidationFailed)
	}
	if !validation.NewStringValidation(neighborhood).WithRequired(false).WithMaxLength(validation.NameMaxLength).Validate() {
		return fmt.Errorf("%w: neighborhood is too long", apperrors.ErrValidationFailed)
	}
	return nil
}

// Register signs up a resident and logs them in
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}

	if !validation.ValidPassword(req.Password) {
		return nil, fmt.Errorf("%w: %w: password must be at least %d characters with a letter and a digit",
			apperrors.ErrValidationFailed, ErrInvalidPassword, validation.PasswordMinLength)
	}

	if err := validateProfile(req.DisplayName, req.Village, req.Neighborhood); err != nil {
		return nil, err
	}

	// Hash password
	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:                  email,
		Password:               hashed,
		DisplayName:            strings.TrimSpace(req.DisplayName),
		Village:                strings.TrimSpace(req.Village),
		Neighborhood:           strings.TrimSpace(req.Neighborhood),
		AnonymousParticipation: req.AnonymousParticipation,
		RoleType:               models.RoleResident,
	}
	if err := s.users.Create(ctx, s.q, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info().Int64("userId", user.ID).Msg("Resident registered")
	return s.authResponse(user)
}

// Login authenticates a user by email and password
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}

	if req.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}

	// Unknown email and wrong password look the same to the client
	user, err := s.users.GetByEmail(ctx, s.q, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !pkgauth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// GetProfile retrieves the caller's unmasked profile
func (s *authServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", apperrors.ErrValidationFailed)
	}

	user, err := s.users.GetByID(ctx, s.q, userID)
	if err != nil {
		return nil, err
	}

	resp := dto.FromUser(user)
	return &resp, nil
}

// UpdateProfile changes display name, village, neighborhood and the anonymity flag
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if err := validateProfile(req.DisplayName, req.Village, req.Neighborhood); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, s.q, userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = strings.TrimSpace(req.DisplayName)
	user.Village = strings.TrimSpace(req.Village)
	user.Neighborhood = strings.TrimSpace(req.Neighborhood)
	user.AnonymousParticipation = req.AnonymousParticipation
	if err := s.users.UpdateProfile(ctx, s.q, user); err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	resp := dto.FromUser(user)
	return &resp, nil
}

// authResponse creates the token plus profile payload
func (s *authServiceImpl) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		User: dto.FromUser(user),
	}, nil
}
