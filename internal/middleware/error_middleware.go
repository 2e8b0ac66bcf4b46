package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/pkg/apperrors"
)

type apiError struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// apiErrors is checked in order; the first match wins
var apiErrors = []apiError{
	{apperrors.ErrActivityFull, http.StatusBadRequest, dto.ErrorCodeActivityFull, "No seats available"},
	{apperrors.ErrSeatsAvailable, http.StatusBadRequest, dto.ErrorCodeSeatsAvailable, "Seats are still available, register directly"},
	{apperrors.ErrAlreadyWaitlisted, http.StatusBadRequest, dto.ErrorCodeAlreadyWaitlisted, "Already on the waitlist"},
	{apperrors.ErrAlreadyRegistered, http.StatusConflict, dto.ErrorCodeAlreadyRegistered, "Already registered for this activity"},
	{apperrors.ErrNotWaitlisted, http.StatusNotFound, dto.ErrorCodeNotWaitlisted, "Not on the waitlist"},
	{apperrors.ErrCapacityBelowCount, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Capacity cannot be lower than the number of registrations"},
	{apperrors.ErrActivityNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Activity not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrCenterNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Center not found"},
	{apperrors.ErrReminderNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Reminder not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Conflict"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeInvalidRequest, "Bad request"},
}

// HandleAPIError maps a service error to a status code and error envelope
func HandleAPIError(c *gin.Context, err error) {
	for _, e := range apiErrors {
		if !errors.Is(err, e.target) {
			continue
		}
		detail := dto.NewErrorDetail(e.code, e.message)
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			detail.WithDetails(custom.Message)
		} else if err.Error() != e.target.Error() {
			detail.WithDetails(err.Error())
		}
		c.JSON(e.status, dto.NewErrorResponse(detail))
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
	))
}
