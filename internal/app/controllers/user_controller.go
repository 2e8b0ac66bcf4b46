package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/app/services"
	"github.com/samenactief/backend/internal/middleware"
)

// UserController serves the caller's own profile and reminders
type UserController struct {
	authService     services.AuthService
	reminderService services.ReminderService
}

// NewUserController creates a new UserController
func NewUserController(authService services.AuthService, reminderService services.ReminderService) *UserController {
	return &UserController{
		authService:     authService,
		reminderService: reminderService,
	}
}

// GetProfile returns the caller's profile
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	profile, err := c.authService.GetProfile(ctx.Request.Context(), caller.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, profile)
}

// UpdateProfile changes the caller's profile
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	profile, err := c.authService.UpdateProfile(ctx.Request.Context(), caller.UserID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, profile)
}

// ListReminders returns the caller's reminders; ?unread=true filters read ones out
// @Summary List own reminders
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ReminderResponse}
// @Router /users/me/reminders [get]
func (c *UserController) ListReminders(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	reminders, err := c.reminderService.ListForUser(ctx.Request.Context(), caller.UserID, ctx.Query("unread") == "true")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	out := make([]dto.ReminderResponse, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, dto.FromReminder(r))
	}
	respond(ctx, http.StatusOK, out)
}

// MarkReminderRead flags one of the caller's reminders as read
// @Summary Mark a reminder read
// @Tags reminders
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Reminder not found"
// @Router /reminders/{id}/read [patch]
func (c *UserController) MarkReminderRead(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	if err := c.reminderService.MarkRead(ctx.Request.Context(), caller.UserID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
