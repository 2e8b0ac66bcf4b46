package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samenactief/backend/internal/app/auth"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/app/services"
	"github.com/samenactief/backend/internal/middleware"
)

// LedgerController exposes registrations and waitlists of an activity
type LedgerController struct {
	ledger services.LedgerService
}

// NewLedgerController creates a new LedgerController
func NewLedgerController(ledger services.LedgerService) *LedgerController {
	return &LedgerController{ledger: ledger}
}

// target resolves the activity id and the user the action applies to.
// A missing or zero userId means the caller.
func (c *LedgerController) target(ctx *gin.Context) (caller auth.Caller, userID, activityID int64, ok bool) {
	if activityID, ok = parseIDParam(ctx, "id"); !ok {
		return
	}
	if caller, ok = requireCaller(ctx); !ok {
		return
	}

	var req dto.TargetUserRequest
	if ok = middleware.BindOptionalJSON(ctx, &req); !ok {
		return
	}
	userID = req.UserID
	if userID == 0 {
		userID = caller.UserID
	}
	return caller, userID, activityID, true
}

// Register seats a user
// @Summary Register for an activity
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Param request body dto.TargetUserRequest false "User to register, defaults to the caller"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 400 {object} dto.ErrorResponse "Activity full"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already registered"
// @Router /activities/{id}/register [post]
func (c *LedgerController) Register(ctx *gin.Context) {
	caller, userID, activityID, ok := c.target(ctx)
	if !ok {
		return
	}

	reg, err := c.ledger.Register(ctx.Request.Context(), caller, userID, activityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, dto.FromRegistration(reg))
}

// Cancel removes a registration; cancelling twice succeeds
// @Summary Cancel a registration
// @Tags ledger
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Success 204
// @Router /activities/{id}/register [delete]
func (c *LedgerController) Cancel(ctx *gin.Context) {
	caller, userID, activityID, ok := c.target(ctx)
	if !ok {
		return
	}

	if err := c.ledger.Cancel(ctx.Request.Context(), caller, userID, activityID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// JoinWaitlist queues a user for a full activity
// @Summary Join the waitlist
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Success 201 {object} dto.APIResponse{data=dto.WaitlistEntryResponse}
// @Failure 400 {object} dto.ErrorResponse "Seats available or already waitlisted"
// @Router /activities/{id}/waitlist [post]
func (c *LedgerController) JoinWaitlist(ctx *gin.Context) {
	caller, userID, activityID, ok := c.target(ctx)
	if !ok {
		return
	}

	entry, position, err := c.ledger.JoinWaitlist(ctx.Request.Context(), caller, userID, activityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, dto.FromWaitlistEntry(entry, position))
}

// LeaveWaitlist removes a waitlist entry
// @Summary Leave the waitlist
// @Tags ledger
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Success 204
// @Router /activities/{id}/waitlist [delete]
func (c *LedgerController) LeaveWaitlist(ctx *gin.Context) {
	caller, userID, activityID, ok := c.target(ctx)
	if !ok {
		return
	}

	if err := c.ledger.LeaveWaitlist(ctx.Request.Context(), caller, userID, activityID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// WaitlistPosition returns the 1-based queue position of the caller, or of
// ?userId= for admins
// @Router /activities/{id}/waitlist/position [get]
func (c *LedgerController) WaitlistPosition(ctx *gin.Context) {
	activityID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	userID := caller.UserID
	if raw := ctx.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			badRequest(ctx, "Invalid userId", "userId must be a positive number")
			return
		}
		userID = id
	}

	position, err := c.ledger.WaitlistPosition(ctx.Request.Context(), caller, userID, activityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, dto.WaitlistPositionResponse{ActivityID: activityID, Position: position})
}

// ListRegistrations returns the participants of an activity
// @Success 200 {object} dto.APIResponse{data=[]dto.ParticipantView}
// @Router /activities/{id}/registrations [get]
func (c *LedgerController) ListRegistrations(ctx *gin.Context) {
	activityID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	views, err := c.ledger.ListRegistrations(ctx.Request.Context(), activityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, views)
}

// ListWaitlist returns the queue of an activity in promotion order
// @Success 200 {object} dto.APIResponse{data=[]dto.ParticipantView}
// @Router /activities/{id}/waitlist [get]
func (c *LedgerController) ListWaitlist(ctx *gin.Context) {
	activityID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	views, err := c.ledger.ListWaitlist(ctx.Request.Context(), activityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, views)
}

// AttendeeCount returns the number of confirmed seats
// @Success 200 {object} dto.APIResponse{data=int}
// @Router /activities/{id}/attendees/count [get]
func (c *LedgerController) AttendeeCount(ctx *gin.Context) {
	activityID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	count, err := c.ledger.AttendeeCount(ctx.Request.Context(), activityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, count)
}
