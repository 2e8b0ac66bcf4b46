package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/app/services"
	"github.com/samenactief/backend/internal/middleware"
	"github.com/samenactief/backend/internal/pkg/helpers"
)

// ActivityController handles activity browsing and admin editing
type ActivityController struct {
	activityService services.ActivityService
}

// NewActivityController creates a new ActivityController
func NewActivityController(activityService services.ActivityService) *ActivityController {
	return &ActivityController{
		activityService: activityService,
	}
}

// ListActivities lists activities, optionally for one center and from a date
// @Summary List activities
// @Tags activities
// @Produce json
// @Param centerId query int false "Center ID"
// @Param from query string false "RFC3339 start time lower bound"
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ActivityListResponse}
// @Router /activities [get]
func (c *ActivityController) ListActivities(ctx *gin.Context) {
	var filter dto.ActivityFilterRequest
	filter.Page, filter.PageSize = helpers.ParsePaginationParams(ctx)

	if raw := ctx.Query("centerId"); raw != "" {
		centerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || centerID <= 0 {
			badRequest(ctx, "Invalid centerId", "centerId must be a positive number")
			return
		}
		filter.CenterID = &centerID
	}

	if raw := ctx.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(ctx, "Invalid from", "from must be an RFC3339 timestamp")
			return
		}
		filter.From = &from
	}

	list, err := c.activityService.ListActivities(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, list)
}

// GetActivity retrieves an activity by ID
// @Summary Get activity details
// @Tags activities
// @Produce json
// @Param id path int true "Activity ID"
// @Success 200 {object} dto.APIResponse{data=dto.ActivityResponse}
// @Failure 404 {object} dto.ErrorResponse "Activity not found"
// @Router /activities/{id} [get]
func (c *ActivityController) GetActivity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	activity, err := c.activityService.GetActivity(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, activity)
}

// CreateActivity creates an activity
// @Summary Create an activity
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateActivityRequest true "Activity"
// @Success 201 {object} dto.APIResponse{data=dto.ActivityResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /activities [post]
func (c *ActivityController) CreateActivity(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	var req dto.CreateActivityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	activity, err := c.activityService.CreateActivity(ctx.Request.Context(), caller, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, activity)
}

// UpdateActivity updates an activity
// @Summary Update an activity
// @Description Capacity may not drop below the number of registrations. Raising it promotes from the waitlist.
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Param request body dto.UpdateActivityRequest true "Activity"
// @Success 200 {object} dto.APIResponse{data=dto.ActivityResponse}
// @Router /activities/{id} [put]
func (c *ActivityController) UpdateActivity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	var req dto.UpdateActivityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	activity, err := c.activityService.UpdateActivity(ctx.Request.Context(), caller, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, activity)
}
