// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samenactief/backend/internal/app/auth"
	"github.com/samenactief/backend/internal/app/models/dto"
	"github.com/samenactief/backend/internal/middleware"
)

func badRequest(ctx *gin.Context, message, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithDetails(details)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// parseIDParam reads a positive int64 path parameter
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(ctx, "Invalid "+name, name+" must be a positive number")
		return 0, false
	}
	return id, true
}

// requireCaller returns the authenticated caller or writes a 401
func requireCaller(ctx *gin.Context) (auth.Caller, bool) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
			WithDetails("User information not found")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return auth.Caller{}, false
	}
	return caller, true
}

func respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, dto.NewSuccessResponse(data))
}
