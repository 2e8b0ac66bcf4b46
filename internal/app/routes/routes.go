package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samenactief/backend/internal/app/controllers"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth     *controllers.AuthController
	User     *controllers.UserController
	Activity *controllers.ActivityController
	Ledger   *controllers.LedgerController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	middleware.RegisterValidators()

	// Liveness probe, outside the API version
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
	}

	activities := v1.Group("/activities")
	{
		activities.GET("", c.Activity.ListActivities)
		activities.GET("/:id", c.Activity.GetActivity)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		users := authenticated.Group("/users/me")
		{
			users.GET("", c.User.GetProfile)
			users.PUT("", c.User.UpdateProfile)
			users.GET("/reminders", c.User.ListReminders)
		}
		authenticated.PATCH("/reminders/:id/read", c.User.MarkReminderRead)

		ledger := authenticated.Group("/activities/:id")
		{
			ledger.POST("/register", c.Ledger.Register)
			ledger.DELETE("/register", c.Ledger.Cancel)
			ledger.POST("/waitlist", c.Ledger.JoinWaitlist)
			ledger.DELETE("/waitlist", c.Ledger.LeaveWaitlist)
			ledger.GET("/waitlist", c.Ledger.ListWaitlist)
			ledger.GET("/waitlist/position", c.Ledger.WaitlistPosition)
			ledger.GET("/registrations", c.Ledger.ListRegistrations)
			ledger.GET("/attendees/count", c.Ledger.AttendeeCount)
		}

		// Center and platform admins; which center is checked per activity
		admin := authenticated.Group("/activities")
		admin.Use(authMiddleware.RoleRequired(models.RoleCenterAdmin, models.RolePlatformAdmin))
		{
			admin.POST("", c.Activity.CreateActivity)
			admin.PUT("/:id", c.Activity.UpdateActivity)
		}
	}
}
