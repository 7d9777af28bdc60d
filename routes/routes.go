// Package routes mounts the HTTP surface.
package routes

import (
	"time"

	"stitchtherapy/config"
	"stitchtherapy/handlers"
	"stitchtherapy/middleware"
	"stitchtherapy/models"
	"stitchtherapy/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine with all routes mounted.
func SetupRouter(b *handlers.Bundle) *gin.Engine {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.AppConfig.ClientOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimiter())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, utils.GetHealthStatus())
	})

	api := router.Group("/api")

	// Public surface.
	api.POST("/auth/login", b.Auth.Login)
	api.POST("/auth/register", b.Auth.Register)
	api.GET("/therapists", b.Users.ListTherapists)
	api.GET("/therapists/:id", b.Users.GetTherapist)
	api.GET("/therapists/:id/availability", b.Availability.ListForTherapist)
	api.GET("/therapists/:id/slots", b.Bookings.Slots)
	api.POST("/bookings/guest", b.Bookings.CreateGuest)
	api.POST("/meetings/:roomId/validate", b.Bookings.ValidateToken)

	// Authenticated surface.
	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/auth/me", b.Auth.Me)
		auth.PATCH("/auth/me", b.Auth.UpdateProfile)

		auth.POST("/bookings", b.Bookings.Create)
		auth.GET("/bookings", b.Bookings.List)
		auth.GET("/bookings/clients", b.Bookings.Clients)
		auth.GET("/bookings/:id", b.Bookings.Get)
		auth.POST("/bookings/:id/reschedule", b.Bookings.Reschedule)
		auth.PATCH("/bookings/:id/status", b.Bookings.UpdateStatus)

		staff := auth.Group("")
		staff.Use(middleware.RequireRole(models.RoleTherapist, models.RoleAdmin))
		{
			staff.POST("/bookings/:id/verify-payment", b.Bookings.VerifyPayment)
			staff.PATCH("/bookings/:id/notes", b.Bookings.UpdateNotes)
			staff.POST("/bookings/:id/start-call", b.Bookings.StartCall)
			staff.POST("/bookings/:id/end-call", b.Bookings.EndCall)
			staff.POST("/bookings/:id/mute", b.Bookings.Mute)
			staff.GET("/reports/bookings", b.Bookings.Summary)

			staff.POST("/availability", b.Availability.Create)
			staff.GET("/availability", b.Availability.ListMine)
			staff.PUT("/availability/:id", b.Availability.Update)
			staff.DELETE("/availability/:id", b.Availability.Delete)
		}

		admin := auth.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", b.Admin.ListUsers)
			admin.POST("/users", b.Admin.CreateStaff)
			admin.GET("/settings", b.Admin.GetSettings)
			admin.PUT("/settings", b.Admin.UpdateSettings)
			admin.GET("/webhooks", b.Admin.ListWebhookKeys)
			admin.POST("/webhooks", b.Admin.CreateWebhookKey)
			admin.DELETE("/webhooks/:id", b.Admin.DeleteWebhookKey)
			admin.GET("/audit", b.Admin.AuditLog)
		}
	}

	// Signaling: optional bearer auth, call-link tokens checked inside.
	router.GET("/ws/signaling", middleware.OptionalAuth(), b.Signaling.Connect)

	return router
}
