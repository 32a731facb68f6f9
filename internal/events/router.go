package events

import (
	"thticket/internal/shared/middleware"
	"thticket/internal/users"

	"github.com/gin-gonic/gin"
)

// SetupEventRoutes configures all event-related routes
func SetupEventRoutes(rg *gin.RouterGroup, controller *Controller) {
	events := rg.Group("/events")
	{
		// Public catalog reads
		events.GET("", controller.ListEvents)
		events.GET("/:id", controller.GetEvent)

		// Organizer operations
		protected := events.Group("")
		protected.Use(middleware.JWTAuth(), middleware.RequireRoles(string(users.RoleOrganizer), string(users.RoleAdmin)))
		{
			protected.POST("", controller.CreateEvent)
			protected.POST("/:id/publish", controller.PublishEvent)
			protected.PATCH("/:id/ticket-types/:ticketTypeId", controller.UpdateTicketType)
		}
	}
}
