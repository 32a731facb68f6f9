package events

import (
	"errors"
	"net/http"
	"strconv"

	"thticket/internal/shared/middleware"
	"thticket/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateEvent handles POST /api/v1/events
func (c *Controller) CreateEvent(ctx *gin.Context) {
	organizerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	event, err := c.service.CreateEvent(ctx.Request.Context(), organizerID, req)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to create event", nil)
		return
	}

	response.Success(ctx, http.StatusCreated, "Event created successfully", event)
}

// GetEvent handles GET /api/v1/events/:id
func (c *Controller) GetEvent(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid event ID", nil)
		return
	}

	event, err := c.service.GetEventByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.Error(ctx, http.StatusNotFound, "Event not found", nil)
			return
		}
		response.Error(ctx, http.StatusInternalServerError, "Failed to get event", nil)
		return
	}

	response.Success(ctx, http.StatusOK, "Event retrieved successfully", event)
}

// ListEvents handles GET /api/v1/events
func (c *Controller) ListEvents(ctx *gin.Context) {
	var query EventListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	events, err := c.service.GetAllEvents(ctx.Request.Context(), query)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list events", nil)
		return
	}

	response.Success(ctx, http.StatusOK, "Events retrieved successfully", events)
}

// PublishEvent handles POST /api/v1/events/:id/publish
func (c *Controller) PublishEvent(ctx *gin.Context) {
	organizerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	id, err := parseID(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid event ID", nil)
		return
	}

	if err := c.service.PublishEvent(ctx.Request.Context(), id, organizerID); err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.Error(ctx, http.StatusNotFound, "Event not found", nil)
		case errors.Is(err, ErrNotOrganizer):
			response.Error(ctx, http.StatusForbidden, "Access denied", nil)
		default:
			response.Error(ctx, http.StatusInternalServerError, "Failed to publish event", nil)
		}
		return
	}

	response.Success(ctx, http.StatusOK, "Event published successfully", nil)
}

// UpdateTicketType handles PATCH /api/v1/events/:id/ticket-types/:ticketTypeId
func (c *Controller) UpdateTicketType(ctx *gin.Context) {
	organizerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	eventID, err := parseID(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid event ID", nil)
		return
	}

	ticketTypeID, err := parseID(ctx.Param("ticketTypeId"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid ticket type ID", nil)
		return
	}

	var req UpdateTicketTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ticketType, err := c.service.UpdateTicketType(ctx.Request.Context(), eventID, ticketTypeID, organizerID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrTicketTypeNotFound):
			response.Error(ctx, http.StatusNotFound, "Not found", nil)
		case errors.Is(err, ErrNotOrganizer):
			response.Error(ctx, http.StatusForbidden, "Access denied", nil)
		default:
			response.Error(ctx, http.StatusInternalServerError, "Failed to update ticket type", nil)
		}
		return
	}

	response.Success(ctx, http.StatusOK, "Ticket type updated successfully", ticketType)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
