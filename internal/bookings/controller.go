package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"thticket/internal/shared/middleware"
	"thticket/internal/shared/utils/response"
	"thticket/internal/users"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrTicketTypeNotFound):
			response.Error(ctx, http.StatusNotFound, "Not found", err.Error())
		default:
			response.Error(ctx, http.StatusInternalServerError, "Failed to create booking", nil)
		}
		return
	}

	response.Success(ctx, http.StatusCreated, "Booking created successfully", booking)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	bookingID, err := parseID(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			response.Error(ctx, http.StatusNotFound, "Booking not found", nil)
			return
		}
		response.Error(ctx, http.StatusInternalServerError, "Failed to get booking", nil)
		return
	}

	// Non-admin users can only see their own bookings
	role, _ := ctx.Get("user_role")
	if role != string(users.RoleAdmin) && booking.UserID != userID {
		response.Error(ctx, http.StatusForbidden, "Access denied", nil)
		return
	}

	response.Success(ctx, http.StatusOK, "Booking retrieved successfully", booking.ToResponse())
}

// GetUserBookings handles GET /api/v1/users/bookings
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit < 0 {
		limit = 10
	}

	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	bookings, err := c.service.GetUserBookings(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to get user bookings", nil)
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, bookings[i].ToResponse())
	}

	response.Success(ctx, http.StatusOK, "Bookings retrieved successfully", gin.H{
		"bookings": responses,
		"count":    len(responses),
		"limit":    limit,
		"offset":   offset,
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	bookingID, err := parseID(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req CancelBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	err = c.service.CancelBooking(ctx.Request.Context(), bookingID, userID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			response.Error(ctx, http.StatusNotFound, "Booking not found", nil)
		case errors.Is(err, ErrForbidden):
			response.Error(ctx, http.StatusForbidden, "Access denied", nil)
		case errors.Is(err, ErrInvalidState):
			response.Error(ctx, http.StatusConflict, "Only confirmed bookings can be cancelled", nil)
		default:
			response.Error(ctx, http.StatusInternalServerError, "Failed to cancel booking", nil)
		}
		return
	}

	response.Success(ctx, http.StatusOK, "Booking cancelled successfully", nil)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
