package payments

import (
	"errors"
	"net/http"
	"strconv"

	"thticket/internal/bookings"
	"thticket/internal/inventory"
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

// callbackPayload mirrors the gateway webhook envelope. Only the order code
// is trusted; everything else is re-read from our own records.
type callbackPayload struct {
	Data struct {
		OrderCode int64 `json:"orderCode"`
	} `json:"data"`
}

// Initiate handles POST /api/v1/payments/initiate
func (c *Controller) Initiate(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req InitiateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := c.service.Initiate(ctx.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			response.Error(ctx, http.StatusNotFound, "Booking not found", nil)
		case errors.Is(err, inventory.ErrTicketTypeNotFound):
			response.Error(ctx, http.StatusNotFound, "Ticket type not found", nil)
		case errors.Is(err, ErrForbidden):
			response.Error(ctx, http.StatusForbidden, "Booking belongs to another user", nil)
		case errors.Is(err, ErrInvalidState):
			response.Error(ctx, http.StatusConflict, "Booking cannot be paid in its current state", nil)
		case errors.Is(err, ErrEmptyLines), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrAmountMismatch):
			response.Error(ctx, http.StatusBadRequest, "Invalid payment request", err.Error())
		case inventory.IsInsufficientStock(err):
			response.Error(ctx, http.StatusConflict, "Not enough tickets available", err.Error())
		default:
			response.Error(ctx, http.StatusInternalServerError, "Failed to initiate payment", nil)
		}
		return
	}

	response.Success(ctx, http.StatusCreated, "Checkout session created", session)
}

// SuccessCallback handles POST /api/v1/payments/callback/success. Called by
// the gateway, so there is no user session to authenticate.
func (c *Controller) SuccessCallback(ctx *gin.Context) {
	orderCode, ok := c.extractOrderCode(ctx)
	if !ok {
		return
	}

	result, err := c.service.SettleSuccess(ctx.Request.Context(), orderCode)
	if err != nil {
		c.respondSettlementError(ctx, err)
		return
	}

	response.Success(ctx, http.StatusOK, "Payment settled", result)
}

// FailureCallback handles POST /api/v1/payments/callback/failure
func (c *Controller) FailureCallback(ctx *gin.Context) {
	orderCode, ok := c.extractOrderCode(ctx)
	if !ok {
		return
	}

	result, err := c.service.SettleFailure(ctx.Request.Context(), orderCode)
	if err != nil {
		c.respondSettlementError(ctx, err)
		return
	}

	response.Success(ctx, http.StatusOK, "Payment marked failed", result)
}

// GetPayment handles GET /api/v1/payments/:orderCode
func (c *Controller) GetPayment(ctx *gin.Context) {
	orderCode, err := strconv.ParseInt(ctx.Param("orderCode"), 10, 64)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid order code", nil)
		return
	}

	payment, err := c.service.GetByOrderCode(ctx.Request.Context(), orderCode)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			response.Error(ctx, http.StatusNotFound, "Payment not found", nil)
			return
		}
		response.Error(ctx, http.StatusInternalServerError, "Failed to fetch payment", nil)
		return
	}

	response.Success(ctx, http.StatusOK, "Payment retrieved successfully", payment)
}

// extractOrderCode reads the order code from the webhook body, falling back
// to the orderCode query parameter used by browser redirects.
func (c *Controller) extractOrderCode(ctx *gin.Context) (int64, bool) {
	var payload callbackPayload
	if err := ctx.ShouldBindJSON(&payload); err == nil && payload.Data.OrderCode != 0 {
		return payload.Data.OrderCode, true
	}

	if raw := ctx.Query("orderCode"); raw != "" {
		orderCode, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && orderCode != 0 {
			return orderCode, true
		}
	}

	response.Error(ctx, http.StatusBadRequest, "Missing or invalid order code", nil)
	return 0, false
}

func (c *Controller) respondSettlementError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPaymentNotFound), errors.Is(err, bookings.ErrBookingNotFound):
		response.Error(ctx, http.StatusNotFound, "Payment not found", nil)
	case errors.Is(err, ErrInvalidState):
		response.Error(ctx, http.StatusConflict, "Payment is not in a settleable state", nil)
	case inventory.IsInsufficientStock(err):
		response.Error(ctx, http.StatusConflict, "Tickets sold out before settlement", err.Error())
	default:
		response.Error(ctx, http.StatusInternalServerError, "Failed to process callback", nil)
	}
}
