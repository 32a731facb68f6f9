package payments

import (
	"thticket/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures all payment-related routes. Callback routes
// carry no JWT because the gateway calls them directly.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	{
		payments.POST("/callback/success", controller.SuccessCallback) // POST /api/v1/payments/callback/success
		payments.POST("/callback/failure", controller.FailureCallback) // POST /api/v1/payments/callback/failure

		authed := payments.Group("")
		authed.Use(middleware.JWTAuth())
		{
			authed.POST("/initiate", controller.Initiate)    // POST /api/v1/payments/initiate
			authed.GET("/:orderCode", controller.GetPayment) // GET /api/v1/payments/:orderCode
		}
	}
}
