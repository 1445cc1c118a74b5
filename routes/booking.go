package routes

import (
	"github.com/gin-gonic/gin"

	"slotbook/handlers"
	"slotbook/middleware"
)

// RegisterBookingRoutes registers the slot board and reservation endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookings := r.Group("/api/bookings")
	{
		bookings.GET("/slots", hb.GetSlots)

		protected := bookings.Group("")
		if len(hb.JWTSecret) > 0 {
			protected.Use(middleware.JWTAuthMiddleware(hb.JWTSecret))
		}
		protected.POST("", hb.CreateBooking)
		protected.DELETE("/:id", hb.CancelBooking)
	}
}

// RegisterPaymentRoutes registers the gateway callback and status polling endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	payments := r.Group("/api/payments")
	{
		payments.GET("/callback/:transactionId", hb.PaymentCallback)
		payments.POST("/callback/:transactionId", hb.PaymentCallback)
		payments.GET("/check-status/:bookingId", hb.CheckStatus)
		if hb.SandboxEnabled {
			payments.POST("/sandbox/:orderId", hb.SandboxSettle)
		}
	}
}
