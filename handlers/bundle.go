package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// JWTSecret, when set, guards the mutating booking routes.
	JWTSecret []byte
	// SandboxEnabled exposes the sandbox settlement route.
	SandboxEnabled bool

	// Booking endpoints
	GetSlots      gin.HandlerFunc
	CreateBooking gin.HandlerFunc
	CancelBooking gin.HandlerFunc

	// Payment endpoints
	PaymentCallback gin.HandlerFunc
	CheckStatus     gin.HandlerFunc
	SandboxSettle   gin.HandlerFunc

	Health gin.HandlerFunc
}

// NewHandlerBundle wires the booking and payment handlers into a bundle.
func NewHandlerBundle(b *BookingHandler, p *PaymentHandler, jwtSecret []byte) *HandlerBundle {
	return &HandlerBundle{
		JWTSecret:       jwtSecret,
		SandboxEnabled:  p.Sandbox != nil,
		GetSlots:        b.GetSlots,
		CreateBooking:   b.CreateBooking,
		CancelBooking:   b.CancelBooking,
		PaymentCallback: p.Callback,
		CheckStatus:     p.CheckStatus,
		SandboxSettle:   p.SandboxSettle,
		Health:          Health,
	}
}
