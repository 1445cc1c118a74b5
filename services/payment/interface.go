// Package payment is the boundary to the external payment gateway.
package payment

import (
	"context"

	"slotbook/models"
)

// Gateway opens payment attempts and reports their outcome. Verify must be
// idempotent and safe to call concurrently for the same order.
type Gateway interface {
	Initiate(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitiation, error)
	Verify(ctx context.Context, orderID string) (*models.PaymentVerification, error)
}

func validStatus(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentSuccess, models.PaymentFailed, models.PaymentPending:
		return true
	}
	return false
}
