package models

import "time"

// PaymentStatus is the gateway's view of an order.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentPending PaymentStatus = "PENDING"
)

// PaymentRequest is what the lifecycle manager hands the gateway to open a payment attempt.
type PaymentRequest struct {
	OrderID string
	UserID  string
	Amount  float64
}

// PaymentInitiation is the gateway's answer to a payment request.
type PaymentInitiation struct {
	RedirectURL string
	ExpiresAt   time.Time
}

// PaymentVerification is the gateway's answer to a status check.
type PaymentVerification struct {
	OrderID string
	Status  PaymentStatus
}
