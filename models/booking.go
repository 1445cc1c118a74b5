package models

import "time"

// ReservationStatus is the lifecycle state of a slot claim.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed}

// IsActive reports whether the status holds the slot.
func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal reports whether no further transition is allowed.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Reservation represents one attempt to claim a slot.
type Reservation struct {
	ID              string            `bson:"id" json:"id"`                                           // UUID assigned at creation
	UserID          string            `bson:"userId" json:"userId"`                                   // owning user
	Date            string            `bson:"date" json:"date"`                                       // "YYYY-MM-DD"
	Time            string            `bson:"time" json:"time"`                                       // slot label, "HH:00"
	DurationMinutes int               `bson:"duration" json:"duration"`                               // informational only
	Status          ReservationStatus `bson:"status" json:"status"`                                   // PENDING, CONFIRMED or CANCELLED
	TransactionID   string            `bson:"transactionId,omitempty" json:"transactionId,omitempty"` // gateway order id
	Amount          float64           `bson:"amount" json:"amount"`
	ExpiresAt       *time.Time        `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"` // set only while PENDING
	CreatedAt       time.Time         `bson:"createdAt" json:"createdAt"`
}

// IsExpired reports whether a PENDING reservation's payment deadline has passed.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == StatusPending && r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// CreateReservationInput carries the fields a caller supplies to claim a slot.
type CreateReservationInput struct {
	Date            string
	Time            string
	UserID          string
	DurationMinutes int
	Amount          float64
}

// CreateReservationResult is returned once a PENDING reservation exists and payment was initiated.
type CreateReservationResult struct {
	Reservation *Reservation `json:"booking"`
	PaymentURL  string       `json:"paymentUrl"`
}

// ReconcileResult reports the reservation state after asking the gateway for ground truth.
type ReconcileResult struct {
	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus"`
	Reservation   *Reservation      `json:"-"`
}
