package models

import "time"

// ReservationEventType doubles as the routing key for published lifecycle events.
type ReservationEventType string

const (
	EventReservationCreated   ReservationEventType = "reservation.created"
	EventReservationConfirmed ReservationEventType = "reservation.confirmed"
	EventReservationCancelled ReservationEventType = "reservation.cancelled"
	EventReservationDeleted   ReservationEventType = "reservation.deleted"
	EventReservationExpired   ReservationEventType = "reservation.expired"
)

type ReservationEvent struct {
	Type          ReservationEventType `json:"type"`
	ReservationID string               `json:"reservationId"`
	UserID        string               `json:"userId,omitempty"`
	Date          string               `json:"date,omitempty"`
	Time          string               `json:"time,omitempty"`
	TransactionID string               `json:"transactionId,omitempty"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// NewReservationEvent snapshots the reservation fields relevant to subscribers.
func NewReservationEvent(t ReservationEventType, r *Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID,
		UserID:        r.UserID,
		Date:          r.Date,
		Time:          r.Time,
		TransactionID: r.TransactionID,
		OccurredAt:    at,
	}
}

// ExpiryPayload is the body of a scheduled reservation expiry task.
type ExpiryPayload struct {
	ReservationID string    `json:"reservationId"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
