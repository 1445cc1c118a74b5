package reservationRepo

import (
	"context"
	"time"

	"slotbook/models"
)

// ReservationRepository is the durable record of slot claims.
//
// Implementations must enforce, at the storage layer, that at most one
// PENDING or CONFIRMED reservation exists per (date, time) and that
// transaction ids are unique. Create reports violations as models.ErrConflict.
// Find methods return (nil, nil) when nothing matches.
type ReservationRepository interface {
	ListActiveForDate(ctx context.Context, date string) ([]models.Reservation, error)
	FindActiveForSlot(ctx context.Context, date, slot string) (*models.Reservation, error)
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Reservation, error)
	Create(ctx context.Context, r *models.Reservation) error
	// Transition moves a PENDING reservation to a terminal status and clears its deadline.
	// It fails with models.ErrInvalidTransition when the record is already terminal
	// and models.ErrNotFound when it no longer exists.
	Transition(ctx context.Context, id string, to models.ReservationStatus) (*models.Reservation, error)
	DeleteIfOwnedAndPending(ctx context.Context, id, userID string) error
	// ListExpired returns PENDING reservations whose deadline is at or before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error)
	// DeleteExpired removes the reservation only if it is still PENDING and past its deadline.
	DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

func validateTarget(to models.ReservationStatus) error {
	if !to.IsTerminal() {
		return models.NewValidationError("reservations can only move to CONFIRMED or CANCELLED")
	}
	return nil
}

// classifyMissedWrite explains why a conditional write on id matched nothing.
func classifyMissedWrite(existing *models.Reservation, userID string) error {
	if existing == nil {
		return models.ErrNotFound
	}
	if userID != "" && existing.UserID != userID {
		return models.NewForbiddenError("not authorized to cancel this booking")
	}
	return models.NewInvalidTransitionError("booking is already " + string(existing.Status))
}
