package booking

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"slotbook/models"
)

func (s *DefaultReservationService) resolve(ctx context.Context, lookup Lookup) (*models.Reservation, error) {
	var (
		r   *models.Reservation
		err error
	)
	switch {
	case lookup.ID != "":
		r, err = s.repo.FindByID(ctx, lookup.ID)
	case lookup.TransactionID != "":
		r, err = s.repo.FindByTransactionID(ctx, lookup.TransactionID)
	default:
		return nil, models.NewValidationError("booking id or transaction id is required")
	}
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, models.ErrNotFound
	}
	return r, nil
}

// Reconcile asks the gateway for the payment outcome and applies it. Callback
// and poll paths share it; repeated or concurrent calls converge on the same
// terminal status.
func (s *DefaultReservationService) Reconcile(ctx context.Context, lookup Lookup) (*models.ReconcileResult, error) {
	r, err := s.resolve(ctx, lookup)
	if err != nil {
		return nil, err
	}
	if r.TransactionID == "" {
		return nil, models.NewValidationError("booking has no payment transaction")
	}

	v, err := s.gateway.Verify(ctx, r.TransactionID)
	if err != nil {
		s.logger.Warn("Payment verification failed",
			zap.String("reservationId", r.ID),
			zap.String("orderId", r.TransactionID),
			zap.Error(err))
		return nil, asGatewayError("could not verify payment", err)
	}

	var target models.ReservationStatus
	switch v.Status {
	case models.PaymentSuccess:
		target = models.StatusConfirmed
	case models.PaymentFailed:
		target = models.StatusCancelled
	case models.PaymentPending:
		return &models.ReconcileResult{Status: r.Status, PaymentStatus: v.Status, Reservation: r}, nil
	default:
		return nil, models.NewGatewayError("unexpected payment status "+string(v.Status), nil)
	}

	if r.Status.IsTerminal() {
		return &models.ReconcileResult{Status: r.Status, PaymentStatus: v.Status, Reservation: r}, nil
	}

	updated, err := s.repo.Transition(ctx, r.ID, target)
	switch {
	case err == nil:
		s.logger.Info("Reservation reconciled",
			zap.String("reservationId", updated.ID),
			zap.String("orderId", updated.TransactionID),
			zap.String("status", string(updated.Status)))
		if updated.Status == models.StatusConfirmed {
			s.publish(ctx, models.EventReservationConfirmed, updated)
		} else {
			s.publish(ctx, models.EventReservationCancelled, updated)
		}
		return &models.ReconcileResult{Status: updated.Status, PaymentStatus: v.Status, Reservation: updated}, nil

	case errors.Is(err, models.ErrInvalidTransition):
		// Another reconcile got there first.
		current, ferr := s.repo.FindByID(ctx, r.ID)
		if ferr != nil {
			return nil, ferr
		}
		if current == nil {
			return nil, models.ErrNotFound
		}
		return &models.ReconcileResult{Status: current.Status, PaymentStatus: v.Status, Reservation: current}, nil

	default:
		// ErrNotFound here means the sweeper or the owner removed it meanwhile.
		return nil, err
	}
}
