package booking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"slotbook/models"
)

// CancelReservation deletes the caller's own reservation while it is still
// PENDING. Confirmed bookings cannot be cancelled here.
func (s *DefaultReservationService) CancelReservation(ctx context.Context, id, userID string) error {
	id = strings.TrimSpace(id)
	userID = strings.TrimSpace(userID)
	if id == "" || userID == "" {
		return models.NewValidationError("booking id and userId are required")
	}

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return models.ErrNotFound
	}

	if err := s.repo.DeleteIfOwnedAndPending(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("Reservation cancelled by owner",
		zap.String("reservationId", id),
		zap.String("userId", userID))
	s.publish(ctx, models.EventReservationDeleted, r)
	return nil
}
