package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slotbook/models"
	"slotbook/services/calendar"
	"slotbook/services/payment"
)

func (s *DefaultReservationService) validateCreate(in *models.CreateReservationInput) error {
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.UserID = strings.TrimSpace(in.UserID)

	if in.Date == "" || in.Time == "" || in.UserID == "" {
		return models.NewValidationError("date, time, userId and duration are required")
	}
	if _, err := calendar.ParseDate(in.Date); err != nil {
		return models.NewValidationError(err.Error())
	}
	if !calendar.IsSlot(in.Time) {
		return models.NewValidationError("time must be one of the hourly slots between 09:00 and 16:00")
	}
	if in.DurationMinutes <= 0 {
		return models.NewValidationError("duration must be a positive number of minutes")
	}
	if in.Amount == 0 {
		in.Amount = s.defaultAmount
	}
	if in.Amount <= 0 {
		return models.NewValidationError("amount must be positive")
	}
	return nil
}

// CreateReservation claims a slot behind a fresh payment attempt. Nothing is
// persisted unless the gateway accepted the payment request, and the store's
// active-slot constraint decides races that slip past the advisory check.
func (s *DefaultReservationService) CreateReservation(ctx context.Context, in models.CreateReservationInput) (*models.CreateReservationResult, error) {
	if err := s.validateCreate(&in); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActiveForSlot(ctx, in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.IsExpired(s.clock.Now()) {
			return nil, models.ErrConflict
		}
		// Lapsed hold the sweeper has not reached yet.
		if _, err := s.repo.DeleteExpired(ctx, existing.ID, s.clock.Now()); err != nil {
			return nil, err
		}
	}

	orderID, err := payment.NewOrderID(s.clock.Now())
	if err != nil {
		return nil, err
	}

	init, err := s.gateway.Initiate(ctx, models.PaymentRequest{OrderID: orderID, UserID: in.UserID, Amount: in.Amount})
	if err != nil {
		s.logger.Warn("Payment initiation failed",
			zap.String("orderId", orderID),
			zap.String("date", in.Date),
			zap.String("time", in.Time),
			zap.Error(err))
		return nil, asGatewayError("could not initiate payment", err)
	}

	expiresAt := init.ExpiresAt.UTC()
	res := &models.Reservation{
		ID:              uuid.New().String(),
		UserID:          in.UserID,
		Date:            in.Date,
		Time:            in.Time,
		DurationMinutes: in.DurationMinutes,
		Status:          models.StatusPending,
		TransactionID:   orderID,
		Amount:          in.Amount,
		ExpiresAt:       &expiresAt,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.repo.Create(ctx, res); err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("Lost race for slot",
				zap.String("date", in.Date),
				zap.String("time", in.Time),
				zap.String("orderId", orderID))
		}
		return nil, err
	}

	s.logger.Info("Reservation created",
		zap.String("reservationId", res.ID),
		zap.String("userId", res.UserID),
		zap.String("date", res.Date),
		zap.String("time", res.Time),
		zap.String("orderId", orderID),
		zap.Time("expiresAt", expiresAt))

	if s.expiry != nil {
		if err := s.expiry.ScheduleExpiry(ctx, res); err != nil {
			s.logger.Warn("Failed to schedule reservation expiry", zap.String("reservationId", res.ID), zap.Error(err))
		}
	}
	s.publish(ctx, models.EventReservationCreated, res)

	return &models.CreateReservationResult{Reservation: res, PaymentURL: init.RedirectURL}, nil
}

func asGatewayError(msg string, err error) error {
	if errors.Is(err, models.ErrGateway) {
		return err
	}
	return models.NewGatewayError(msg, err)
}
