package notification

import (
	"context"

	"go.uber.org/zap"

	"slotbook/models"
)

// LogPublisher writes events to the application log.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event models.ReservationEvent) error {
	p.logger.Info("Reservation event",
		zap.String("type", string(event.Type)),
		zap.String("reservationId", event.ReservationID),
		zap.String("userId", event.UserID),
		zap.String("date", event.Date),
		zap.String("time", event.Time),
		zap.String("transactionId", event.TransactionID),
		zap.Time("occurredAt", event.OccurredAt))
	return nil
}
