package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"slotbook/models"
)

const TypeReservationExpire = "reservation:expire"

func NewExpiryTask(payload models.ExpiryPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReservationExpire, b)
	opts := []asynq.Option{
		asynq.ProcessAt(payload.ExpiresAt),
		asynq.TaskID("expire:" + payload.ReservationID),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

func ParseExpiryTask(task *asynq.Task) (models.ExpiryPayload, error) {
	var p models.ExpiryPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid expiry payload: %w", err)
	}
	if p.ReservationID == "" {
		return p, errors.New("invalid expiry payload: missing reservation id")
	}
	return p, nil
}

// ExpiryScheduler enqueues a delayed expiry task for each new PENDING reservation.
type ExpiryScheduler struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewExpiryScheduler(client *asynq.Client, logger *zap.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{client: client, logger: logger}
}

func (s *ExpiryScheduler) ScheduleExpiry(ctx context.Context, r *models.Reservation) error {
	if r.ExpiresAt == nil {
		return nil
	}
	task, opts, err := NewExpiryTask(models.ExpiryPayload{ReservationID: r.ID, ExpiresAt: *r.ExpiresAt})
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue expiry for %s: %w", r.ID, err)
	}
	s.logger.Debug("Expiry task scheduled",
		zap.String("reservationId", r.ID),
		zap.String("taskId", info.ID),
		zap.Time("processAt", info.NextProcessAt))
	return nil
}

func (s *ExpiryScheduler) Close() error {
	return s.client.Close()
}
