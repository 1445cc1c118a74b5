package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"slotbook/config"
	"slotbook/services/tasks"
)

// Expirer removes a reservation once it is PENDING past its deadline.
type Expirer interface {
	ExpireByID(ctx context.Context, id string) (bool, error)
}

// RedisOpt points asynq at the expiry queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisExpiryQueueDB,
	}
}

// RunExpiryWorker serves scheduled expiries until ctx is done and returns once
// the asynq server has shut down.
func RunExpiryWorker(ctx context.Context, expirer Expirer, logger *zap.Logger) error {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger:   logger.Sugar().Named("asynq"),
			LogLevel: asynq.WarnLevel,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReservationExpire, handleExpiryTask(expirer, logger))

	const maxAttempts = 5
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = srv.Start(mux); err == nil {
			break
		}
		logger.Warn("Expiry worker failed to start",
			zap.Int("attempt", attempts),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err))
		if attempts == maxAttempts {
			return fmt.Errorf("expiry worker: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts*2) * time.Second):
		}
	}
	logger.Info("Expiry worker started")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info("Expiry worker stopped")
	return nil
}

func handleExpiryTask(expirer Expirer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseExpiryTask(task)
		if err != nil {
			logger.Error("Dropping malformed expiry task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		deleted, err := expirer.ExpireByID(ctx, p.ReservationID)
		if err != nil {
			logger.Warn("Scheduled expiry failed", zap.String("reservationId", p.ReservationID), zap.Error(err))
			return err
		}
		if !deleted {
			logger.Debug("Scheduled expiry was a no-op", zap.String("reservationId", p.ReservationID))
		}
		return nil
	}
}
