// Package sweeper reclaims slots held by PENDING reservations whose payment
// deadline has passed.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"slotbook/clock"
	reservationRepo "slotbook/database/repository/reservation"
	"slotbook/models"
	"slotbook/services/notification"
)

const (
	DefaultInterval  = 30 * time.Second
	DefaultBatchSize = 100
)

type Options struct {
	Interval  time.Duration
	BatchSize int
	Locker    Locker
	Publisher notification.Publisher
}

type Sweeper struct {
	repo      reservationRepo.ReservationRepository
	clock     clock.Clock
	logger    *zap.Logger
	locker    Locker
	publisher notification.Publisher
	interval  time.Duration
	batchSize int
}

func New(repo reservationRepo.ReservationRepository, clk clock.Clock, logger *zap.Logger, opts Options) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Locker == nil {
		opts.Locker = NoopLocker{}
	}
	if opts.Publisher == nil {
		opts.Publisher = notification.Discard
	}
	return &Sweeper{
		repo:      repo,
		clock:     clk,
		logger:    logger,
		locker:    opts.Locker,
		publisher: opts.Publisher,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A failed sweep is logged and the loop carries on.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Expiry sweeper started", zap.Duration("interval", s.interval))
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Expiry sweep failed", zap.Error(err))
	}
}

// SweepOnce deletes every PENDING reservation past its deadline, up to the
// batch size, and reports how many it removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ok, err := s.locker.TryLock(ctx, s.interval)
	if err != nil {
		return 0, err
	}
	if !ok {
		s.logger.Debug("Another instance holds the sweeper lock")
		return 0, nil
	}
	defer func() {
		// Released on a fresh context so a cancelled sweep still frees the lease.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.locker.Unlock(unlockCtx); err != nil {
			s.logger.Warn("Failed to release sweeper lock", zap.Error(err))
		}
	}()

	now := s.clock.Now()
	expired, err := s.repo.ListExpired(ctx, now, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired reservations: %w", err)
	}

	removed := 0
	for i := range expired {
		deleted, err := s.Expire(ctx, &expired[i])
		if err != nil {
			s.logger.Warn("Failed to expire reservation",
				zap.String("reservationId", expired[i].ID),
				zap.Error(err))
			continue
		}
		if deleted {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Expired reservations removed", zap.Int("count", removed))
	}
	return removed, nil
}

// Expire removes r if it is still PENDING and past its deadline. Losing the
// race to a concurrent confirmation is not an error.
func (s *Sweeper) Expire(ctx context.Context, r *models.Reservation) (bool, error) {
	now := s.clock.Now()
	deleted, err := s.repo.DeleteExpired(ctx, r.ID, now)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}
	s.logger.Info("Reservation expired",
		zap.String("reservationId", r.ID),
		zap.String("date", r.Date),
		zap.String("time", r.Time))
	if err := s.publisher.Publish(ctx, models.NewReservationEvent(models.EventReservationExpired, r, now)); err != nil {
		s.logger.Warn("Failed to publish expiry event", zap.String("reservationId", r.ID), zap.Error(err))
	}
	return true, nil
}

// ExpireByID is the entry point for scheduled expiry tasks.
func (s *Sweeper) ExpireByID(ctx context.Context, id string) (bool, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if r == nil {
		return false, nil
	}
	return s.Expire(ctx, r)
}
