package cmd

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"slotbook/clock"
	"slotbook/config"
	"slotbook/cron"
	"slotbook/database"
	reservationRepo "slotbook/database/repository/reservation"
	"slotbook/services/booking"
	"slotbook/services/notification"
	"slotbook/services/payment"
	"slotbook/services/sweeper"
	"slotbook/services/tasks"
	"slotbook/utils"
)

// app is the wired dependency graph shared by the subcommands.
type app struct {
	logger  *zap.Logger
	clock   clock.Clock
	repo    reservationRepo.ReservationRepository
	sandbox *payment.SandboxGateway
	service *booking.DefaultReservationService
	sweeper *sweeper.Sweeper

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func loadConfig() (*zap.Logger, error) {
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	return utils.GetLogger(), nil
}

func openStore(ctx context.Context, logger *zap.Logger) (reservationRepo.ReservationRepository, error) {
	switch config.AppConfig.StoreDriver {
	case config.StoreMongo:
		db, err := database.InitDB(logger)
		if err != nil {
			return nil, err
		}
		return reservationRepo.NewMongoReservationRepo(db), nil
	case config.StorePostgres:
		pool, err := database.InitPostgres(logger)
		if err != nil {
			return nil, err
		}
		return reservationRepo.NewPostgresReservationRepo(pool), nil
	case config.StoreMemory:
		logger.Warn("Using the in-memory store; reservations will not survive a restart")
		return reservationRepo.NewMemoryReservationRepo(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", config.AppConfig.StoreDriver)
	}
}

func buildApp(ctx context.Context) (*app, error) {
	logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg := config.AppConfig
	a := &app{logger: logger, clock: clock.NewSystem()}

	repo, err := openStore(ctx, logger)
	if err != nil {
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, func() { database.Close(context.Background()) })

	if cfg.RedisEnabled {
		if err := utils.InitRedis(); err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, utils.CloseRedis)
	}

	var gateway payment.Gateway
	switch cfg.PaymentProvider {
	case config.PaymentStripe:
		var index payment.SessionIndex = payment.NewMemorySessionIndex()
		if cfg.RedisEnabled {
			index = payment.NewRedisSessionIndex(utils.CacheClient)
		}
		gateway = payment.NewStripeGateway(payment.StripeConfig{
			Key:           cfg.StripeKey,
			Currency:      cfg.PaymentCurrency,
			PublicBaseURL: cfg.PublicBaseURL,
		}, index, a.clock, logger)
	default:
		a.sandbox = payment.NewSandboxGateway(logger, a.clock, cfg.PaymentWindow, cfg.PublicBaseURL)
		gateway = a.sandbox
	}
	gateway = payment.NewBreakerGateway(gateway, cfg.PaymentTimeout, logger)

	publishers := notification.Multi{notification.NewLogPublisher(logger)}
	if cfg.RabbitMQURL != "" {
		rabbit, err := notification.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			logger.Warn("Lifecycle events will only be logged", zap.Error(err))
		} else {
			publishers = append(publishers, rabbit)
			a.closers = append(a.closers, func() { _ = rabbit.Close() })
		}
	}

	opts := []booking.Option{
		booking.WithPublisher(publishers),
		booking.WithDefaultAmount(cfg.DefaultAmount),
	}
	if cfg.RedisEnabled {
		scheduler := tasks.NewExpiryScheduler(asynq.NewClient(cron.RedisOpt()), logger)
		opts = append(opts, booking.WithExpiryScheduler(scheduler))
		a.closers = append(a.closers, func() { _ = scheduler.Close() })
	}
	a.service = booking.NewDefaultReservationService(repo, gateway, a.clock, logger, opts...)

	sweepOpts := sweeper.Options{
		Interval:  cfg.SweepInterval,
		BatchSize: cfg.SweepBatchSize,
		Publisher: publishers,
	}
	if cfg.RedisEnabled {
		sweepOpts.Locker = sweeper.NewRedisLocker(utils.LockClient)
	}
	a.sweeper = sweeper.New(repo, a.clock, logger, sweepOpts)

	a.closers = append(a.closers, func() { _ = logger.Sync() })
	return a, nil
}
