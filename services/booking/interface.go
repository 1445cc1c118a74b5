// Package booking owns the reservation lifecycle: claiming a slot behind a
// payment attempt, reconciling it against the gateway, and reporting the
// slot board.
package booking

import (
	"context"

	"go.uber.org/zap"

	"slotbook/clock"
	reservationRepo "slotbook/database/repository/reservation"
	"slotbook/models"
	"slotbook/services/notification"
	"slotbook/services/payment"
)

// ReservationService is the lifecycle manager used by handlers and the CLI.
type ReservationService interface {
	CreateReservation(ctx context.Context, in models.CreateReservationInput) (*models.CreateReservationResult, error)
	Reconcile(ctx context.Context, lookup Lookup) (*models.ReconcileResult, error)
	CancelReservation(ctx context.Context, id, userID string) error
	ListSlots(ctx context.Context, date, userID string) ([]models.SlotView, error)
}

// ExpiryScheduler arranges for a PENDING reservation to be reclaimed at its
// deadline. The sweeper stays the backstop when scheduling fails.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, r *models.Reservation) error
}

// Lookup selects a reservation for Reconcile by exactly one of its keys.
type Lookup struct {
	ID            string
	TransactionID string
}

func ByID(id string) Lookup { return Lookup{ID: id} }

func ByTransactionID(transactionID string) Lookup { return Lookup{TransactionID: transactionID} }

// DefaultReservationService implements ReservationService.
type DefaultReservationService struct {
	repo          reservationRepo.ReservationRepository
	gateway       payment.Gateway
	clock         clock.Clock
	logger        *zap.Logger
	publisher     notification.Publisher
	expiry        ExpiryScheduler
	defaultAmount float64
}

type Option func(*DefaultReservationService)

// WithPublisher sends lifecycle events to p.
func WithPublisher(p notification.Publisher) Option {
	return func(s *DefaultReservationService) { s.publisher = p }
}

// WithExpiryScheduler schedules a precise expiry for every new reservation.
func WithExpiryScheduler(e ExpiryScheduler) Option {
	return func(s *DefaultReservationService) { s.expiry = e }
}

// WithDefaultAmount sets the amount charged when a request omits it.
func WithDefaultAmount(amount float64) Option {
	return func(s *DefaultReservationService) { s.defaultAmount = amount }
}

func NewDefaultReservationService(
	repo reservationRepo.ReservationRepository,
	gateway payment.Gateway,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...Option,
) *DefaultReservationService {
	s := &DefaultReservationService{
		repo:          repo,
		gateway:       gateway,
		clock:         clk,
		logger:        logger,
		publisher:     notification.Discard,
		defaultAmount: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DefaultReservationService) publish(ctx context.Context, t models.ReservationEventType, r *models.Reservation) {
	event := models.NewReservationEvent(t, r, s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish reservation event",
			zap.String("type", string(t)),
			zap.String("reservationId", r.ID),
			zap.Error(err))
	}
}
