package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"slotbook/models"
)

// BreakerGateway bounds every gateway call with a deadline and a circuit
// breaker, and normalises every failure into models.ErrGateway.
type BreakerGateway struct {
	next    Gateway
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewBreakerGateway(next Gateway, timeout time.Duration, logger *zap.Logger) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerGateway{
		next:    next,
		timeout: timeout,
		cb:      gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (b *BreakerGateway) Initiate(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitiation, error) {
	out, err := b.call(ctx, func(ctx context.Context) (interface{}, error) {
		init, err := b.next.Initiate(ctx, req)
		if err != nil {
			return nil, err
		}
		if init == nil || init.RedirectURL == "" || init.ExpiresAt.IsZero() {
			return nil, errors.New("gateway returned an incomplete payment initiation")
		}
		return init, nil
	})
	if err != nil {
		return nil, models.NewGatewayError("could not initiate payment", err)
	}
	return out.(*models.PaymentInitiation), nil
}

func (b *BreakerGateway) Verify(ctx context.Context, orderID string) (*models.PaymentVerification, error) {
	out, err := b.call(ctx, func(ctx context.Context) (interface{}, error) {
		v, err := b.next.Verify(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if v == nil || !validStatus(v.Status) {
			return nil, errors.New("gateway returned an unexpected payment status")
		}
		return v, nil
	})
	if err != nil {
		return nil, models.NewGatewayError("could not verify payment", err)
	}
	return out.(*models.PaymentVerification), nil
}

func (b *BreakerGateway) call(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := b.cb.Execute(func() (interface{}, error) {
		type result struct {
			v   interface{}
			err error
		}
		done := make(chan result, 1)
		go func() {
			v, err := fn(ctx)
			done <- result{v, err}
		}()
		select {
		case r := <-done:
			return r.v, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		b.logger.Warn("Payment gateway call failed", zap.Error(err))
	}
	return out, err
}
