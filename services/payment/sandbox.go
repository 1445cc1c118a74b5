package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"slotbook/clock"
	"slotbook/models"
)

// SandboxGateway simulates a hosted payment page in process. Orders stay
// PENDING until Complete settles them.
type SandboxGateway struct {
	logger  *zap.Logger
	clock   clock.Clock
	window  time.Duration
	baseURL string

	mu     sync.RWMutex
	orders map[string]*sandboxOrder
}

type sandboxOrder struct {
	userID    string
	amount    float64
	status    models.PaymentStatus
	expiresAt time.Time
}

func NewSandboxGateway(logger *zap.Logger, clk clock.Clock, window time.Duration, baseURL string) *SandboxGateway {
	return &SandboxGateway{
		logger:  logger,
		clock:   clk,
		window:  window,
		baseURL: strings.TrimRight(baseURL, "/"),
		orders:  make(map[string]*sandboxOrder),
	}
}

func (g *SandboxGateway) Initiate(_ context.Context, req models.PaymentRequest) (*models.PaymentInitiation, error) {
	if req.OrderID == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("sandbox: invalid payment request for order %q", req.OrderID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.orders[req.OrderID]; exists {
		return nil, fmt.Errorf("sandbox: order %s already initiated", req.OrderID)
	}
	expiresAt := g.clock.Now().Add(g.window)
	g.orders[req.OrderID] = &sandboxOrder{
		userID:    req.UserID,
		amount:    req.Amount,
		status:    models.PaymentPending,
		expiresAt: expiresAt,
	}

	g.logger.Info("Sandbox payment initiated",
		zap.String("orderId", req.OrderID),
		zap.Float64("amount", req.Amount),
		zap.Time("expiresAt", expiresAt))

	return &models.PaymentInitiation{
		RedirectURL: fmt.Sprintf("%s/api/payments/sandbox/%s", g.baseURL, req.OrderID),
		ExpiresAt:   expiresAt,
	}, nil
}

func (g *SandboxGateway) Verify(_ context.Context, orderID string) (*models.PaymentVerification, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	order, ok := g.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown order %s", orderID)
	}
	return &models.PaymentVerification{OrderID: orderID, Status: order.status}, nil
}

// Complete settles a pending order. Settling an already settled order to the
// same status is accepted; flipping a settled order is not.
func (g *SandboxGateway) Complete(orderID string, status models.PaymentStatus) error {
	if status != models.PaymentSuccess && status != models.PaymentFailed {
		return models.NewValidationError("status must be SUCCESS or FAILED")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return models.NewNotFoundError("unknown order " + orderID)
	}
	if order.status != models.PaymentPending && order.status != status {
		return models.NewInvalidTransitionError("order already " + string(order.status))
	}
	order.status = status
	g.logger.Info("Sandbox payment settled", zap.String("orderId", orderID), zap.String("status", string(status)))
	return nil
}
