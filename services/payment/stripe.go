package payment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"

	"slotbook/clock"
	"slotbook/models"
)

// Stripe refuses checkout sessions that expire sooner than this.
const stripeMinSessionLifetime = 30 * time.Minute

// sessionRetention keeps the order→session mapping around after the deadline
// so late callbacks and polls can still verify.
const sessionRetention = 24 * time.Hour

type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway drives payments through Stripe Checkout Sessions.
type StripeGateway struct {
	sessions checkoutSessions
	index    SessionIndex
	clock    clock.Clock
	logger   *zap.Logger

	currency    string
	callbackURL string
}

type StripeConfig struct {
	Key           string
	Currency      string
	PublicBaseURL string
}

func NewStripeGateway(cfg StripeConfig, index SessionIndex, clk clock.Clock, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		sessions:    &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.Key},
		index:       index,
		clock:       clk,
		logger:      logger,
		currency:    strings.ToLower(cfg.Currency),
		callbackURL: strings.TrimRight(cfg.PublicBaseURL, "/") + "/api/payments/callback/",
	}
}

func (g *StripeGateway) Initiate(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitiation, error) {
	expiresAt := g.clock.Now().Add(stripeMinSessionLifetime).Truncate(time.Second)
	callback := g.callbackURL + req.OrderID

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderID),
		SuccessURL:        stripe.String(callback),
		CancelURL:         stripe.String(callback),
		ExpiresAt:         stripe.Int64(expiresAt.Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Slot reservation"),
					},
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("user_id", req.UserID)
	params.SetIdempotencyKey(req.OrderID)

	sess, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	if sess.URL == "" {
		return nil, fmt.Errorf("stripe: checkout session %s has no redirect url", sess.ID)
	}
	if sess.ExpiresAt > 0 {
		expiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}

	ttl := expiresAt.Sub(g.clock.Now()) + sessionRetention
	if err := g.index.Put(ctx, req.OrderID, sess.ID, ttl); err != nil {
		return nil, err
	}

	g.logger.Info("Stripe checkout session created",
		zap.String("orderId", req.OrderID),
		zap.String("sessionId", sess.ID),
		zap.Time("expiresAt", expiresAt))

	return &models.PaymentInitiation{RedirectURL: sess.URL, ExpiresAt: expiresAt}, nil
}

func (g *StripeGateway) Verify(ctx context.Context, orderID string) (*models.PaymentVerification, error) {
	sessionID, err := g.index.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("stripe: resolve session for %s: %w", orderID, err)
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: fetch checkout session %s: %w", sessionID, err)
	}
	return &models.PaymentVerification{OrderID: orderID, Status: mapCheckoutStatus(sess)}, nil
}

func mapCheckoutStatus(sess *stripe.CheckoutSession) models.PaymentStatus {
	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return models.PaymentSuccess
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
