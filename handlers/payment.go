package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slotbook/models"
	"slotbook/services/booking"
	"slotbook/services/payment"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the payment outcome pages for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type PaymentHandler struct {
	Service booking.ReservationService
	// Sandbox is set only when the in-process provider is active.
	Sandbox *payment.SandboxGateway
}

func NewPaymentHandler(svc booking.ReservationService, sandbox *payment.SandboxGateway) *PaymentHandler {
	return &PaymentHandler{Service: svc, Sandbox: sandbox}
}

// Callback handles the gateway redirect at /api/payments/callback/:transactionId
// and renders the outcome for the payer's browser. The page is always sent
// with 200; check-status carries the error codes.
func (h *PaymentHandler) Callback(c *gin.Context) {
	txn := c.Param("transactionId")
	logger := getLogger(c).With(zap.String("orderId", txn))
	logger.Info("Payment callback received")

	res, err := h.Service.Reconcile(c.Request.Context(), booking.ByTransactionID(txn))
	if err != nil {
		logger.Warn("Payment callback could not be reconciled", zap.Error(err))
		c.HTML(http.StatusOK, "unknown.html", gin.H{
			"Title":   "Payment Status Unknown",
			"Message": "We could not verify your payment status.",
		})
		return
	}

	switch res.Status {
	case models.StatusConfirmed:
		c.HTML(http.StatusOK, "success.html", nil)
	case models.StatusPending:
		c.HTML(http.StatusOK, "pending.html", nil)
	default:
		c.HTML(http.StatusOK, "failed.html", nil)
	}
}

// CheckStatus handles GET /api/payments/check-status/:bookingId.
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	res, err := h.Service.Reconcile(c.Request.Context(), booking.ByID(c.Param("bookingId")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SandboxSettle handles POST /api/payments/sandbox/:orderId with
// {"status": "SUCCESS"|"FAILED"}, standing in for the payer on the hosted page.
func (h *PaymentHandler) SandboxSettle(c *gin.Context) {
	if h.Sandbox == nil {
		respondError(c, models.NewNotFoundError("sandbox payments are disabled"))
		return
	}
	var body struct {
		Status models.PaymentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, models.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	orderID := c.Param("orderId")
	if err := h.Sandbox.Complete(orderID, body.Status); err != nil {
		if !errors.As(err, new(*models.BookingError)) {
			err = models.NewGatewayError("sandbox settlement failed", err)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": orderID, "status": body.Status})
}
