package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slotbook/middleware"
	"slotbook/models"
	"slotbook/services/booking"
)

type BookingHandler struct {
	Service booking.ReservationService
}

func NewBookingHandler(svc booking.ReservationService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// authorize rejects requests whose bearer token names a different user.
func authorize(c *gin.Context, userID string) error {
	authUser, ok := middleware.AuthenticatedUser(c)
	if ok && authUser != userID {
		return models.NewForbiddenError("token does not match userId")
	}
	return nil
}

// GetSlots handles GET /api/bookings/slots?date=YYYY-MM-DD&userId=ID.
func (h *BookingHandler) GetSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, models.NewValidationError("Date query parameter is required"))
		return
	}
	slots, err := h.Service.ListSlots(c.Request.Context(), date, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

type createBookingRequest struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	UserID   string  `json:"userId"`
	Duration int     `json:"duration"`
	Amount   float64 `json:"amount"`
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := authorize(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	logger := getLogger(c)
	logger.Info("Booking requested",
		zap.String("date", req.Date),
		zap.String("time", req.Time),
		zap.String("userId", req.UserID))

	res, err := h.Service.CreateReservation(c.Request.Context(), models.CreateReservationInput{
		Date:            req.Date,
		Time:            req.Time,
		UserID:          req.UserID,
		DurationMinutes: req.Duration,
		Amount:          req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// CancelBooking handles DELETE /api/bookings/:id. The userId comes from the
// JSON body or, for clients that cannot send one, the query string.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var body struct {
		UserID string `json:"userId"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, models.NewValidationError("invalid request body: "+err.Error()))
			return
		}
	}
	userID := body.UserID
	if userID == "" {
		userID = c.Query("userId")
	}
	if userID == "" {
		respondError(c, models.NewValidationError("userId is required to cancel"))
		return
	}
	if err := authorize(c, userID); err != nil {
		respondError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.Service.CancelReservation(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Booking cancelled", zap.String("reservationId", id))
	c.JSON(http.StatusOK, gin.H{"message": "Booking removed"})
}
