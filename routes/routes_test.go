package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slotbook/clock"
	reservationRepo "slotbook/database/repository/reservation"
	"slotbook/handlers"
	"slotbook/models"
	"slotbook/services/booking"
	"slotbook/services/payment"
	"slotbook/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	engine *gin.Engine
	clock  *clock.Manual
}

func newServer(t *testing.T, jwtSecret []byte) *server {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC))
	repo := reservationRepo.NewMemoryReservationRepo()
	sandbox := payment.NewSandboxGateway(zap.NewNop(), clk, 15*time.Minute, "http://test")
	svc := booking.NewDefaultReservationService(repo, sandbox, clk, zap.NewNop())

	hb := handlers.NewHandlerBundle(handlers.NewBookingHandler(svc), handlers.NewPaymentHandler(svc, sandbox), jwtSecret)
	r := gin.New()
	RegisterRoutes(r, hb)
	return &server{engine: r, clock: clk}
}

func (s *server) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createBody(userID, slot string) gin.H {
	return gin.H{"date": "2024-06-01", "time": slot, "userId": userID, "duration": 60}
}

func slotFor(t *testing.T, s *server, userID, slot string) models.SlotView {
	t.Helper()
	w := s.do(t, http.MethodGet, "/api/bookings/slots?date=2024-06-01&userId="+userID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, v := range decode[[]models.SlotView](t, w) {
		if v.Time == slot {
			return v
		}
	}
	t.Fatalf("slot %s missing", slot)
	return models.SlotView{}
}

func TestSlotsEndpoint(t *testing.T) {
	s := newServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/bookings/slots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Date query parameter is required", decode[utils.ErrorResponse](t, w).Message)

	w = s.do(t, http.MethodGet, "/api/bookings/slots?date=2024-06-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw, 8)
	assert.Equal(t, "09:00", raw[0]["time"])
	assert.Equal(t, "AVAILABLE", raw[0]["status"])
	assert.Contains(t, raw[0], "bookingId")
	assert.Nil(t, raw[0]["bookingId"])
}

func TestBookingAndPaymentFlow(t *testing.T) {
	s := newServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/bookings", createBody("owner", "10:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.CreateReservationResult](t, w)
	id := created.Reservation.ID
	txn := created.Reservation.TransactionID
	assert.Equal(t, "http://test/api/payments/sandbox/"+txn, created.PaymentURL)
	assert.Equal(t, 1.0, created.Reservation.Amount)

	w = s.do(t, http.MethodPost, "/api/bookings", createBody("other", "10:00"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot already booked or reserved", decode[utils.ErrorResponse](t, w).Message)

	mine := slotFor(t, s, "owner", "10:00")
	assert.Equal(t, models.SlotPaymentPending, mine.Status)
	require.NotNil(t, mine.BookingID)
	assert.Equal(t, id, *mine.BookingID)
	assert.Equal(t, models.SlotBookedByOthers, slotFor(t, s, "other", "10:00").Status)

	w = s.do(t, http.MethodGet, "/api/payments/check-status/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"PENDING","paymentStatus":"PENDING"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/payments/callback/"+txn, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment Processing")

	w = s.do(t, http.MethodPost, "/api/payments/sandbox/"+txn, gin.H{"status": "SUCCESS"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/payments/callback/"+txn, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment Successful")

	w = s.do(t, http.MethodGet, "/api/payments/check-status/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"CONFIRMED","paymentStatus":"SUCCESS"}`, w.Body.String())

	assert.Equal(t, models.SlotBookedByMe, slotFor(t, s, "owner", "10:00").Status)

	w = s.do(t, http.MethodDelete, "/api/bookings/"+id, gin.H{"userId": "owner"})
	assert.Equal(t, http.StatusConflict, w.Code, "confirmed bookings cannot be cancelled")
}

func TestFailedPaymentCallback(t *testing.T) {
	s := newServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/bookings", createBody("owner", "11:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	txn := decode[models.CreateReservationResult](t, w).Reservation.TransactionID

	w = s.do(t, http.MethodPost, "/api/payments/sandbox/"+txn, gin.H{"status": "FAILED"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/payments/callback/"+txn, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment Failed")
	assert.Equal(t, models.SlotAvailable, slotFor(t, s, "owner", "11:00").Status)
}

func TestUnknownCallbackRendersUnknownPage(t *testing.T) {
	s := newServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/payments/callback/ORDER_0_00000000", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment Status Unknown")

	w = s.do(t, http.MethodGet, "/api/payments/check-status/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "booking not found", decode[utils.ErrorResponse](t, w).Message)
}

func TestCreateBookingValidation(t *testing.T) {
	s := newServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/bookings", gin.H{"date": "2024-06-01", "time": "10:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/bookings", createBody("u", "18:00"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBooking(t *testing.T) {
	s := newServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/bookings", createBody("owner", "12:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[models.CreateReservationResult](t, w).Reservation.ID

	w = s.do(t, http.MethodDelete, "/api/bookings/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/bookings/"+id, gin.H{"userId": "intruder"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/api/bookings/"+id+"?userId=owner", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Booking removed"}`, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/bookings/"+id, gin.H{"userId": "owner"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExpiredHoldShowsAvailable(t *testing.T) {
	s := newServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/bookings", createBody("owner", "13:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	s.clock.Advance(15 * time.Minute)
	assert.Equal(t, models.SlotAvailable, slotFor(t, s, "owner", "13:00").Status)

	w = s.do(t, http.MethodPost, "/api/bookings", createBody("other", "13:00"))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestJWTGuardsMutatingRoutes(t *testing.T) {
	secret := []byte("route-secret")
	s := newServer(t, secret)

	w := s.do(t, http.MethodPost, "/api/bookings", createBody("owner", "14:00"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateToken(secret, "someone-else", time.Hour)
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/api/bookings", createBody("owner", "14:00"), "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	token, err = utils.GenerateToken(secret, "owner", time.Hour)
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/api/bookings", createBody("owner", "14:00"), "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/bookings/slots?date=2024-06-01", nil)
	assert.Equal(t, http.StatusOK, w.Code, "reads stay public")
}

func TestHealthRoute(t *testing.T) {
	s := newServer(t, nil)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, w.Code)
}
