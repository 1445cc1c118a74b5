package reservationRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"slotbook/models"
)

// MemoryReservationRepo keeps reservations in process. Every check-and-write
// happens under one mutex so the slot and transaction uniqueness rules hold
// exactly as they do in the database-backed stores.
type MemoryReservationRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.Reservation
	order []string
}

func NewMemoryReservationRepo() *MemoryReservationRepo {
	return &MemoryReservationRepo{byID: make(map[string]*models.Reservation)}
}

func clone(r *models.Reservation) *models.Reservation {
	c := *r
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (m *MemoryReservationRepo) ListActiveForDate(_ context.Context, date string) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Reservation
	for _, id := range m.order {
		r, ok := m.byID[id]
		if ok && r.Date == date && r.Status.IsActive() {
			out = append(out, *clone(r))
		}
	}
	return out, nil
}

func (m *MemoryReservationRepo) FindActiveForSlot(_ context.Context, date, slot string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.activeForSlot(date, slot); r != nil {
		return clone(r), nil
	}
	return nil, nil
}

func (m *MemoryReservationRepo) activeForSlot(date, slot string) *models.Reservation {
	for _, r := range m.byID {
		if r.Date == date && r.Time == slot && r.Status.IsActive() {
			return r
		}
	}
	return nil
}

func (m *MemoryReservationRepo) FindByID(_ context.Context, id string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.byID[id]; ok {
		return clone(r), nil
	}
	return nil, nil
}

func (m *MemoryReservationRepo) FindByTransactionID(_ context.Context, transactionID string) (*models.Reservation, error) {
	if transactionID == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.TransactionID == transactionID {
			return clone(r), nil
		}
	}
	return nil, nil
}

func (m *MemoryReservationRepo) Create(_ context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[r.ID]; exists {
		return models.NewConflictError("booking id already exists")
	}
	if r.Status.IsActive() && m.activeForSlot(r.Date, r.Time) != nil {
		return models.ErrConflict
	}
	if r.TransactionID != "" {
		for _, existing := range m.byID {
			if existing.TransactionID == r.TransactionID {
				return models.NewConflictError("transaction id already in use")
			}
		}
	}
	m.byID[r.ID] = clone(r)
	m.order = append(m.order, r.ID)
	return nil
}

func (m *MemoryReservationRepo) Transition(_ context.Context, id string, to models.ReservationStatus) (*models.Reservation, error) {
	if err := validateTarget(to); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if r.Status != models.StatusPending {
		return nil, classifyMissedWrite(r, "")
	}
	r.Status = to
	r.ExpiresAt = nil
	return clone(r), nil
}

func (m *MemoryReservationRepo) DeleteIfOwnedAndPending(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	if r.UserID != userID || r.Status != models.StatusPending {
		return classifyMissedWrite(r, userID)
	}
	m.remove(id)
	return nil
}

func (m *MemoryReservationRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Reservation
	for _, r := range m.byID {
		if r.IsExpired(now) {
			out = append(out, *clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryReservationRepo) DeleteExpired(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok || !r.IsExpired(now) {
		return false, nil
	}
	m.remove(id)
	return true, nil
}

func (m *MemoryReservationRepo) EnsureIndexes(context.Context) error { return nil }

func (m *MemoryReservationRepo) remove(id string) {
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
