package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slotbook/clock"
	reservationRepo "slotbook/database/repository/reservation"
	"slotbook/models"
)

var start = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo reservationRepo.ReservationRepository, slot string, expiresAt time.Time) *models.Reservation {
	t.Helper()
	exp := expiresAt
	r := &models.Reservation{
		ID:              uuid.NewString(),
		UserID:          "user-1",
		Date:            "2024-06-01",
		Time:            slot,
		DurationMinutes: 60,
		Status:          models.StatusPending,
		TransactionID:   "ORDER_" + slot,
		Amount:          1,
		ExpiresAt:       &exp,
		CreatedAt:       start,
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e models.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// flakyRepo fails DeleteExpired for chosen ids.
type flakyRepo struct {
	reservationRepo.ReservationRepository
	failFor map[string]bool
}

func (f *flakyRepo) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	if f.failFor[id] {
		return false, errors.New("write timeout")
	}
	return f.ReservationRepository.DeleteExpired(ctx, id, now)
}

func TestSweepOnceRemovesOnlyExpiredPending(t *testing.T) {
	ctx := context.Background()
	repo := reservationRepo.NewMemoryReservationRepo()
	clk := clock.NewManual(start)
	pub := &recordingPublisher{}
	s := New(repo, clk, zap.NewNop(), Options{Publisher: pub})

	expired := seed(t, repo, "09:00", start.Add(time.Minute))
	fresh := seed(t, repo, "10:00", start.Add(time.Hour))
	paid := seed(t, repo, "11:00", start.Add(time.Minute))
	_, err := repo.Transition(ctx, paid.ID, models.StatusConfirmed)
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)
	n, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	for _, id := range []string{fresh.ID, paid.ID} {
		got, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, got)
	}

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventReservationExpired, pub.events[0].Type)
	assert.Equal(t, expired.ID, pub.events[0].ReservationID)

	free, err := repo.FindActiveForSlot(ctx, "2024-06-01", "09:00")
	require.NoError(t, err)
	assert.Nil(t, free, "expired slot is reclaimed")
}

func TestSweepOnceSkipsFailedRecords(t *testing.T) {
	ctx := context.Background()
	mem := reservationRepo.NewMemoryReservationRepo()
	clk := clock.NewManual(start)

	bad := seed(t, mem, "09:00", start.Add(time.Minute))
	good := seed(t, mem, "10:00", start.Add(time.Minute))
	repo := &flakyRepo{ReservationRepository: mem, failFor: map[string]bool{bad.ID: true}}
	s := New(repo, clk, zap.NewNop(), Options{})

	clk.Advance(time.Hour)
	n, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := mem.FindByID(ctx, good.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = mem.FindByID(ctx, bad.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "failed record stays for the next sweep")

	repo.failFor = nil
	n, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExpireLosesToConfirmation(t *testing.T) {
	ctx := context.Background()
	repo := reservationRepo.NewMemoryReservationRepo()
	clk := clock.NewManual(start)
	pub := &recordingPublisher{}
	s := New(repo, clk, zap.NewNop(), Options{Publisher: pub})

	r := seed(t, repo, "09:00", start.Add(time.Minute))
	clk.Advance(time.Hour)
	_, err := repo.Transition(ctx, r.ID, models.StatusConfirmed)
	require.NoError(t, err)

	deleted, err := s.Expire(ctx, r)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, pub.events)

	got, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestExpireByID(t *testing.T) {
	ctx := context.Background()
	repo := reservationRepo.NewMemoryReservationRepo()
	clk := clock.NewManual(start)
	s := New(repo, clk, zap.NewNop(), Options{})

	r := seed(t, repo, "09:00", start.Add(time.Minute))

	deleted, err := s.ExpireByID(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "deadline not reached")

	clk.Advance(time.Minute)
	deleted, err = s.ExpireByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.ExpireByID(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRedisLockerElectsOneInstance(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := reservationRepo.NewMemoryReservationRepo()
	clk := clock.NewManual(start)
	seed(t, repo, "09:00", start.Add(time.Minute))
	clk.Advance(time.Hour)

	a := New(repo, clk, zap.NewNop(), Options{Interval: time.Second, Locker: NewRedisLocker(client)})
	b := New(repo, clk, zap.NewNop(), Options{Interval: time.Second, Locker: NewRedisLocker(client)})

	ok, err := b.locker.TryLock(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := a.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "lock held elsewhere")

	mr.FastForward(2 * time.Second)
	n, err = a.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := reservationRepo.NewMemoryReservationRepo()
	clk := clock.NewManual(start)
	seed(t, repo, "09:00", start.Add(-time.Minute))
	s := New(repo, clk, zap.NewNop(), Options{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		r, _ := repo.FindActiveForSlot(context.Background(), "2024-06-01", "09:00")
		return r == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweepOnceReleasesLockForNextTick(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := reservationRepo.NewMemoryReservationRepo()
	clk := clock.NewManual(start)
	interval := time.Second
	s := New(repo, clk, zap.NewNop(), Options{Interval: interval, Locker: NewRedisLocker(client)})

	seed(t, repo, "09:00", start.Add(time.Minute))
	clk.Advance(time.Hour)
	n, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists(lockKey), "lease released after the sweep")

	seed(t, repo, "10:00", clk.Now().Add(-time.Minute))
	mr.FastForward(interval - 5*time.Millisecond)
	n, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same instance sweeps again on its next tick")
}

func TestRedisLockerUnlockLeavesForeignLease(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	a := NewRedisLocker(client)
	b := NewRedisLocker(client)

	ok, err := b.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, a.Unlock(ctx))
	got, err := mr.Get(lockKey)
	require.NoError(t, err)
	assert.Equal(t, b.token, got)

	require.NoError(t, b.Unlock(ctx))
	assert.False(t, mr.Exists(lockKey))

	ok, err = a.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
