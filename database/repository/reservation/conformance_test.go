package reservationRepo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/models"
)

var baseTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func pending(userID, date, slot, txn string, expiresAt time.Time) *models.Reservation {
	exp := expiresAt
	return &models.Reservation{
		ID:              uuid.New().String(),
		UserID:          userID,
		Date:            date,
		Time:            slot,
		DurationMinutes: 60,
		Status:          models.StatusPending,
		TransactionID:   txn,
		Amount:          1,
		ExpiresAt:       &exp,
		CreatedAt:       baseTime,
	}
}

// runConformance exercises the ReservationRepository contract. newRepo must
// return an empty store.
func runConformance(t *testing.T, newRepo func(t *testing.T) ReservationRepository) {
	ctx := context.Background()
	deadline := baseTime.Add(15 * time.Minute)

	t.Run("create and find", func(t *testing.T) {
		repo := newRepo(t)
		res := pending("user-1", "2024-06-01", "10:00", "ORDER_1", deadline)
		require.NoError(t, repo.Create(ctx, res))

		byID, err := repo.FindByID(ctx, res.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, res.UserID, byID.UserID)
		assert.Equal(t, models.StatusPending, byID.Status)
		require.NotNil(t, byID.ExpiresAt)
		assert.True(t, deadline.Equal(*byID.ExpiresAt))

		byTxn, err := repo.FindByTransactionID(ctx, "ORDER_1")
		require.NoError(t, err)
		require.NotNil(t, byTxn)
		assert.Equal(t, res.ID, byTxn.ID)

		active, err := repo.FindActiveForSlot(ctx, "2024-06-01", "10:00")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, res.ID, active.ID)

		missing, err := repo.FindByID(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, missing)

		none, err := repo.FindActiveForSlot(ctx, "2024-06-01", "11:00")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("active slot is unique", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, pending("user-1", "2024-06-01", "10:00", "ORDER_A", deadline)))

		err := repo.Create(ctx, pending("user-2", "2024-06-01", "10:00", "ORDER_B", deadline))
		assert.ErrorIs(t, err, models.ErrConflict)

		require.NoError(t, repo.Create(ctx, pending("user-2", "2024-06-02", "10:00", "ORDER_C", deadline)))
	})

	t.Run("cancelled history does not hold the slot", func(t *testing.T) {
		repo := newRepo(t)
		first := pending("user-1", "2024-06-01", "10:00", "ORDER_A", deadline)
		require.NoError(t, repo.Create(ctx, first))
		_, err := repo.Transition(ctx, first.ID, models.StatusCancelled)
		require.NoError(t, err)

		second := pending("user-2", "2024-06-01", "10:00", "ORDER_B", deadline)
		require.NoError(t, repo.Create(ctx, second))

		active, err := repo.ListActiveForDate(ctx, "2024-06-01")
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, second.ID, active[0].ID)
	})

	t.Run("transaction id is unique", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, pending("user-1", "2024-06-01", "10:00", "ORDER_DUP", deadline)))
		err := repo.Create(ctx, pending("user-1", "2024-06-01", "11:00", "ORDER_DUP", deadline))
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("concurrent creates for one slot admit exactly one", func(t *testing.T) {
		repo := newRepo(t)
		const attempts = 16
		var wins, conflicts int32
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res := pending(fmt.Sprintf("user-%d", i), "2024-06-01", "12:00", fmt.Sprintf("ORDER_%d", i), deadline)
				err := repo.Create(ctx, res)
				switch {
				case err == nil:
					atomic.AddInt32(&wins, 1)
				case models.ErrorCode(err) == models.CodeConflict:
					atomic.AddInt32(&conflicts, 1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		assert.EqualValues(t, 1, wins)
		assert.EqualValues(t, attempts-1, conflicts)
	})

	t.Run("transition clears deadline and is one-way", func(t *testing.T) {
		repo := newRepo(t)
		res := pending("user-1", "2024-06-01", "10:00", "ORDER_T", deadline)
		require.NoError(t, repo.Create(ctx, res))

		updated, err := repo.Transition(ctx, res.ID, models.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, updated.Status)
		assert.Nil(t, updated.ExpiresAt)

		_, err = repo.Transition(ctx, res.ID, models.StatusCancelled)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		stored, err := repo.FindByID(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, stored.Status)

		_, err = repo.Transition(ctx, uuid.New().String(), models.StatusConfirmed)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = repo.Transition(ctx, res.ID, models.StatusPending)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("owner-only delete of pending", func(t *testing.T) {
		repo := newRepo(t)
		res := pending("owner", "2024-06-01", "10:00", "ORDER_D", deadline)
		require.NoError(t, repo.Create(ctx, res))

		assert.ErrorIs(t, repo.DeleteIfOwnedAndPending(ctx, uuid.New().String(), "owner"), models.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteIfOwnedAndPending(ctx, res.ID, "intruder"), models.ErrForbidden)

		stored, err := repo.FindByID(ctx, res.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.StatusPending, stored.Status)

		require.NoError(t, repo.DeleteIfOwnedAndPending(ctx, res.ID, "owner"))
		gone, err := repo.FindByID(ctx, res.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		confirmed := pending("owner", "2024-06-01", "11:00", "ORDER_E", deadline)
		require.NoError(t, repo.Create(ctx, confirmed))
		_, err = repo.Transition(ctx, confirmed.ID, models.StatusConfirmed)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.DeleteIfOwnedAndPending(ctx, confirmed.ID, "owner"), models.ErrInvalidTransition)
	})

	t.Run("expired pending reservations are reclaimable", func(t *testing.T) {
		repo := newRepo(t)
		expired := pending("user-1", "2024-06-01", "09:00", "ORDER_X1", baseTime.Add(time.Minute))
		fresh := pending("user-1", "2024-06-01", "10:00", "ORDER_X2", baseTime.Add(time.Hour))
		paid := pending("user-1", "2024-06-01", "11:00", "ORDER_X3", baseTime.Add(time.Minute))
		for _, r := range []*models.Reservation{expired, fresh, paid} {
			require.NoError(t, repo.Create(ctx, r))
		}
		_, err := repo.Transition(ctx, paid.ID, models.StatusConfirmed)
		require.NoError(t, err)

		now := baseTime.Add(10 * time.Minute)
		list, err := repo.ListExpired(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, expired.ID, list[0].ID)

		deleted, err := repo.DeleteExpired(ctx, expired.ID, now)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeleteExpired(ctx, expired.ID, now)
		require.NoError(t, err)
		assert.False(t, deleted, "second delete is a no-op")

		deleted, err = repo.DeleteExpired(ctx, fresh.ID, now)
		require.NoError(t, err)
		assert.False(t, deleted, "deadline not reached")

		deleted, err = repo.DeleteExpired(ctx, paid.ID, now)
		require.NoError(t, err)
		assert.False(t, deleted, "confirmed reservations are never swept")
	})

	t.Run("transition and expiry race has one winner", func(t *testing.T) {
		repo := newRepo(t)
		now := baseTime.Add(time.Hour)
		for i := 0; i < 10; i++ {
			res := pending("user-1", "2024-06-01", "13:00", fmt.Sprintf("ORDER_R%d", i), baseTime)
			require.NoError(t, repo.Create(ctx, res))

			var (
				wg        sync.WaitGroup
				transErr  error
				deleted   bool
				deleteErr error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, transErr = repo.Transition(ctx, res.ID, models.StatusConfirmed)
			}()
			go func() {
				defer wg.Done()
				deleted, deleteErr = repo.DeleteExpired(ctx, res.ID, now)
			}()
			wg.Wait()

			require.NoError(t, deleteErr)
			stored, err := repo.FindByID(ctx, res.ID)
			require.NoError(t, err)
			if deleted {
				assert.ErrorIs(t, transErr, models.ErrNotFound)
				assert.Nil(t, stored)
			} else {
				require.NoError(t, transErr)
				require.NotNil(t, stored)
				assert.Equal(t, models.StatusConfirmed, stored.Status)
				_, err := repo.Transition(ctx, res.ID, models.StatusCancelled)
				require.ErrorIs(t, err, models.ErrInvalidTransition)
				// free the slot for the next round
				require.NoError(t, forceCancel(ctx, repo, stored))
			}
		}
	})
}

// forceCancel frees a confirmed slot by swapping in a cancelled copy; only
// used to reuse one slot across race iterations.
func forceCancel(ctx context.Context, repo ReservationRepository, r *models.Reservation) error {
	switch impl := repo.(type) {
	case *MemoryReservationRepo:
		impl.mu.Lock()
		impl.byID[r.ID].Status = models.StatusCancelled
		impl.mu.Unlock()
		return nil
	case *MongoReservationRepo:
		_, err := impl.coll.UpdateOne(ctx, map[string]any{"id": r.ID}, map[string]any{"$set": map[string]any{"status": string(models.StatusCancelled)}})
		return err
	case *PostgresReservationRepo:
		_, err := impl.pool.Exec(ctx, `UPDATE reservations SET status = 'CANCELLED' WHERE id = $1`, r.ID)
		return err
	}
	return fmt.Errorf("unsupported repo %T", repo)
}
