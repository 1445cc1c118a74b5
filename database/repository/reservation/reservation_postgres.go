package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"slotbook/models"
)

const reservationColumns = `id, user_id, date, time, duration_minutes, status, transaction_id, amount, expires_at, created_at`

// PostgresReservationRepo implements ReservationRepository on PostgreSQL.
type PostgresReservationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresReservationRepo(pool *pgxpool.Pool) *PostgresReservationRepo {
	return &PostgresReservationRepo{pool: pool}
}

// EnsureIndexes applies the schema; it is idempotent.
func (r *PostgresReservationRepo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply reservations schema: %w", err)
	}
	return nil
}

func (r *PostgresReservationRepo) ListActiveForDate(ctx context.Context, date string) ([]models.Reservation, error) {
	const query = `SELECT ` + reservationColumns + `
FROM reservations
WHERE date = $1 AND status IN ('PENDING', 'CONFIRMED')
ORDER BY time`
	return r.queryMany(ctx, query, date)
}

func (r *PostgresReservationRepo) FindActiveForSlot(ctx context.Context, date, slot string) (*models.Reservation, error) {
	const query = `SELECT ` + reservationColumns + `
FROM reservations
WHERE date = $1 AND time = $2 AND status IN ('PENDING', 'CONFIRMED')`
	return r.queryOne(ctx, query, date, slot)
}

func (r *PostgresReservationRepo) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *PostgresReservationRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Reservation, error) {
	if transactionID == "" {
		return nil, nil
	}
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE transaction_id = $1`
	return r.queryOne(ctx, query, transactionID)
}

func (r *PostgresReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	const stmt = `
INSERT INTO reservations (` + reservationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, stmt,
		res.ID,
		res.UserID,
		res.Date,
		res.Time,
		res.DurationMinutes,
		string(res.Status),
		nullIfEmpty(res.TransactionID),
		res.Amount,
		res.ExpiresAt,
		res.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *PostgresReservationRepo) Transition(ctx context.Context, id string, to models.ReservationStatus) (*models.Reservation, error) {
	if err := validateTarget(to); err != nil {
		return nil, err
	}
	const stmt = `
UPDATE reservations
SET status = $2, expires_at = NULL
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + reservationColumns

	updated, err := r.queryOne(ctx, stmt, id, string(to))
	if err != nil {
		return nil, err
	}
	if updated != nil {
		return updated, nil
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, classifyMissedWrite(existing, "")
}

func (r *PostgresReservationRepo) DeleteIfOwnedAndPending(ctx context.Context, id, userID string) error {
	const stmt = `DELETE FROM reservations WHERE id = $1 AND user_id = $2 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, stmt, id, userID)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return classifyMissedWrite(existing, userID)
}

func (r *PostgresReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 1000
	}
	const query = `SELECT ` + reservationColumns + `
FROM reservations
WHERE status = 'PENDING' AND expires_at <= $1
ORDER BY expires_at
LIMIT $2`
	return r.queryMany(ctx, query, now, limit)
}

func (r *PostgresReservationRepo) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	const stmt = `DELETE FROM reservations WHERE id = $1 AND status = 'PENDING' AND expires_at <= $2`

	tag, err := r.pool.Exec(ctx, stmt, id, now)
	if err != nil {
		return false, fmt.Errorf("delete expired reservation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresReservationRepo) queryOne(ctx context.Context, sql string, args ...any) (*models.Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return res, nil
}

func (r *PostgresReservationRepo) queryMany(ctx context.Context, sql string, args ...any) ([]models.Reservation, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var (
		res    models.Reservation
		status string
		txnID  *string
	)
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.Date,
		&res.Time,
		&res.DurationMinutes,
		&status,
		&txnID,
		&res.Amount,
		&res.ExpiresAt,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Status = models.ReservationStatus(status)
	if txnID != nil {
		res.TransactionID = *txnID
	}
	if res.ExpiresAt != nil {
		t := res.ExpiresAt.UTC()
		res.ExpiresAt = &t
	}
	res.CreatedAt = res.CreatedAt.UTC()
	return &res, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
