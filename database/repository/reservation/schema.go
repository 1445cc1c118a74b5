package reservationRepo

// The partial unique index mirrors the Mongo partialFilterExpression: only
// PENDING and CONFIRMED rows compete for a slot.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED')),
	transaction_id TEXT UNIQUE,
	amount DOUBLE PRECISION NOT NULL,
	expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT reservations_pending_has_deadline CHECK ((status = 'PENDING') = (expires_at IS NOT NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS reservations_active_slot_uq
	ON reservations (date, time)
	WHERE status IN ('PENDING', 'CONFIRMED');

CREATE INDEX IF NOT EXISTS reservations_pending_expiry_idx
	ON reservations (expires_at)
	WHERE status = 'PENDING';
`
