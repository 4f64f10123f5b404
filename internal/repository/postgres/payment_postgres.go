package postgres

import (
	"context"
	"database/sql"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// PaymentPostgres is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentPostgres struct {
	db *sql.DB
}

// NewPaymentPostgres creates a new PaymentPostgres repository.
func NewPaymentPostgres(db *sql.DB) *PaymentPostgres {
	return &PaymentPostgres{db: db}
}

var _ repository.PaymentRepository = (*PaymentPostgres)(nil)

const paymentColumns = `id, booking_id, intent_id, amount_cents, application_fee_cents, status, attempt,
		COALESCE(failure_reason, ''), created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.IntentID, &p.AmountCents, &p.ApplicationFeeCents,
		&p.Status, &p.Attempt, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create records a PaymentIntent. Re-recording the same intent updates its status.
func (r *PaymentPostgres) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	q := `
		INSERT INTO payments (id, booking_id, intent_id, amount_cents, application_fee_cents, status, attempt, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $9)
		ON CONFLICT (intent_id) DO UPDATE
		SET status = EXCLUDED.status, failure_reason = EXCLUDED.failure_reason, updated_at = EXCLUDED.updated_at
		RETURNING ` + paymentColumns
	row := conn(ctx, r.db).QueryRowContext(ctx, q,
		p.ID, p.BookingID, p.IntentID, p.AmountCents, p.ApplicationFeeCents, p.Status, p.Attempt, p.FailureReason, p.CreatedAt,
	)
	return scanPayment(row)
}

// UpdateStatus sets the status of the payment for an intent. Unknown intents are ignored.
func (r *PaymentPostgres) UpdateStatus(ctx context.Context, intentID, status, failureReason string) error {
	const q = `
		UPDATE payments
		SET status = $2, failure_reason = NULLIF($3, ''), updated_at = now()
		WHERE intent_id = $1
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, q, intentID, status, failureReason)
	return err
}

// ListByBooking returns the payments of a booking, oldest first.
func (r *PaymentPostgres) ListByBooking(ctx context.Context, bookingID string) ([]model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at, attempt`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}
