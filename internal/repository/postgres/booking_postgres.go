package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// BookingPostgres is a PostgreSQL implementation of repository.BookingRepository.
type BookingPostgres struct {
	db *sql.DB
}

// NewBookingPostgres creates a new BookingPostgres repository.
func NewBookingPostgres(db *sql.DB) *BookingPostgres {
	return &BookingPostgres{db: db}
}

var _ repository.BookingRepository = (*BookingPostgres)(nil)

const bookingColumns = `id, student_id, instructor_id, instructor_service_id, service_name,
		start_at, end_at, duration_minutes, hourly_rate_cents, price_cents, student_fee_cents,
		total_cents, credits_applied_cents, status, payment_status,
		COALESCE(payment_method_id, ''), COALESCE(payment_intent_id, ''), COALESCE(payout_transfer_id, ''),
		auth_attempts, locked_amount_cents, COALESCE(rescheduled_from_id::text, ''),
		COALESCE(cancelled_by, ''), COALESCE(cancellation_reason, ''), cancelled_at, completed_at,
		created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var cancelledAt, completedAt sql.NullTime
	if err := row.Scan(
		&b.ID,
		&b.StudentID,
		&b.InstructorID,
		&b.InstructorServiceID,
		&b.ServiceName,
		&b.StartAt,
		&b.EndAt,
		&b.DurationMinutes,
		&b.HourlyRateCents,
		&b.PriceCents,
		&b.StudentFeeCents,
		&b.TotalCents,
		&b.CreditsAppliedCents,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentMethodID,
		&b.PaymentIntentID,
		&b.PayoutTransferID,
		&b.AuthAttempts,
		&b.LockedAmountCents,
		&b.RescheduledFromID,
		&b.CancelledBy,
		&b.CancellationReason,
		&cancelledAt,
		&completedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.CancelledAt = timePtr(cancelledAt)
	b.CompletedAt = timePtr(completedAt)
	return &b, nil
}

func (r *BookingPostgres) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// Create inserts a booking and returns the stored row.
func (r *BookingPostgres) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	q := `
		INSERT INTO bookings (
			id, student_id, instructor_id, instructor_service_id, service_name,
			start_at, end_at, duration_minutes, hourly_rate_cents, price_cents, student_fee_cents,
			total_cents, credits_applied_cents, status, payment_status,
			payment_method_id, payment_intent_id, locked_amount_cents, rescheduled_from_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			NULLIF($16, ''), NULLIF($17, ''), $18, NULLIF($19, '')::uuid, $20, $20)
		RETURNING ` + bookingColumns
	row := conn(ctx, r.db).QueryRowContext(ctx, q,
		b.ID,
		b.StudentID,
		b.InstructorID,
		b.InstructorServiceID,
		b.ServiceName,
		b.StartAt,
		b.EndAt,
		b.DurationMinutes,
		b.HourlyRateCents,
		b.PriceCents,
		b.StudentFeeCents,
		b.TotalCents,
		b.CreditsAppliedCents,
		b.Status,
		b.PaymentStatus,
		b.PaymentMethodID,
		b.PaymentIntentID,
		b.LockedAmountCents,
		b.RescheduledFromID,
		b.CreatedAt,
	)
	return scanBooking(row)
}

// FindByID fetches a booking by ID.
func (r *BookingPostgres) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(conn(ctx, r.db).QueryRowContext(ctx, q, id))
}

// FindByIntentID fetches the most recent booking using a PaymentIntent. A
// locked reschedule shares the intent with the booking it replaced.
func (r *BookingPostgres) FindByIntentID(ctx context.Context, intentID string) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanBooking(conn(ctx, r.db).QueryRowContext(ctx, q, intentID))
}

// Update writes the mutable fields of a booking.
func (r *BookingPostgres) Update(ctx context.Context, b *model.Booking) error {
	const q = `
		UPDATE bookings
		SET status = $2,
		    payment_status = $3,
		    payment_method_id = NULLIF($4, ''),
		    payment_intent_id = NULLIF($5, ''),
		    payout_transfer_id = NULLIF($6, ''),
		    auth_attempts = $7,
		    locked_amount_cents = $8,
		    cancelled_by = NULLIF($9, ''),
		    cancellation_reason = NULLIF($10, ''),
		    cancelled_at = $11,
		    completed_at = $12,
		    updated_at = $13
		WHERE id = $1
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		b.ID,
		b.Status,
		b.PaymentStatus,
		b.PaymentMethodID,
		b.PaymentIntentID,
		b.PayoutTransferID,
		b.AuthAttempts,
		b.LockedAmountCents,
		b.CancelledBy,
		b.CancellationReason,
		nullTime(b.CancelledAt),
		nullTime(b.CompletedAt),
		b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// LockInstructor takes a transaction-scoped advisory lock keyed by instructor.
func (r *BookingPostgres) LockInstructor(ctx context.Context, instructorID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, instructorID)
	return err
}

// ListOverlapping returns active bookings of the instructor intersecting [start, end).
func (r *BookingPostgres) ListOverlapping(ctx context.Context, instructorID string, start, end time.Time, excludeID string) ([]model.Booking, error) {
	q := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE instructor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_at < $3 AND $2 < end_at
		  AND ($4 = '' OR id::text <> $4)
		ORDER BY start_at
	`
	return r.list(ctx, q, instructorID, start, end, excludeID)
}

// ListForUser pages the bookings where the user is student or instructor.
// Upcoming bookings are sorted soonest first, past ones most recent first.
func (r *BookingPostgres) ListForUser(ctx context.Context, userID string, upcoming bool, now time.Time, pq repository.PageQuery) (*repository.PageResult[model.Booking], error) {
	cond := `(student_id = $1 OR instructor_id = $1) AND end_at <= $2`
	order := `start_at DESC, id DESC`
	if upcoming {
		cond = `(student_id = $1 OR instructor_id = $1) AND end_at > $2`
		order = `start_at ASC, id ASC`
	}

	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE `+cond, userID, now).Scan(&total); err != nil {
		return nil, err
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + cond + ` ORDER BY ` + order + ` LIMIT $3 OFFSET $4`
	items, err := r.list(ctx, q, userID, now, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Booking]{Items: items, Total: total}, nil
}

// List pages bookings matching the admin filter.
func (r *BookingPostgres) List(ctx context.Context, f repository.BookingFilter, pq repository.PageQuery) (*repository.PageResult[model.Booking], error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.InstructorID != "" {
		add("instructor_id = $%d", f.InstructorID)
	}
	if f.StudentID != "" {
		add("student_id = $%d", f.StudentID)
	}
	if !f.From.IsZero() {
		add("start_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("start_at < $%d", f.To)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY start_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)+1, len(args)+2)
	items, err := r.list(ctx, q, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Booking]{Items: items, Total: total}, nil
}

// ListByPaymentStatus returns active bookings in the payment status starting before startBefore.
func (r *BookingPostgres) ListByPaymentStatus(ctx context.Context, status model.PaymentStatus, startBefore time.Time, limit int) ([]model.Booking, error) {
	q := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE payment_status = $1 AND status IN ('pending', 'confirmed') AND start_at <= $2
		ORDER BY start_at
		LIMIT $3
	`
	return r.list(ctx, q, status, startBefore, limit)
}

// ListAwaitingSettlement returns finished bookings whose payout has not been
// made, plus late cancellations that were captured for the instructor.
func (r *BookingPostgres) ListAwaitingSettlement(ctx context.Context, limit int) ([]model.Booking, error) {
	q := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE (status IN ('completed', 'no_show') AND payment_status IN ('authorized', 'locked', 'captured'))
		   OR (status = 'cancelled' AND payment_status = 'captured')
		ORDER BY end_at
		LIMIT $1
	`
	return r.list(ctx, q, limit)
}

// HasSharedBooking reports whether the pair has any booking together.
func (r *BookingPostgres) HasSharedBooking(ctx context.Context, studentID, instructorID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM bookings WHERE student_id = $1 AND instructor_id = $2)`
	var ok bool
	err := conn(ctx, r.db).QueryRowContext(ctx, q, studentID, instructorID).Scan(&ok)
	return ok, err
}

// CountCompletedByStudent counts the student's completed lessons.
func (r *BookingPostgres) CountCompletedByStudent(ctx context.Context, studentID string) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE student_id = $1 AND status = 'completed'`
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx, q, studentID).Scan(&n)
	return n, err
}
