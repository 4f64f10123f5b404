package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

var bookingCols = []string{"id", "student_id", "instructor_id", "instructor_service_id", "service_name",
	"start_at", "end_at", "duration_minutes", "hourly_rate_cents", "price_cents", "student_fee_cents",
	"total_cents", "credits_applied_cents", "status", "payment_status",
	"payment_method_id", "payment_intent_id", "payout_transfer_id", "auth_attempts", "locked_amount_cents",
	"rescheduled_from_id", "cancelled_by", "cancellation_reason", "cancelled_at", "completed_at",
	"created_at", "updated_at"}

func bookingRow(rows *sqlmock.Rows, id string, start time.Time, status, payment string) *sqlmock.Rows {
	return rows.AddRow(id, "stu", "inst", "svc", "Piano", start, start.Add(time.Hour), 60, 6000, 6000, 720,
		6720, 0, status, payment, "pm_1", "pi_1", "", 1, 0, "", "", "", nil, nil, start.Add(-48*time.Hour), start.Add(-48*time.Hour))
}

func TestBookingPostgres_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingPostgres(db)
	start := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)

	b := &model.Booking{
		ID: "b1", StudentID: "stu", InstructorID: "inst", InstructorServiceID: "svc", ServiceName: "Piano",
		StartAt: start, EndAt: start.Add(time.Hour), DurationMinutes: 60, HourlyRateCents: 6000,
		PriceCents: 6000, StudentFeeCents: 720, TotalCents: 6720,
		Status: model.BookingPending, PaymentStatus: model.PaymentMethodRequired, CreatedAt: start.Add(-48 * time.Hour),
	}

	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), "b1", start, "pending", "payment_method_required"))

	got, err := repo.Create(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
	assert.Equal(t, model.PaymentMethodRequired, got.PaymentStatus)
	assert.Nil(t, got.CancelledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingPostgres_FindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingPostgres(db)
	ctx := context.Background()
	start := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = ?").WithArgs("b1").
			WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), "b1", start, "confirmed", "authorized"))
		b, err := repo.FindByID(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, model.BookingConfirmed, b.Status)
		assert.Equal(t, "pi_1", b.PaymentIntentID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = ?").WithArgs("nope").WillReturnError(sql.ErrNoRows)
		b, err := repo.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, b)
	})
}

func TestBookingPostgres_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingPostgres(db)
	now := time.Now().UTC()

	b := &model.Booking{ID: "b1", Status: model.BookingCancelled, PaymentStatus: model.PaymentReleased,
		CancelledBy: model.CancelledByStudent, CancellationReason: "schedule", CancelledAt: &now, UpdatedAt: now}

	mock.ExpectExec("UPDATE bookings").
		WithArgs("b1", sqlmock.AnyArg(), sqlmock.AnyArg(), "", "", "", 0, int64(0), "student", "schedule", now, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Update(context.Background(), b))

	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), &model.Booking{ID: "gone"}), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingPostgres_Update_CancelledBy(t *testing.T) {
	setCancelledBy := regexp.QuoteMeta("cancelled_by = NULLIF($9, ''),")

	tests := []struct {
		name string
		by   string
	}{
		{name: "student", by: model.CancelledByStudent},
		{name: "instructor", by: model.CancelledByInstructor},
		{name: "admin", by: model.CancelledByAdmin},
		{name: "system", by: model.CancelledBySystem},
		{name: "not cancelled", by: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewBookingPostgres(db)
			now := time.Now().UTC()
			b := &model.Booking{ID: "b1", Status: model.BookingCancelled, PaymentStatus: model.PaymentReleased,
				CancelledBy: tt.by, UpdatedAt: now}

			mock.ExpectExec(setCancelledBy).
				WithArgs("b1", sqlmock.AnyArg(), sqlmock.AnyArg(), "", "", "", 0, int64(0), tt.by, "", nil, nil, now).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repo.Update(context.Background(), b))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingColumns_CancelledByIsText(t *testing.T) {
	assert.NotContains(t, bookingColumns, "cancelled_by::")
	assert.Contains(t, bookingColumns, "COALESCE(cancelled_by, '')")
}

func TestBookingPostgres_ListOverlapping(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingPostgres(db)
	start := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE instructor_id").
		WithArgs("inst", start, start.Add(time.Hour), "b0").
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), "b1", start.Add(30*time.Minute), "confirmed", "scheduled"))

	got, err := repo.ListOverlapping(context.Background(), "inst", start, start.Add(time.Hour), "b0")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingPostgres_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingPostgres(db)
	from := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	f := repository.BookingFilter{Status: model.BookingConfirmed, InstructorID: "inst", From: from}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = \$1 AND instructor_id = \$2 AND start_at >= \$3`).
		WithArgs(sqlmock.AnyArg(), "inst", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE (.+) LIMIT \$4 OFFSET \$5`).
		WithArgs(sqlmock.AnyArg(), "inst", from, 20, 0).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), "b1", from.Add(time.Hour), "confirmed", "authorized"))

	res, err := repo.List(context.Background(), f, repository.PageQuery{Limit: 20, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingPostgres_ListForUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingPostgres(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE \(student_id = \$1 OR instructor_id = \$1\) AND end_at > \$2`).
		WithArgs("stu", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY start_at ASC`).
		WithArgs("stu", now, 10, 0).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	res, err := repo.ListForUser(context.Background(), "stu", true, now, repository.PageQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingPostgres_JobQueries(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery("WHERE payment_status = ").
		WithArgs(sqlmock.AnyArg(), now, 50).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), "b1", now.Add(time.Hour), "confirmed", "scheduled"))
	got, err := repo.ListByPaymentStatus(ctx, model.PaymentScheduled, now, 50)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	mock.ExpectQuery("status IN \\('completed', 'no_show'\\)").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	got, err = repo.ListAwaitingSettlement(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, got)

	mock.ExpectQuery("SELECT EXISTS").WithArgs("stu", "inst").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.HasSharedBooking(ctx, "stu", "inst")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("SELECT COUNT").WithArgs("stu").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := repo.CountCompletedByStudent(ctx, "stu")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	cols := []string{"id", "booking_id", "intent_id", "amount_cents", "application_fee_cents", "status", "attempt",
		"failure_reason", "created_at", "updated_at"}

	mock.ExpectQuery("INSERT INTO payments").
		WithArgs("p1", "b1", "pi_1", int64(6720), int64(1620), "requires_capture", 1, "", now).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("p1", "b1", "pi_1", 6720, 1620, "requires_capture", 1, "", now, now))
	p, err := repo.Create(ctx, &model.Payment{ID: "p1", BookingID: "b1", IntentID: "pi_1", AmountCents: 6720,
		ApplicationFeeCents: 1620, Status: "requires_capture", Attempt: 1, CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", p.IntentID)

	mock.ExpectExec("UPDATE payments").WithArgs("pi_1", "succeeded", "").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateStatus(ctx, "pi_1", "succeeded", ""))

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE booking_id").WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("p1", "b1", "pi_1", 6720, 1620, "succeeded", 1, "", now, now))
	list, err := repo.ListByBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}
