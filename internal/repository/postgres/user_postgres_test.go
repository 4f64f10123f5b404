package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
)

var userCols = []string{"id", "email", "password_hash", "first_name", "last_name", "role",
	"stripe_customer_id", "default_payment_method_id", "signup_device_id", "signup_ip_hash", "created_at"}

func TestUserPostgres_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserPostgres(db)
	now := time.Now().UTC()

	u := &model.User{ID: "u1", Email: "a@b.com", PasswordHash: "h", FirstName: "Ann", Role: model.RoleStudent,
		SignupDeviceID: "dev", CreatedAt: now}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("u1", "a@b.com", "h", "Ann", "", sqlmock.AnyArg(), "dev", "", now).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "a@b.com", "h", "Ann", "", "student", "", "", "dev", "", now))

	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, got.Role)
	assert.Equal(t, "dev", got.SignupDeviceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_FindByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE lower\(email\) = lower`).
			WithArgs("A@B.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "a@b.com", "h", "Ann", "Lee", "instructor", "cus_1", "pm_1", "", "", time.Now()))

		u, err := repo.FindByEmail(ctx, "A@B.com")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", u.StripeCustomerID)
		assert.Equal(t, "Ann Lee", u.FullName())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users`).WithArgs("x@y.z").WillReturnError(sql.ErrNoRows)
		_, err := repo.FindByEmail(ctx, "x@y.z")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestUserPostgres_UpdatePaymentProfile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserPostgres(db)

	mock.ExpectExec("UPDATE users").WithArgs("u1", "cus_1", "pm_1").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdatePaymentProfile(context.Background(), "u1", "cus_1", "pm_1"))

	mock.ExpectExec("UPDATE users").WithArgs("missing", "cus_1", "pm_1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePaymentProfile(context.Background(), "missing", "cus_1", "pm_1"), sql.ErrNoRows)
}

func TestCreditPostgres(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCreditPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	cols := []string{"id", "user_id", "amount_cents", "remaining_cents", "reason", "source_id", "expires_at", "created_at"}

	t.Run("list available", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM user_credits WHERE user_id").
			WithArgs("u1", now).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("c1", "u1", 2000, 500, "referral_reward", "r1", now.Add(time.Hour), now).
				AddRow("c2", "u1", 1000, 1000, "booking_refund", "", nil, now))

		got, err := repo.ListAvailable(ctx, "u1", now)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.NotNil(t, got[0].ExpiresAt)
		assert.Nil(t, got[1].ExpiresAt)
		assert.Equal(t, int64(500), got[0].RemainingCents)
	})

	t.Run("consume", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_credits").WithArgs("c1", int64(300)).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Consume(ctx, "c1", 300))
	})

	t.Run("consume more than remaining", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_credits").WithArgs("c1", int64(9000)).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Consume(ctx, "c1", 9000), sql.ErrNoRows)
	})

	t.Run("balance", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").WithArgs("u1", now).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(1500))
		bal, err := repo.Balance(ctx, "u1", now)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), bal)
	})

	t.Run("expire", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_credits SET remaining_cents = 0").WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))
		n, err := repo.ExpireDue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
