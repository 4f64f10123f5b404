package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTxManager_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit joins repository calls", func(t *testing.T) {
		db, mock := newMock(t)
		tm := NewTxManager(db)
		repo := NewBookingPostgres(db)

		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs("inst-1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := tm.WithinTx(ctx, func(ctx context.Context) error {
			return repo.LockInstructor(ctx, "inst-1")
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock := newMock(t)
		tm := NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := tm.WithinTx(ctx, func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call reuses transaction", func(t *testing.T) {
		db, mock := newMock(t)
		tm := NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := tm.WithinTx(ctx, func(ctx context.Context) error {
			return tm.WithinTx(ctx, func(context.Context) error { return nil })
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		db, mock := newMock(t)
		tm := NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = tm.WithinTx(ctx, func(context.Context) error { panic("bad") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExpectRow(t *testing.T) {
	assert.ErrorIs(t, expectRow(sqlmock.NewResult(0, 0)), sql.ErrNoRows)
	assert.NoError(t, expectRow(sqlmock.NewResult(0, 1)))
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, timePtr(sql.NullTime{}))
	now := time.Now()
	require.NotNil(t, timePtr(sql.NullTime{Time: now, Valid: true}))
	assert.Nil(t, nullTime(nil))
	assert.Equal(t, now, nullTime(&now))
}
