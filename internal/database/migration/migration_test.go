package migration

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()
	checkQuery := regexp.QuoteMeta("SELECT to_regclass($1) IS NOT NULL")

	t.Run("schema exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		mock.ExpectQuery(checkQuery).WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err = EnsureMigrated(ctx, db, zerolog.New(&buf), "localhost")
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "db_migration_skip")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs every step", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		mock.ExpectQuery("SELECT to_regclass($1) IS NOT NULL").WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		for _, s := range steps {
			mock.ExpectExec(s.SQL).WillReturnResult(sqlmock.NewResult(0, 0))
		}

		err = EnsureMigrated(ctx, db, zerolog.New(&buf), "localhost")
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "db_migration_success")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("step failure stops migration", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		mock.ExpectQuery("SELECT to_regclass($1) IS NOT NULL").WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(steps[0].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(steps[1].SQL).WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(ctx, db, zerolog.New(&buf), "localhost")
		require.Error(t, err)
		assert.Contains(t, err.Error(), steps[1].Name)
		assert.Contains(t, buf.String(), `"status":"error"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("check failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(checkQuery).WillReturnError(errors.New("conn refused"))

		err = EnsureMigrated(ctx, db, zerolog.Nop(), "localhost")
		assert.ErrorContains(t, err, "sentinel")
	})
}

func TestStepsAreUniqueAndOrdered(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range steps {
		assert.False(t, seen[s.Name], "duplicate step %s", s.Name)
		seen[s.Name] = true
	}
	assert.Equal(t, "create_extension_uuid_ossp", steps[0].Name)
	assert.Equal(t, "create_table_service_analytics", steps[len(steps)-1].Name)
}

func TestBookingsCancelledByStoresRoles(t *testing.T) {
	var bookings string
	for _, s := range steps {
		if s.Name == "create_table_bookings" {
			bookings = s.SQL
		}
	}
	require.NotEmpty(t, bookings)
	assert.Regexp(t, `cancelled_by\s+TEXT\s+CHECK \(cancelled_by IN \('student', 'instructor', 'admin', 'system'\)\)`, bookings)
}
