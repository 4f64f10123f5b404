package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
)

func TestSearchPostgres(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSearchPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM instructor_services s (.+) WHERE s.is_active AND p.is_live").
		WithArgs(int64(0), int64(5000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sid", "cid", "sname", "cname", "keywords", "rate", "durations"}).
			AddRow("inst", "Ann Lee", "s1", "c1", "Piano", "Music", "music piano", 4500, []byte(`[30,60]`)))
	offerings, err := repo.ListLiveOfferings(ctx, 0, 5000)
	require.NoError(t, err)
	require.Len(t, offerings, 1)
	assert.Equal(t, []string{"music", "piano"}, offerings[0].Keywords)
	assert.Equal(t, []int{30, 60}, offerings[0].DurationOptions)

	mock.ExpectExec("INSERT INTO search_events").
		WithArgs("e1", "", "piano", []byte(`[]`), 0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RecordEvent(ctx, &model.SearchEvent{ID: "e1", Query: "piano", CreatedAt: now}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsPostgres(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalyticsPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM catalog_services cs").WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "b7", "b30", "u30", "ai", "avg", "s7"}).
			AddRow("c1", 2, 5, 4, 3, 5500, 10))
	stats, err := repo.ComputeServiceStats(ctx, now)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 5, stats[0].Bookings30d)
	assert.Equal(t, now, stats[0].CalculatedAt)

	a := stats[0]
	a.DemandScore = 24
	mock.ExpectExec("INSERT INTO service_analytics").
		WithArgs("c1", 2, 5, 4, 3, int64(5500), 10, float64(24), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Upsert(ctx, &a))

	assert.NoError(t, mock.ExpectationsWereMet())
}
