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
	"instainstru/internal/repository"
)

var rewardCols = []string{"id", "attribution_id", "beneficiary_id", "side", "amount_cents", "status", "booking_id",
	"unlock_at", "unlocked_at", "void_reason", "transfer_id", "created_at"}

func TestReferralPostgres_Codes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReferralPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO referral_codes").WithArgs("u1", "ABCD2345", now).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreateCode(ctx, &model.ReferralCode{UserID: "u1", Code: "ABCD2345", CreatedAt: now}))

	mock.ExpectQuery(`WHERE code = upper`).WithArgs("abcd2345").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "code", "created_at"}).AddRow("u1", "ABCD2345", now))
	c, err := repo.FindCode(ctx, "abcd2345")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)

	mock.ExpectQuery(`WHERE user_id = `).WithArgs("u2").WillReturnError(sql.ErrNoRows)
	_, err = repo.FindCodeByUser(ctx, "u2")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralPostgres_Attributions(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReferralPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	cols := []string{"id", "referrer_id", "referee_id", "code", "device_id", "ip_hash", "flagged", "flag_reason", "created_at"}

	mock.ExpectQuery("INSERT INTO referral_attributions").
		WithArgs("a1", "u1", "u2", "ABCD2345", "dev", "", true, "shared_device", now).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a1", "u1", "u2", "ABCD2345", "dev", "", true, "shared_device", now))
	a, err := repo.CreateAttribution(ctx, &model.ReferralAttribution{ID: "a1", ReferrerID: "u1", RefereeID: "u2",
		Code: "ABCD2345", DeviceID: "dev", Flagged: true, FlagReason: "shared_device", CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, a.Flagged)

	since := now.Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT COUNT").WithArgs("u1", since).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	n, err := repo.CountAttributionsSince(ctx, "u1", since)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralPostgres_Rewards(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReferralPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO referral_rewards").
		WillReturnRows(sqlmock.NewRows(rewardCols).AddRow("r1", "a1", "u1", "referrer", 2000, "pending", "b1", now, nil, "", "", now))
	rw, err := repo.CreateReward(ctx, &model.ReferralReward{ID: "r1", AttributionID: "a1", BeneficiaryID: "u1",
		Side: model.RewardReferrer, AmountCents: 2000, Status: model.RewardPending, BookingID: "b1", UnlockAt: now, CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, model.RewardPending, rw.Status)

	mock.ExpectQuery("WHERE status = 'pending' AND unlock_at").WithArgs(now, 100).
		WillReturnRows(sqlmock.NewRows(rewardCols).AddRow("r1", "a1", "u1", "referrer", 2000, "pending", "b1", now, nil, "", "", now))
	due, err := repo.ListDueRewards(ctx, now, 100)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	rw.Status = model.RewardUnlocked
	rw.UnlockedAt = &now
	rw.TransferID = "tr_1"
	mock.ExpectExec("UPDATE referral_rewards").
		WithArgs("r1", "unlocked", now, now, "", "tr_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateReward(ctx, rw))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM referral_rewards WHERE status = 'held'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("WHERE status = 'held'").WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(rewardCols).AddRow("r2", "a2", "u3", "referee", 2000, "held", "b2", now, nil, "", "", now))
	held, err := repo.ListHeldRewards(ctx, repository.PageQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, held.Total)

	assert.NoError(t, mock.ExpectationsWereMet())
}
