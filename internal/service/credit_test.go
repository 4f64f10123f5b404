package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
	repoMocks "instainstru/internal/repository/mocks"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func TestCreditService_Apply(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		max        int64
		credits    []model.Credit
		setupMocks func(m *repoMocks.MockCreditRepository)
		want       int64
		wantErr    string
	}{
		{
			name:    "consumes oldest first up to the total",
			max:     1500,
			credits: []model.Credit{{ID: "c1", RemainingCents: 1000}, {ID: "c2", RemainingCents: 2000}},
			setupMocks: func(m *repoMocks.MockCreditRepository) {
				m.On("Consume", ctx, "c1", int64(1000)).Return(nil).Once()
				m.On("Consume", ctx, "c2", int64(500)).Return(nil).Once()
			},
			want: 1500,
		},
		{
			name:       "less credit than the total",
			max:        5000,
			credits:    []model.Credit{{ID: "c1", RemainingCents: 700}},
			setupMocks: func(m *repoMocks.MockCreditRepository) { m.On("Consume", ctx, "c1", int64(700)).Return(nil).Once() },
			want:       700,
		},
		{
			name:       "no credit",
			max:        5000,
			setupMocks: func(m *repoMocks.MockCreditRepository) {},
			want:       0,
		},
		{
			name:    "consume failure",
			max:     100,
			credits: []model.Credit{{ID: "c1", RemainingCents: 700}},
			setupMocks: func(m *repoMocks.MockCreditRepository) {
				m.On("Consume", ctx, "c1", int64(100)).Return(errors.New("db")).Once()
			},
			wantErr: "consume credit c1: db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(repoMocks.MockCreditRepository)
			repo.On("ListAvailable", ctx, "u1", testNow).Return(tt.credits, nil).Once()
			tt.setupMocks(repo)
			svc := &creditService{repo: repo, log: zerolog.Nop(), now: fixedClock}

			got, err := svc.Apply(ctx, "u1", tt.max)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestCreditService_Grant(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockCreditRepository)
	svc := &creditService{repo: repo, log: zerolog.Nop(), now: fixedClock}

	repo.On("Create", ctx, mock.MatchedBy(func(c *model.Credit) bool {
		return c.UserID == "u1" && c.RemainingCents == 2000 && c.ExpiresAt != nil &&
			c.ExpiresAt.Equal(testNow.Add(24*time.Hour)) && c.Reason == model.CreditReasonReferral
	})).Return(&model.Credit{ID: "c1"}, nil).Once()

	c, err := svc.Grant(ctx, "u1", 2000, model.CreditReasonReferral, "r1", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)

	_, err = svc.Grant(ctx, "u1", 0, model.CreditReasonReferral, "r1", 0)
	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertExpectations(t)
}
