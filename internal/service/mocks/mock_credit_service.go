package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/model"
)

type MockCreditService struct {
	mock.Mock
}

func (m *MockCreditService) Balance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCreditService) Grant(ctx context.Context, userID string, amountCents int64, reason model.CreditReason, sourceID string, ttl time.Duration) (*model.Credit, error) {
	args := m.Called(ctx, userID, amountCents, reason, sourceID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credit), args.Error(1)
}

func (m *MockCreditService) Apply(ctx context.Context, userID string, maxCents int64) (int64, error) {
	args := m.Called(ctx, userID, maxCents)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCreditService) ExpireDue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
