package mocks

import (
	"context"
	"time"

	"instainstru/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) Create(ctx context.Context, c *model.Credit) (*model.Credit, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credit), args.Error(1)
}

func (m *MockCreditRepository) ListAvailable(ctx context.Context, userID string, now time.Time) ([]model.Credit, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Credit), args.Error(1)
}

func (m *MockCreditRepository) Consume(ctx context.Context, creditID string, amount int64) error {
	args := m.Called(ctx, creditID, amount)
	return args.Error(0)
}

func (m *MockCreditRepository) Balance(ctx context.Context, userID string, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCreditRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
