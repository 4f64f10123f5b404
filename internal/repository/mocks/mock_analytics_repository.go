package mocks

import (
	"context"
	"time"

	"instainstru/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) ComputeServiceStats(ctx context.Context, now time.Time) ([]model.ServiceAnalytics, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ServiceAnalytics), args.Error(1)
}

func (m *MockAnalyticsRepository) Upsert(ctx context.Context, a *model.ServiceAnalytics) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) Get(ctx context.Context, catalogServiceID string) (*model.ServiceAnalytics, error) {
	args := m.Called(ctx, catalogServiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ServiceAnalytics), args.Error(1)
}
