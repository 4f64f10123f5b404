package mocks

import (
	"context"

	"instainstru/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) ListLiveOfferings(ctx context.Context, minCents int64, maxCents int64) ([]model.Offering, error) {
	args := m.Called(ctx, minCents, maxCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offering), args.Error(1)
}

func (m *MockSearchRepository) RecordEvent(ctx context.Context, e *model.SearchEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
