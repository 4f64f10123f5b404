package mocks

import (
	"context"
	"time"

	"instainstru/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockAvailabilityRepository struct {
	mock.Mock
}

func (m *MockAvailabilityRepository) ListDays(ctx context.Context, instructorID string, from time.Time, to time.Time) ([]model.AvailabilityDay, error) {
	args := m.Called(ctx, instructorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AvailabilityDay), args.Error(1)
}

func (m *MockAvailabilityRepository) ReplaceDays(ctx context.Context, instructorID string, from time.Time, to time.Time, days []model.AvailabilityDay) error {
	args := m.Called(ctx, instructorID, from, to, days)
	return args.Error(0)
}

func (m *MockAvailabilityRepository) HasAnyFrom(ctx context.Context, instructorID string, from time.Time) (bool, error) {
	args := m.Called(ctx, instructorID, from)
	return args.Bool(0), args.Error(1)
}
