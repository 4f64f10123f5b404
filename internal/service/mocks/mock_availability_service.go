package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/availability"
	"instainstru/internal/service"
)

type MockAvailabilityService struct {
	mock.Mock
}

func (m *MockAvailabilityService) GetWeek(ctx context.Context, instructorID string, weekStart time.Time) (*service.WeekAvailability, error) {
	args := m.Called(ctx, instructorID, weekStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WeekAvailability), args.Error(1)
}

func (m *MockAvailabilityService) SaveWeek(ctx context.Context, instructorID string, weekStart time.Time, days map[string][]availability.Window) (*service.WeekAvailability, error) {
	args := m.Called(ctx, instructorID, weekStart, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WeekAvailability), args.Error(1)
}

func (m *MockAvailabilityService) CopyWeek(ctx context.Context, instructorID string, from, to time.Time) (*service.WeekAvailability, error) {
	args := m.Called(ctx, instructorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WeekAvailability), args.Error(1)
}

func (m *MockAvailabilityService) IsBookable(ctx context.Context, instructorID string, start, end time.Time, excludeBookingID string) (bool, error) {
	args := m.Called(ctx, instructorID, start, end, excludeBookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityService) OpenSlots(ctx context.Context, instructorID string, date time.Time, durationMin int) ([]service.Slot, error) {
	args := m.Called(ctx, instructorID, date, durationMin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Slot), args.Error(1)
}
