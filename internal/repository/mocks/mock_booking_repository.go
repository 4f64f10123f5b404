package mocks

import (
	"context"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByIntentID(ctx context.Context, intentID string) (*model.Booking, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *model.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) LockInstructor(ctx context.Context, instructorID string) error {
	args := m.Called(ctx, instructorID)
	return args.Error(0)
}

func (m *MockBookingRepository) ListOverlapping(ctx context.Context, instructorID string, start time.Time, end time.Time, excludeID string) ([]model.Booking, error) {
	args := m.Called(ctx, instructorID, start, end, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListForUser(ctx context.Context, userID string, upcoming bool, now time.Time, pq repository.PageQuery) (*repository.PageResult[model.Booking], error) {
	args := m.Called(ctx, userID, upcoming, now, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Booking]), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, f repository.BookingFilter, pq repository.PageQuery) (*repository.PageResult[model.Booking], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Booking]), args.Error(1)
}

func (m *MockBookingRepository) ListByPaymentStatus(ctx context.Context, status model.PaymentStatus, startBefore time.Time, limit int) ([]model.Booking, error) {
	args := m.Called(ctx, status, startBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListAwaitingSettlement(ctx context.Context, limit int) ([]model.Booking, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingRepository) HasSharedBooking(ctx context.Context, studentID string, instructorID string) (bool, error) {
	args := m.Called(ctx, studentID, instructorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) CountCompletedByStudent(ctx context.Context, studentID string) (int, error) {
	args := m.Called(ctx, studentID)
	return args.Int(0), args.Error(1)
}
