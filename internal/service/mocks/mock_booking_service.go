package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/model"
	"instainstru/internal/repository"
	"instainstru/internal/service"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) booking(args mock.Arguments) (*model.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) Create(ctx context.Context, studentID string, in service.CreateBookingInput) (*model.Booking, error) {
	return m.booking(m.Called(ctx, studentID, in))
}

func (m *MockBookingService) ConfirmPayment(ctx context.Context, studentID, bookingID, paymentMethodID string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, studentID, bookingID, paymentMethodID))
}

func (m *MockBookingService) Cancel(ctx context.Context, actor service.Actor, bookingID, reason string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, actor, bookingID, reason))
}

func (m *MockBookingService) Reschedule(ctx context.Context, studentID, bookingID string, newStart time.Time) (*model.Booking, error) {
	return m.booking(m.Called(ctx, studentID, bookingID, newStart))
}

func (m *MockBookingService) Complete(ctx context.Context, instructorID, bookingID string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, instructorID, bookingID))
}

func (m *MockBookingService) MarkNoShow(ctx context.Context, instructorID, bookingID string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, instructorID, bookingID))
}

func (m *MockBookingService) Get(ctx context.Context, actor service.Actor, bookingID string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, actor, bookingID))
}

func (m *MockBookingService) ListMine(ctx context.Context, userID string, upcoming bool, limit, offset int) (*service.ListResult[model.Booking], error) {
	args := m.Called(ctx, userID, upcoming, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Booking]), args.Error(1)
}

func (m *MockBookingService) AdminList(ctx context.Context, f repository.BookingFilter, limit, offset int) (*service.ListResult[model.Booking], error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Booking]), args.Error(1)
}

func (m *MockBookingService) AdminCancel(ctx context.Context, bookingID, reason string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, bookingID, reason))
}
