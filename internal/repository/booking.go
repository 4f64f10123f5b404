package repository

import (
	"context"
	"time"

	"instainstru/internal/model"
)

// BookingFilter narrows admin booking listings. Zero values are ignored.
type BookingFilter struct {
	Status       model.BookingStatus
	InstructorID string
	StudentID    string
	From         time.Time
	To           time.Time
}

// BookingRepository persists bookings.
type BookingRepository interface {
	Create(ctx context.Context, b *model.Booking) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByIntentID(ctx context.Context, intentID string) (*model.Booking, error)
	// Update writes the mutable lifecycle and payment fields.
	Update(ctx context.Context, b *model.Booking) error
	// LockInstructor serializes booking writes for one instructor until the
	// surrounding transaction ends.
	LockInstructor(ctx context.Context, instructorID string) error
	// ListOverlapping returns pending or confirmed bookings of the instructor
	// intersecting [start, end), skipping excludeID.
	ListOverlapping(ctx context.Context, instructorID string, start, end time.Time, excludeID string) ([]model.Booking, error)
	ListForUser(ctx context.Context, userID string, upcoming bool, now time.Time, pq PageQuery) (*PageResult[model.Booking], error)
	List(ctx context.Context, f BookingFilter, pq PageQuery) (*PageResult[model.Booking], error)
	// ListByPaymentStatus returns active bookings in status starting before startBefore.
	ListByPaymentStatus(ctx context.Context, status model.PaymentStatus, startBefore time.Time, limit int) ([]model.Booking, error)
	// ListAwaitingSettlement returns completed or no-show bookings whose payment
	// has not reached the instructor yet, plus late cancellations left captured.
	ListAwaitingSettlement(ctx context.Context, limit int) ([]model.Booking, error)
	HasSharedBooking(ctx context.Context, studentID, instructorID string) (bool, error)
	CountCompletedByStudent(ctx context.Context, studentID string) (int, error)
}

// PaymentRepository records processor PaymentIntents.
type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)
	UpdateStatus(ctx context.Context, intentID, status, failureReason string) error
	ListByBooking(ctx context.Context, bookingID string) ([]model.Payment, error)
}
