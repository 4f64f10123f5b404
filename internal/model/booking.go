package model

import "time"

// BookingStatus is the lifecycle state of a lesson.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

// Who cancelled a booking. Cancellations by the platform itself, such as
// after failed authorizations, are recorded as CancelledBySystem.
const (
	CancelledByStudent    = string(RoleStudent)
	CancelledByInstructor = string(RoleInstructor)
	CancelledByAdmin      = string(RoleAdmin)
	CancelledBySystem     = "system"
)

// PaymentStatus tracks where the money for a booking is.
type PaymentStatus string

const (
	PaymentMethodRequired PaymentStatus = "payment_method_required"
	PaymentScheduled      PaymentStatus = "scheduled"
	PaymentAuthorized     PaymentStatus = "authorized"
	PaymentAuthFailed     PaymentStatus = "auth_failed"
	PaymentLocked         PaymentStatus = "locked"
	PaymentCaptured       PaymentStatus = "captured"
	PaymentReleased       PaymentStatus = "released"
	PaymentRefunded       PaymentStatus = "refunded"
	PaymentSettled        PaymentStatus = "settled"
)

// Booking is a scheduled lesson between a student and an instructor.
// Amounts are in cents. RescheduledFromID is set on the booking created by a
// reschedule and points at the booking it replaced.
type Booking struct {
	ID                  string        `json:"id"`
	StudentID           string        `json:"student_id"`
	InstructorID        string        `json:"instructor_id"`
	InstructorServiceID string        `json:"instructor_service_id"`
	ServiceName         string        `json:"service_name"`
	StartAt             time.Time     `json:"start_at"`
	EndAt               time.Time     `json:"end_at"`
	DurationMinutes     int           `json:"duration_minutes"`
	HourlyRateCents     int64         `json:"hourly_rate_cents"`
	PriceCents          int64         `json:"price_cents"`
	StudentFeeCents     int64         `json:"student_fee_cents"`
	TotalCents          int64         `json:"total_cents"`
	CreditsAppliedCents int64         `json:"credits_applied_cents"`
	Status              BookingStatus `json:"status"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	PaymentMethodID     string        `json:"-"`
	PaymentIntentID     string        `json:"-"`
	PayoutTransferID    string        `json:"-"`
	AuthAttempts        int           `json:"-"`
	LockedAmountCents   int64         `json:"locked_amount_cents,omitempty"`
	RescheduledFromID   string        `json:"rescheduled_from_id,omitempty"`
	CancelledBy         string        `json:"cancelled_by,omitempty"`
	CancellationReason  string        `json:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// ChargeCents is what the student's card is charged after credits.
func (b Booking) ChargeCents() int64 {
	c := b.TotalCents - b.CreditsAppliedCents
	if c < 0 {
		return 0
	}
	return c
}

// HoursUntilStart returns the (possibly negative) hours between now and the lesson start.
func (b Booking) HoursUntilStart(now time.Time) float64 {
	return b.StartAt.Sub(now).Hours()
}

// IsParticipant reports whether userID is the student or instructor of the booking.
func (b Booking) IsParticipant(userID string) bool {
	return userID != "" && (b.StudentID == userID || b.InstructorID == userID)
}

// Active reports whether the booking still occupies its time slot.
func (b Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// Overlaps reports whether [start, end) intersects the booking's time range.
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && start.Before(b.EndAt)
}
