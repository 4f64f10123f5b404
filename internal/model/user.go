package model

import "time"

// Role identifies which side of the marketplace a user is on.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a role a user may register with.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

// User is a marketplace account. Payment processor identifiers and signup
// signals never leave the service layer.
type User struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	PasswordHash           string    `json:"-"`
	FirstName              string    `json:"first_name"`
	LastName               string    `json:"last_name"`
	Role                   Role      `json:"role"`
	StripeCustomerID       string    `json:"-"`
	DefaultPaymentMethodID string    `json:"-"`
	SignupDeviceID         string    `json:"-"`
	SignupIPHash           string    `json:"-"`
	CreatedAt              time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CreditReason records why platform credit was granted.
type CreditReason string

const (
	CreditReasonLateCancellation CreditReason = "late_cancellation"
	CreditReasonRefund           CreditReason = "booking_refund"
	CreditReasonReferral         CreditReason = "referral_reward"
)

// Credit is a platform balance grant. RemainingCents decreases as the credit
// is applied to bookings; expired credits have RemainingCents zeroed.
type Credit struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	AmountCents    int64        `json:"amount_cents"`
	RemainingCents int64        `json:"remaining_cents"`
	Reason         CreditReason `json:"reason"`
	SourceID       string       `json:"source_id,omitempty"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
