package model

import "time"

// Payment records one processor PaymentIntent created for a booking.
type Payment struct {
	ID                  string    `json:"id"`
	BookingID           string    `json:"booking_id"`
	IntentID            string    `json:"intent_id"`
	AmountCents         int64     `json:"amount_cents"`
	ApplicationFeeCents int64     `json:"application_fee_cents"`
	Status              string    `json:"status"`
	Attempt             int       `json:"attempt"`
	FailureReason       string    `json:"failure_reason,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
