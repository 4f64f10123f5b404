// Package payment talks to the card processor. Lessons are charged to the
// platform with manual capture and the instructor share is paid out with a
// separate transfer to their connected account.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrDeclined means the processor refused the charge; retrying with the same card may fail again.
	ErrDeclined = errors.New("payment declined")
	// ErrInvalidSignature is returned for webhook payloads that fail verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Intent statuses reported by the processor that the booking flow cares about.
const (
	IntentRequiresCapture = "requires_capture"
	IntentSucceeded       = "succeeded"
	IntentCanceled        = "canceled"
)

// Webhook event types handled by the API.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
	EventChargeRefunded  = "charge.refunded"
	EventAccountUpdated  = "account.updated"
)

// AuthorizeRequest places a hold on the student's card for a booking.
type AuthorizeRequest struct {
	BookingID       string
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	PlatformCents   int64
	Description     string
	IdempotencyKey  string
}

// Intent is the processor's view of a payment.
type Intent struct {
	ID          string
	Status      string
	AmountCents int64
}

// TransferRequest moves funds from the platform to a connected account.
type TransferRequest struct {
	DestinationAccount string
	AmountCents        int64
	Group              string
	Description        string
	IdempotencyKey     string
}

// AccountStatus is the onboarding state of a connected account.
type AccountStatus struct {
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// WebhookEvent is a verified processor event reduced to the fields the API uses.
type WebhookEvent struct {
	ID             string
	Type           string
	IntentID       string
	AccountID      string
	PayoutsEnabled bool
	FailureMessage string
}

// Processor is the card processor used by bookings, payouts and instructor onboarding.
type Processor interface {
	CreateCustomer(ctx context.Context, userID, email, name string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	// Authorize confirms a manual-capture intent off session. A refused card
	// returns an error wrapping ErrDeclined.
	Authorize(ctx context.Context, req AuthorizeRequest) (*Intent, error)
	// Capture captures amountCents of an authorized intent; zero captures the full amount.
	Capture(ctx context.Context, intentID string, amountCents int64) (*Intent, error)
	Cancel(ctx context.Context, intentID string) error
	// Refund returns amountCents of a captured intent; zero refunds everything.
	Refund(ctx context.Context, intentID string, amountCents int64) (string, error)
	Transfer(ctx context.Context, req TransferRequest) (string, error)
	CreateConnectedAccount(ctx context.Context, userID, email string) (string, error)
	OnboardingLink(ctx context.Context, accountID string) (string, error)
	AccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
