package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/metrics"
	"instainstru/internal/model"
	"instainstru/internal/payment"
	"instainstru/internal/repository"
)

// errPayoutPending means the instructor cannot receive transfers yet; the
// settlement job retries later.
var errPayoutPending = errors.New("instructor payouts not enabled")

// paymentFlow moves a booking's money through the processor. Each method
// mutates the booking's payment fields; callers persist the booking.
type paymentFlow struct {
	processor   payment.Processor
	payments    repository.PaymentRepository
	users       repository.UserRepository
	instructors repository.InstructorRepository
	pricing     Pricing
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

func (f *paymentFlow) platformCents(b *model.Booking) int64 {
	return b.StudentFeeCents + (b.PriceCents - f.pricing.InstructorShare(b.PriceCents))
}

// authorize places a manual-capture hold for the booking's charge.
func (f *paymentFlow) authorize(ctx context.Context, b *model.Booking) error {
	if b.ChargeCents() == 0 {
		b.PaymentStatus = model.PaymentSettled
		return nil
	}
	if b.PaymentMethodID == "" {
		return errorf(ErrValidation, "booking has no payment method")
	}
	student, err := f.users.FindByID(ctx, b.StudentID)
	if err != nil {
		return notFound(err, "student")
	}
	if student.StripeCustomerID == "" {
		return errorf(ErrValidation, "student has no payment profile")
	}

	b.AuthAttempts++
	req := payment.AuthorizeRequest{
		BookingID:       b.ID,
		CustomerID:      student.StripeCustomerID,
		PaymentMethodID: b.PaymentMethodID,
		AmountCents:     b.ChargeCents(),
		PlatformCents:   f.platformCents(b),
		Description:     fmt.Sprintf("%s lesson, %d min", b.ServiceName, b.DurationMinutes),
		IdempotencyKey:  fmt.Sprintf("booking-%s-auth-%d", b.ID, b.AuthAttempts),
	}
	intent, authErr := f.processor.Authorize(ctx, req)
	if intent != nil {
		f.record(ctx, b, intent, req, authErr)
	}
	if authErr != nil {
		b.PaymentStatus = model.PaymentAuthFailed
		outcome := "error"
		msg := "card authorization failed"
		if errors.Is(authErr, payment.ErrDeclined) {
			outcome = "declined"
			msg = "card was declined"
		}
		f.metrics.Authorization(outcome)
		f.log.Warn().Err(authErr).Str("booking_id", b.ID).Int("attempt", b.AuthAttempts).Msg("authorization failed")
		return errorf(ErrPaymentFailed, "%s", msg)
	}
	b.PaymentIntentID = intent.ID
	b.PaymentStatus = model.PaymentAuthorized
	f.metrics.Authorization("authorized")
	return nil
}

func (f *paymentFlow) record(ctx context.Context, b *model.Booking, intent *payment.Intent, req payment.AuthorizeRequest, authErr error) {
	p := &model.Payment{
		ID:                  uuid.NewString(),
		BookingID:           b.ID,
		IntentID:            intent.ID,
		AmountCents:         req.AmountCents,
		ApplicationFeeCents: req.PlatformCents,
		Status:              intent.Status,
		Attempt:             b.AuthAttempts,
	}
	if authErr != nil {
		p.FailureReason = authErr.Error()
	}
	if _, err := f.payments.Create(ctx, p); err != nil {
		f.log.Error().Err(err).Str("intent_id", intent.ID).Msg("record payment")
	}
}

func (f *paymentFlow) markPayment(ctx context.Context, intentID, status string) {
	if intentID == "" {
		return
	}
	if err := f.payments.UpdateStatus(ctx, intentID, status, ""); err != nil {
		f.log.Error().Err(err).Str("intent_id", intentID).Str("status", status).Msg("update payment")
	}
}

// capture makes sure the charge is collected, authorizing first when the
// booking never got a hold.
func (f *paymentFlow) capture(ctx context.Context, b *model.Booking) error {
	switch b.PaymentStatus {
	case model.PaymentScheduled, model.PaymentAuthFailed:
		if err := f.authorize(ctx, b); err != nil {
			return err
		}
		if b.PaymentStatus == model.PaymentSettled {
			return nil
		}
	case model.PaymentCaptured, model.PaymentLocked, model.PaymentSettled:
		return nil
	case model.PaymentAuthorized:
	default:
		return errorf(ErrConflict, "payment is %s", b.PaymentStatus)
	}
	if _, err := f.processor.Capture(ctx, b.PaymentIntentID, 0); err != nil {
		return fmt.Errorf("capture booking %s: %w", b.ID, err)
	}
	f.markPayment(ctx, b.PaymentIntentID, payment.IntentSucceeded)
	b.PaymentStatus = model.PaymentCaptured
	return nil
}

// release returns the student's money: an open hold is cancelled and a
// captured charge is refunded.
func (f *paymentFlow) release(ctx context.Context, b *model.Booking) error {
	switch b.PaymentStatus {
	case model.PaymentAuthorized:
		if err := f.processor.Cancel(ctx, b.PaymentIntentID); err != nil {
			return fmt.Errorf("release booking %s: %w", b.ID, err)
		}
		f.markPayment(ctx, b.PaymentIntentID, payment.IntentCanceled)
		b.PaymentStatus = model.PaymentReleased
	case model.PaymentScheduled, model.PaymentAuthFailed:
		b.PaymentStatus = model.PaymentReleased
	case model.PaymentCaptured, model.PaymentLocked:
		return f.refund(ctx, b, 0)
	case model.PaymentSettled:
		if b.PaymentIntentID != "" {
			return f.refund(ctx, b, 0)
		}
	}
	return nil
}

// refund returns amountCents of the captured charge; zero refunds it all.
func (f *paymentFlow) refund(ctx context.Context, b *model.Booking, amountCents int64) error {
	if b.PaymentIntentID == "" {
		b.PaymentStatus = model.PaymentRefunded
		return nil
	}
	if _, err := f.processor.Refund(ctx, b.PaymentIntentID, amountCents); err != nil {
		return fmt.Errorf("refund booking %s: %w", b.ID, err)
	}
	f.markPayment(ctx, b.PaymentIntentID, "refunded")
	b.PaymentStatus = model.PaymentRefunded
	return nil
}

// payout transfers the instructor's share of a captured booking.
func (f *paymentFlow) payout(ctx context.Context, b *model.Booking) error {
	if b.PaymentStatus != model.PaymentCaptured && b.PaymentStatus != model.PaymentLocked {
		return nil
	}
	amount := f.pricing.InstructorShare(b.PriceCents)
	if amount <= 0 {
		b.PaymentStatus = model.PaymentSettled
		return nil
	}
	profile, err := f.instructors.FindProfile(ctx, b.InstructorID)
	if err != nil {
		return notFound(err, "instructor")
	}
	if profile.StripeAccountID == "" || !profile.PayoutsEnabled {
		return errPayoutPending
	}
	id, err := f.processor.Transfer(ctx, payment.TransferRequest{
		DestinationAccount: profile.StripeAccountID,
		AmountCents:        amount,
		Group:              "booking-" + b.ID,
		Description:        fmt.Sprintf("%s lesson %s", b.ServiceName, b.StartAt.Format(DateLayout)),
		IdempotencyKey:     "booking-" + b.ID + "-payout",
	})
	if err != nil {
		return fmt.Errorf("payout booking %s: %w", b.ID, err)
	}
	b.PayoutTransferID = id
	b.PaymentStatus = model.PaymentSettled
	return nil
}

// settle captures and pays the instructor. A pending payout is not an error.
func (f *paymentFlow) settle(ctx context.Context, b *model.Booking) error {
	if err := f.capture(ctx, b); err != nil {
		return err
	}
	if err := f.payout(ctx, b); err != nil && !errors.Is(err, errPayoutPending) {
		return err
	}
	return nil
}
