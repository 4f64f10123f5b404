package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"instainstru/internal/config"
	"instainstru/internal/model"
	"instainstru/internal/payment"
	"instainstru/internal/repository"
)

const jobBatchSize = 100

// PaymentService runs the background payment jobs and applies processor webhooks.
type PaymentService interface {
	// AuthorizeScheduled authorizes confirmed bookings starting within 24 hours.
	AuthorizeScheduled(ctx context.Context) (int, error)
	// RetryFailed retries failed authorizations and cancels bookings that ran
	// out of attempts or time. A pending booking whose retry succeeds becomes
	// confirmed.
	RetryFailed(ctx context.Context) (int, error)
	// CaptureCompleted captures finished lessons and pays instructors.
	CaptureCompleted(ctx context.Context) (int, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	bookings    repository.BookingRepository
	payments    repository.PaymentRepository
	instructors InstructorService
	processor   payment.Processor
	lifecycle   *bookingService
	flow        *paymentFlow
	log         zerolog.Logger
	now         func() time.Time
}

// NewPaymentService constructs a PaymentService sharing the booking
// lifecycle rules of the booking service.
func NewPaymentService(d BookingDeps, instructors InstructorService, pricing Pricing, referral config.ReferralConfig, logger zerolog.Logger) PaymentService {
	lifecycle := newBookingService(d, pricing, referral, logger)
	return &paymentService{
		bookings:    d.Bookings,
		payments:    d.Payments,
		instructors: instructors,
		processor:   d.Processor,
		lifecycle:   lifecycle,
		flow:        lifecycle.flow,
		log:         logger,
		now:         time.Now,
	}
}

func (s *paymentService) AuthorizeScheduled(ctx context.Context) (int, error) {
	due, err := s.bookings.ListByPaymentStatus(ctx, model.PaymentScheduled, s.now().Add(authorizeAhead*time.Hour), jobBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list scheduled: %w", err)
	}
	n := 0
	for i := range due {
		b := &due[i]
		if err := s.flow.authorize(ctx, b); err != nil {
			s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("scheduled authorization failed")
		} else {
			n++
		}
		if err := s.lifecycle.save(ctx, b); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *paymentService) RetryFailed(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.bookings.ListByPaymentStatus(ctx, model.PaymentAuthFailed, now.Add(authorizeAhead*time.Hour), jobBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list failed authorizations: %w", err)
	}
	n := 0
	for i := range due {
		b := &due[i]
		if b.AuthAttempts < maxAuthAttempts {
			if err := s.flow.authorize(ctx, b); err == nil {
				confirmed := b.Status == model.BookingPending
				if confirmed {
					b.Status = model.BookingConfirmed
				}
				if err := s.lifecycle.save(ctx, b); err != nil {
					return n, err
				}
				if confirmed {
					s.lifecycle.notifyConfirmed(ctx, b)
				}
				n++
				continue
			}
		}
		if b.AuthAttempts >= maxAuthAttempts || b.HoursUntilStart(now) <= finalRetryHours {
			s.log.Warn().Str("booking_id", b.ID).Int("attempts", b.AuthAttempts).Msg("cancelling booking after failed authorization")
			if err := s.lifecycle.cancel(ctx, b, outcomeRelease, model.CancelledBySystem, ReasonPaymentFailed); err != nil {
				return n, err
			}
			continue
		}
		if err := s.lifecycle.save(ctx, b); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *paymentService) CaptureCompleted(ctx context.Context) (int, error) {
	due, err := s.bookings.ListAwaitingSettlement(ctx, jobBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list awaiting settlement: %w", err)
	}
	n := 0
	for i := range due {
		b := &due[i]
		before := b.PaymentStatus
		if err := s.flow.settle(ctx, b); err != nil {
			s.log.Error().Err(err).Str("booking_id", b.ID).Msg("settle booking")
		}
		if b.PaymentStatus == before {
			continue
		}
		if err := s.lifecycle.save(ctx, b); err != nil {
			return n, err
		}
		if b.PaymentStatus == model.PaymentSettled {
			n++
		}
	}
	return n, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.processor.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return errorf(ErrUnauthorized, "invalid webhook signature")
		}
		return errorf(ErrValidation, "malformed webhook payload")
	}
	log := s.log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	switch ev.Type {
	case payment.EventAccountUpdated:
		if err := s.instructors.SetPayoutsByAccount(ctx, ev.AccountID, ev.PayoutsEnabled); err != nil {
			if errors.Is(err, ErrNotFound) {
				log.Warn().Str("account_id", ev.AccountID).Msg("webhook for unknown account")
				return nil
			}
			return err
		}
		return nil
	case payment.EventIntentSucceeded, payment.EventIntentFailed, payment.EventIntentCanceled, payment.EventChargeRefunded:
	default:
		log.Debug().Msg("ignoring webhook event")
		return nil
	}

	status := intentStatusFor(ev.Type)
	if err := s.payments.UpdateStatus(ctx, ev.IntentID, status, ev.FailureMessage); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	b, err := s.bookings.FindByIntentID(ctx, ev.IntentID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn().Str("intent_id", ev.IntentID).Msg("webhook for unknown payment intent")
		return nil
	}
	if err != nil {
		return err
	}

	next := webhookTransition(ev.Type, b.PaymentStatus)
	if next == "" || next == b.PaymentStatus {
		return nil
	}
	log.Info().Str("booking_id", b.ID).Str("from", string(b.PaymentStatus)).Str("to", string(next)).Msg("payment status updated by webhook")
	b.PaymentStatus = next
	return s.lifecycle.save(ctx, b)
}

func intentStatusFor(eventType string) string {
	switch eventType {
	case payment.EventIntentSucceeded:
		return payment.IntentSucceeded
	case payment.EventIntentCanceled:
		return payment.IntentCanceled
	case payment.EventChargeRefunded:
		return "refunded"
	}
	return "failed"
}

// webhookTransition returns the booking payment status implied by an event,
// or "" when the event does not move the booking from current.
func webhookTransition(eventType string, current model.PaymentStatus) model.PaymentStatus {
	switch eventType {
	case payment.EventIntentSucceeded:
		if current == model.PaymentAuthorized {
			return model.PaymentCaptured
		}
	case payment.EventIntentFailed:
		if current == model.PaymentAuthorized || current == model.PaymentScheduled {
			return model.PaymentAuthFailed
		}
	case payment.EventIntentCanceled:
		if current == model.PaymentAuthorized {
			return model.PaymentReleased
		}
	case payment.EventChargeRefunded:
		if current != model.PaymentRefunded {
			return model.PaymentRefunded
		}
	}
	return ""
}
