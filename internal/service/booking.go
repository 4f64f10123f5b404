package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/availability"
	"instainstru/internal/config"
	"instainstru/internal/metrics"
	"instainstru/internal/model"
	"instainstru/internal/notification"
	"instainstru/internal/payment"
	"instainstru/internal/repository"
)

// Cancellation reasons set by the system.
const (
	ReasonRescheduled   = "rescheduled"
	ReasonPaymentFailed = "payment_failed"
	// ReasonRescheduleFailed marks the replacement booking of a reschedule
	// whose payment could not be moved.
	ReasonRescheduleFailed = "reschedule_failed"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   model.Role
}

// IsAdmin reports whether the actor has admin rights.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// CreateBookingInput is a booking request from a student.
type CreateBookingInput struct {
	InstructorServiceID string    `json:"instructor_service_id"`
	StartAt             time.Time `json:"start_at"`
	DurationMinutes     int       `json:"duration_minutes"`
}

// BookingService runs the booking lifecycle.
type BookingService interface {
	Create(ctx context.Context, studentID string, in CreateBookingInput) (*model.Booking, error)
	ConfirmPayment(ctx context.Context, studentID, bookingID, paymentMethodID string) (*model.Booking, error)
	Cancel(ctx context.Context, actor Actor, bookingID, reason string) (*model.Booking, error)
	Reschedule(ctx context.Context, studentID, bookingID string, newStart time.Time) (*model.Booking, error)
	Complete(ctx context.Context, instructorID, bookingID string) (*model.Booking, error)
	MarkNoShow(ctx context.Context, instructorID, bookingID string) (*model.Booking, error)
	Get(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error)
	ListMine(ctx context.Context, userID string, upcoming bool, limit, offset int) (*ListResult[model.Booking], error)
	AdminList(ctx context.Context, f repository.BookingFilter, limit, offset int) (*ListResult[model.Booking], error)
	// AdminCancel cancels with a full refund regardless of policy.
	AdminCancel(ctx context.Context, bookingID, reason string) (*model.Booking, error)
}

// BookingDeps groups the collaborators of the booking service.
type BookingDeps struct {
	Tx           repository.Transactor
	Bookings     repository.BookingRepository
	Payments     repository.PaymentRepository
	Users        repository.UserRepository
	Instructors  repository.InstructorRepository
	Availability AvailabilityService
	Credits      CreditService
	Referrals    ReferralService
	Processor    payment.Processor
	Notifier     notification.Notifier
	Metrics      *metrics.Metrics
}

type bookingService struct {
	tx          repository.Transactor
	bookings    repository.BookingRepository
	users       repository.UserRepository
	instructors repository.InstructorRepository
	avail       AvailabilityService
	credits     CreditService
	referrals   ReferralService
	processor   payment.Processor
	notifier    notification.Notifier
	metrics     *metrics.Metrics
	flow        *paymentFlow
	pricing     Pricing
	creditTTL   time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(d BookingDeps, pricing Pricing, referral config.ReferralConfig, logger zerolog.Logger) BookingService {
	return newBookingService(d, pricing, referral, logger)
}

func newBookingService(d BookingDeps, pricing Pricing, referral config.ReferralConfig, logger zerolog.Logger) *bookingService {
	return &bookingService{
		tx:          d.Tx,
		bookings:    d.Bookings,
		users:       d.Users,
		instructors: d.Instructors,
		avail:       d.Availability,
		credits:     d.Credits,
		referrals:   d.Referrals,
		processor:   d.Processor,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		flow:        newPaymentFlow(d, pricing, logger),
		pricing:     pricing,
		creditTTL:   time.Duration(referral.CreditTTLDays) * 24 * time.Hour,
		log:         logger,
		now:         time.Now,
	}
}

func newPaymentFlow(d BookingDeps, pricing Pricing, logger zerolog.Logger) *paymentFlow {
	return &paymentFlow{
		processor:   d.Processor,
		payments:    d.Payments,
		users:       d.Users,
		instructors: d.Instructors,
		pricing:     pricing,
		metrics:     d.Metrics,
		log:         logger,
	}
}

func (s *bookingService) validateStart(start time.Time) error {
	if start.IsZero() {
		return errorf(ErrValidation, "start_at is required")
	}
	if start.Second() != 0 || start.Nanosecond() != 0 || availability.MinuteOfDay(start)%availability.SlotMinutes != 0 {
		return errorf(ErrValidation, "start_at must be on a %d minute boundary", availability.SlotMinutes)
	}
	if start.Before(s.now().Add(minLeadTimeHours * time.Hour)) {
		return errorf(ErrValidation, "lessons must be booked at least %d hour ahead", minLeadTimeHours)
	}
	return nil
}

func (s *bookingService) Create(ctx context.Context, studentID string, in CreateBookingInput) (*model.Booking, error) {
	if err := s.validateStart(in.StartAt); err != nil {
		return nil, err
	}
	svc, err := s.instructors.FindService(ctx, in.InstructorServiceID)
	if err != nil {
		return nil, notFound(err, "service")
	}
	if !svc.IsActive {
		return nil, errorf(ErrNotFound, "service not found")
	}
	if !svc.AllowsDuration(in.DurationMinutes) {
		return nil, errorf(ErrValidation, "duration %d is not offered", in.DurationMinutes)
	}
	if svc.InstructorID == studentID {
		return nil, errorf(ErrValidation, "instructors cannot book themselves")
	}
	profile, err := s.instructors.FindProfile(ctx, svc.InstructorID)
	if err != nil {
		return nil, notFound(err, "instructor")
	}
	if !profile.IsLive {
		return nil, errorf(ErrValidation, "instructor is not accepting bookings")
	}

	q := s.pricing.Quote(svc.HourlyRateCents, in.DurationMinutes)
	now := s.now().UTC()
	b := &model.Booking{
		ID:                  uuid.NewString(),
		StudentID:           studentID,
		InstructorID:        svc.InstructorID,
		InstructorServiceID: svc.ID,
		ServiceName:         svc.ServiceName,
		StartAt:             in.StartAt.UTC(),
		EndAt:               in.StartAt.Add(time.Duration(in.DurationMinutes) * time.Minute).UTC(),
		DurationMinutes:     in.DurationMinutes,
		HourlyRateCents:     svc.HourlyRateCents,
		PriceCents:          q.PriceCents,
		StudentFeeCents:     q.StudentFeeCents,
		TotalCents:          q.TotalCents,
		Status:              model.BookingPending,
		PaymentStatus:       model.PaymentMethodRequired,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	var created *model.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.LockInstructor(ctx, b.InstructorID); err != nil {
			return err
		}
		ok, err := s.avail.IsBookable(ctx, b.InstructorID, b.StartAt, b.EndAt, "")
		if err != nil {
			return err
		}
		if !ok {
			return errorf(ErrConflict, "the requested time is not available")
		}
		if b.CreditsAppliedCents, err = s.credits.Apply(ctx, studentID, b.TotalCents); err != nil {
			return err
		}
		created, err = s.bookings.Create(ctx, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.BookingCreated()
	s.log.Info().Str("booking_id", created.ID).Str("instructor_id", created.InstructorID).Int64("total_cents", created.TotalCents).Msg("booking created")
	return created, nil
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return b, nil
}

func (s *bookingService) save(ctx context.Context, b *model.Booking) error {
	b.UpdatedAt = s.now().UTC()
	if err := s.bookings.Update(ctx, b); err != nil {
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	return nil
}

func (s *bookingService) participants(ctx context.Context, b *model.Booking) (model.User, model.User, bool) {
	student, err := s.users.FindByID(ctx, b.StudentID)
	if err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("load student for notification")
		return model.User{}, model.User{}, false
	}
	instructor, err := s.users.FindByID(ctx, b.InstructorID)
	if err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("load instructor for notification")
		return model.User{}, model.User{}, false
	}
	return *student, *instructor, true
}

func (s *bookingService) notifyConfirmed(ctx context.Context, b *model.Booking) {
	if st, in, ok := s.participants(ctx, b); ok {
		s.notifier.BookingConfirmed(ctx, *b, st, in)
	}
}

func (s *bookingService) notifyCancelled(ctx context.Context, b *model.Booking) {
	if st, in, ok := s.participants(ctx, b); ok {
		s.notifier.BookingCancelled(ctx, *b, st, in)
	}
}

func (s *bookingService) ConfirmPayment(ctx context.Context, studentID, bookingID, paymentMethodID string) (*model.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != studentID {
		return nil, errorf(ErrForbidden, "not your booking")
	}
	if b.Status != model.BookingPending ||
		(b.PaymentStatus != model.PaymentMethodRequired && b.PaymentStatus != model.PaymentAuthFailed) {
		return nil, errorf(ErrConflict, "booking payment is already %s", b.PaymentStatus)
	}

	if b.ChargeCents() == 0 {
		b.Status = model.BookingConfirmed
		b.PaymentStatus = model.PaymentSettled
		if err := s.save(ctx, b); err != nil {
			return nil, err
		}
		s.notifyConfirmed(ctx, b)
		return b, nil
	}

	paymentMethodID = strings.TrimSpace(paymentMethodID)
	if paymentMethodID == "" {
		return nil, errorf(ErrValidation, "payment_method_id is required")
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	customerID := student.StripeCustomerID
	if customerID == "" {
		if customerID, err = s.processor.CreateCustomer(ctx, student.ID, student.Email, student.FullName()); err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
	}
	if err := s.processor.AttachPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			return nil, errorf(ErrPaymentFailed, "payment method was rejected")
		}
		return nil, fmt.Errorf("attach payment method: %w", err)
	}
	if err := s.users.UpdatePaymentProfile(ctx, studentID, customerID, paymentMethodID); err != nil {
		return nil, err
	}
	b.PaymentMethodID = paymentMethodID

	if b.HoursUntilStart(s.now()) <= authorizeAhead {
		if authErr := s.flow.authorize(ctx, b); authErr != nil {
			if err := s.save(ctx, b); err != nil {
				return nil, err
			}
			return nil, authErr
		}
	} else {
		b.PaymentStatus = model.PaymentScheduled
	}
	b.Status = model.BookingConfirmed
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.notifyConfirmed(ctx, b)
	return b, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor Actor, bookingID, reason string) (*model.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(actor.UserID) {
		return nil, errorf(ErrForbidden, "not your booking")
	}
	if !b.Active() {
		return nil, errorf(ErrConflict, "booking is already %s", b.Status)
	}
	byInstructor := actor.UserID == b.InstructorID
	hours := b.HoursUntilStart(s.now())

	var outcome cancelOutcome
	switch {
	case b.Status == model.BookingPending:
		outcome = outcomeRelease
	case b.PaymentStatus == model.PaymentLocked:
		outcome = decideLockedCancellation(byInstructor, hours)
	default:
		outcome = decideCancellation(byInstructor, hours)
	}

	by := model.CancelledByStudent
	if byInstructor {
		by = model.CancelledByInstructor
	}
	if err := s.cancel(ctx, b, outcome, by, reason); err != nil {
		return nil, err
	}
	return b, nil
}

// cancel applies outcome to b's money, then stores the cancellation.
func (s *bookingService) cancel(ctx context.Context, b *model.Booking, outcome cancelOutcome, by, reason string) error {
	var credit int64
	var creditReason model.CreditReason
	switch outcome {
	case outcomeRelease:
		if err := s.flow.release(ctx, b); err != nil {
			return err
		}
		credit, creditReason = b.CreditsAppliedCents, model.CreditReasonRefund
	case outcomeCreditStudent:
		err := s.flow.capture(ctx, b)
		switch {
		case err == nil:
			b.PaymentStatus = model.PaymentSettled
			credit, creditReason = b.PriceCents, model.CreditReasonLateCancellation
		case errors.Is(err, ErrPaymentFailed):
			s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("late cancellation charge failed")
		default:
			return err
		}
	case outcomePayInstructor:
		if err := s.flow.settle(ctx, b); err != nil {
			if !errors.Is(err, ErrPaymentFailed) {
				return err
			}
			s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("late cancellation charge failed")
		}
	}

	now := s.now().UTC()
	b.Status = model.BookingCancelled
	b.CancelledBy = by
	b.CancellationReason = strings.TrimSpace(reason)
	b.CancelledAt = &now
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if credit > 0 {
			if _, err := s.credits.Grant(ctx, b.StudentID, credit, creditReason, b.ID, s.creditTTL); err != nil {
				return err
			}
		}
		return s.save(ctx, b)
	})
	if err != nil {
		return err
	}
	s.metrics.BookingCancelled(by)
	s.log.Info().Str("booking_id", b.ID).Str("by", by).Str("outcome", outcome.String()).Str("payment_status", string(b.PaymentStatus)).Msg("booking cancelled")
	s.notifyCancelled(ctx, b)
	return nil
}

func (s *bookingService) Reschedule(ctx context.Context, studentID, bookingID string, newStart time.Time) (*model.Booking, error) {
	old, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if old.StudentID != studentID {
		return nil, errorf(ErrForbidden, "not your booking")
	}
	if old.Status != model.BookingConfirmed {
		return nil, errorf(ErrConflict, "only confirmed bookings can be rescheduled")
	}
	if old.PaymentStatus == model.PaymentLocked {
		return nil, errorf(ErrConflict, "a rescheduled lesson inside 24 hours cannot be rescheduled again")
	}
	mode := decideReschedule(old.HoursUntilStart(s.now()))
	if mode == rescheduleRejected {
		return nil, errorf(ErrConflict, "lessons less than %d hours away cannot be rescheduled", lateCancelHours)
	}
	if err := s.validateStart(newStart); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	prev := *old
	next := *old
	next.ID = uuid.NewString()
	next.StartAt = newStart.UTC()
	next.EndAt = newStart.Add(time.Duration(old.DurationMinutes) * time.Minute).UTC()
	next.Status = model.BookingConfirmed
	next.RescheduledFromID = old.ID
	next.PayoutTransferID = ""
	next.AuthAttempts = 0
	next.CancelledBy, next.CancellationReason, next.CancelledAt, next.CompletedAt = "", "", nil, nil
	next.CreatedAt, next.UpdatedAt = now, now
	if mode == rescheduleLock {
		next.PaymentStatus = model.PaymentLocked
		next.LockedAmountCents = old.ChargeCents()
	} else {
		next.PaymentIntentID = ""
		next.LockedAmountCents = 0
		next.PaymentStatus = model.PaymentScheduled
		if next.ChargeCents() == 0 {
			next.PaymentStatus = model.PaymentSettled
		}
	}

	old.Status = model.BookingCancelled
	old.CancelledBy = model.CancelledByStudent
	old.CancellationReason = ReasonRescheduled
	old.CancelledAt = &now

	// The slot is claimed before any money moves; a processor failure below
	// is compensated by undoReschedule.
	var created *model.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.LockInstructor(ctx, old.InstructorID); err != nil {
			return err
		}
		ok, err := s.avail.IsBookable(ctx, old.InstructorID, next.StartAt, next.EndAt, old.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errorf(ErrConflict, "the requested time is not available")
		}
		if err := s.save(ctx, old); err != nil {
			return err
		}
		created, err = s.bookings.Create(ctx, &next)
		return err
	})
	if err != nil {
		*old = prev
		return nil, err
	}

	if mode == rescheduleLock {
		err = s.flow.capture(ctx, old)
	} else {
		err = s.flow.release(ctx, old)
	}
	if err != nil {
		s.undoReschedule(ctx, prev, old, created)
		return nil, err
	}

	intentChanged := mode == rescheduleLock && created.PaymentIntentID != old.PaymentIntentID
	if mode == rescheduleLock {
		old.PaymentStatus = model.PaymentLocked
		created.PaymentIntentID = old.PaymentIntentID
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.save(ctx, old); err != nil {
			return err
		}
		if intentChanged {
			return s.save(ctx, created)
		}
		return nil
	})
	if err != nil {
		// Money has moved and the new booking stands. No job acts on a
		// cancelled booking whose payment status is still authorized.
		s.log.Error().Err(err).Str("booking_id", old.ID).Str("new_booking_id", created.ID).
			Str("payment_status", string(old.PaymentStatus)).Msg("store payment after reschedule")
	}

	if created.PaymentStatus == model.PaymentScheduled && created.HoursUntilStart(s.now()) <= authorizeAhead {
		if authErr := s.flow.authorize(ctx, created); authErr != nil {
			s.log.Warn().Err(authErr).Str("booking_id", created.ID).Msg("authorization after reschedule failed")
		}
		if err := s.save(ctx, created); err != nil {
			return nil, err
		}
	}
	s.log.Info().Str("booking_id", old.ID).Str("new_booking_id", created.ID).Bool("locked", mode == rescheduleLock).Msg("booking rescheduled")
	s.notifyConfirmed(ctx, created)
	return created, nil
}

// undoReschedule restores the original booking after its payment could not
// be moved and cancels the replacement. Payment fields on old keep whatever
// the processor left them at.
func (s *bookingService) undoReschedule(ctx context.Context, prev model.Booking, old, created *model.Booking) {
	now := s.now().UTC()
	created.Status = model.BookingCancelled
	created.PaymentStatus = model.PaymentReleased
	created.PaymentIntentID = ""
	created.LockedAmountCents = 0
	created.CancelledBy = model.CancelledBySystem
	created.CancellationReason = ReasonRescheduleFailed
	created.CancelledAt = &now

	old.Status = prev.Status
	old.CancelledBy, old.CancellationReason, old.CancelledAt = prev.CancelledBy, prev.CancellationReason, prev.CancelledAt

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.save(ctx, created); err != nil {
			return err
		}
		return s.save(ctx, old)
	})
	if err != nil {
		s.log.Error().Err(err).Str("booking_id", old.ID).Str("new_booking_id", created.ID).Msg("undo reschedule")
		return
	}
	s.log.Warn().Str("booking_id", old.ID).Str("new_booking_id", created.ID).Msg("reschedule rolled back after payment failure")
}

func (s *bookingService) instructorBooking(ctx context.Context, instructorID, bookingID string) (*model.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.InstructorID != instructorID {
		return nil, errorf(ErrForbidden, "not your booking")
	}
	if b.Status != model.BookingConfirmed {
		return nil, errorf(ErrConflict, "booking is %s", b.Status)
	}
	return b, nil
}

func (s *bookingService) Complete(ctx context.Context, instructorID, bookingID string) (*model.Booking, error) {
	b, err := s.instructorBooking(ctx, instructorID, bookingID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if now.Before(b.EndAt) {
		return nil, errorf(ErrValidation, "a lesson can only be completed after it ends")
	}
	if err := s.flow.settle(ctx, b); err != nil {
		s.log.Error().Err(err).Str("booking_id", b.ID).Msg("settle completed booking")
	}
	at := now.UTC()
	b.Status = model.BookingCompleted
	b.CompletedAt = &at
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	if err := s.referrals.OnBookingCompleted(ctx, b); err != nil {
		s.log.Error().Err(err).Str("booking_id", b.ID).Msg("referral evaluation")
	}
	return b, nil
}

func (s *bookingService) MarkNoShow(ctx context.Context, instructorID, bookingID string) (*model.Booking, error) {
	b, err := s.instructorBooking(ctx, instructorID, bookingID)
	if err != nil {
		return nil, err
	}
	if s.now().Before(b.StartAt) {
		return nil, errorf(ErrValidation, "a no-show can only be reported after the start time")
	}
	if err := s.flow.settle(ctx, b); err != nil {
		s.log.Error().Err(err).Str("booking_id", b.ID).Msg("settle no-show booking")
	}
	b.Status = model.BookingNoShow
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) Get(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !b.IsParticipant(actor.UserID) {
		return nil, errorf(ErrForbidden, "not your booking")
	}
	return b, nil
}

func (s *bookingService) ListMine(ctx context.Context, userID string, upcoming bool, limit, offset int) (*ListResult[model.Booking], error) {
	limit, offset = normalizePage(limit, offset, 100)
	res, err := s.bookings.ListForUser(ctx, userID, upcoming, s.now(), repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Booking]{Items: res.Items, Total: res.Total}, nil
}

func (s *bookingService) AdminList(ctx context.Context, f repository.BookingFilter, limit, offset int) (*ListResult[model.Booking], error) {
	limit, offset = normalizePage(limit, offset, 200)
	res, err := s.bookings.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Booking]{Items: res.Items, Total: res.Total}, nil
}

func (s *bookingService) AdminCancel(ctx context.Context, bookingID, reason string) (*model.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BookingCancelled {
		return nil, errorf(ErrConflict, "booking is already cancelled")
	}
	if reason == "" {
		reason = "admin"
	}
	if err := s.cancel(ctx, b, outcomeRelease, model.CancelledByAdmin, reason); err != nil {
		return nil, err
	}
	return b, nil
}
