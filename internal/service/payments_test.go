package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
	"instainstru/internal/payment"
)

func newPaymentFixture() (*bookingFixture, *mockInstructors, *paymentService) {
	f := newBookingFixture()
	instructors := new(mockInstructors)
	svc := &paymentService{
		bookings:    f.bookings,
		payments:    f.payments,
		instructors: instructors,
		processor:   f.processor,
		lifecycle:   f.svc,
		flow:        f.svc.flow,
		log:         f.svc.log,
		now:         fixedClock,
	}
	return f, instructors, svc
}

func TestPaymentService_AuthorizeScheduled(t *testing.T) {
	f, _, svc := newPaymentFixture()
	ok := *testBooking(20, model.PaymentScheduled)
	declined := *testBooking(22, model.PaymentScheduled)
	declined.ID = "b2"
	f.bookings.On("ListByPaymentStatus", mock.Anything, model.PaymentScheduled, testNow.Add(24*time.Hour), jobBatchSize).
		Return([]model.Booking{ok, declined}, nil)
	f.processor.On("Authorize", mock.Anything, mock.MatchedBy(func(r payment.AuthorizeRequest) bool { return r.BookingID == "b1" })).
		Return(&payment.Intent{ID: "pi_1", Status: payment.IntentRequiresCapture}, nil)
	f.processor.On("Authorize", mock.Anything, mock.MatchedBy(func(r payment.AuthorizeRequest) bool { return r.BookingID == "b2" })).
		Return(nil, payment.ErrDeclined)
	f.payments.On("Create", mock.Anything, mock.Anything).Return(&model.Payment{}, nil)
	f.bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
		return b.ID == "b1" && b.PaymentStatus == model.PaymentAuthorized
	})).Return(nil).Once()
	f.bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
		return b.ID == "b2" && b.PaymentStatus == model.PaymentAuthFailed && b.AuthAttempts == 1
	})).Return(nil).Once()

	n, err := svc.AuthorizeScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.assertExpectations(t)
}

func TestPaymentService_RetryFailed(t *testing.T) {
	tests := []struct {
		name        string
		booking     func() model.Booking
		authorizeOK bool
		wantCancel  bool
		wantCount   int
		wantNotice  bool
	}{
		{
			name: "retry succeeds",
			booking: func() model.Booking {
				b := *testBooking(20, model.PaymentAuthFailed)
				b.AuthAttempts = 1
				return b
			},
			authorizeOK: true,
			wantCount:   1,
		},
		{
			name: "pending booking whose retry succeeds is confirmed",
			booking: func() model.Booking {
				b := *testBooking(20, model.PaymentAuthFailed)
				b.Status = model.BookingPending
				b.AuthAttempts = 1
				return b
			},
			authorizeOK: true,
			wantCount:   1,
			wantNotice:  true,
		},
		{
			name: "pending booking that keeps failing stays pending",
			booking: func() model.Booking {
				b := *testBooking(20, model.PaymentAuthFailed)
				b.Status = model.BookingPending
				b.AuthAttempts = 1
				return b
			},
		},
		{
			name: "retry fails with time left",
			booking: func() model.Booking {
				b := *testBooking(20, model.PaymentAuthFailed)
				b.AuthAttempts = 1
				return b
			},
		},
		{
			name: "third failure cancels",
			booking: func() model.Booking {
				b := *testBooking(20, model.PaymentAuthFailed)
				b.AuthAttempts = 2
				return b
			},
			wantCancel: true,
		},
		{
			name: "failure close to the lesson cancels",
			booking: func() model.Booking {
				b := *testBooking(5, model.PaymentAuthFailed)
				b.AuthAttempts = 1
				return b
			},
			wantCancel: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, svc := newPaymentFixture()
			f.bookings.On("ListByPaymentStatus", mock.Anything, model.PaymentAuthFailed, testNow.Add(24*time.Hour), jobBatchSize).
				Return([]model.Booking{tt.booking()}, nil)
			if tt.authorizeOK {
				f.processor.On("Authorize", mock.Anything, mock.Anything).Return(&payment.Intent{ID: "pi_1", Status: payment.IntentRequiresCapture}, nil)
			} else {
				f.processor.On("Authorize", mock.Anything, mock.Anything).Return(nil, payment.ErrDeclined)
			}
			f.payments.On("Create", mock.Anything, mock.Anything).Return(&model.Payment{}, nil).Maybe()
			var saved *model.Booking
			f.bookings.On("Update", mock.Anything, mock.AnythingOfType("*model.Booking")).
				Run(func(args mock.Arguments) { saved = args.Get(1).(*model.Booking) }).Return(nil).Once()

			n, err := svc.RetryFailed(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)
			require.NotNil(t, saved)
			if tt.wantCancel {
				assert.Equal(t, model.BookingCancelled, saved.Status)
				assert.Equal(t, model.CancelledBySystem, saved.CancelledBy)
				assert.Equal(t, ReasonPaymentFailed, saved.CancellationReason)
				assert.Equal(t, model.PaymentReleased, saved.PaymentStatus)
				return
			}
			if tt.authorizeOK {
				assert.Equal(t, model.BookingConfirmed, saved.Status)
				assert.Equal(t, model.PaymentAuthorized, saved.PaymentStatus)
			} else {
				assert.Equal(t, tt.booking().Status, saved.Status)
				assert.Equal(t, model.PaymentAuthFailed, saved.PaymentStatus)
			}
			if tt.wantNotice {
				f.notifier.AssertCalled(t, "BookingConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				f.notifier.AssertNotCalled(t, "BookingConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPaymentService_CaptureCompleted(t *testing.T) {
	f, _, svc := newPaymentFixture()
	completed := *testBooking(-3, model.PaymentAuthorized)
	completed.Status = model.BookingCompleted
	waiting := *testBooking(-30, model.PaymentCaptured)
	waiting.ID, waiting.InstructorID, waiting.PaymentIntentID = "b2", "ins2", "pi_2"
	waiting.Status = model.BookingNoShow
	f.bookings.On("ListAwaitingSettlement", mock.Anything, jobBatchSize).Return([]model.Booking{completed, waiting}, nil)
	f.processor.On("Capture", mock.Anything, "pi_1", int64(0)).Return(&payment.Intent{ID: "pi_1"}, nil)
	f.payments.On("UpdateStatus", mock.Anything, "pi_1", payment.IntentSucceeded, "").Return(nil)
	f.instructors.On("FindProfile", mock.Anything, "ins").Return(&model.InstructorProfile{UserID: "ins", StripeAccountID: "acct_1", PayoutsEnabled: true}, nil)
	f.instructors.On("FindProfile", mock.Anything, "ins2").Return(&model.InstructorProfile{UserID: "ins2"}, nil)
	f.processor.On("Transfer", mock.Anything, mock.Anything).Return("tr_1", nil)
	f.bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
		return b.ID == "b1" && b.PaymentStatus == model.PaymentSettled
	})).Return(nil).Once()

	n, err := svc.CaptureCompleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.assertExpectations(t)
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	tests := []struct {
		name       string
		event      *payment.WebhookEvent
		parseErr   error
		setupMocks func(f *bookingFixture, ins *mockInstructors)
		wantKind   error
	}{
		{
			name:  "capture confirmed",
			event: &payment.WebhookEvent{ID: "evt_1", Type: payment.EventIntentSucceeded, IntentID: "pi_1"},
			setupMocks: func(f *bookingFixture, ins *mockInstructors) {
				f.payments.On("UpdateStatus", mock.Anything, "pi_1", payment.IntentSucceeded, "").Return(nil)
				f.bookings.On("FindByIntentID", mock.Anything, "pi_1").Return(testBooking(-2, model.PaymentAuthorized), nil)
				f.bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
					return b.PaymentStatus == model.PaymentCaptured
				})).Return(nil).Once()
			},
		},
		{
			name:  "failed authorization",
			event: &payment.WebhookEvent{ID: "evt_2", Type: payment.EventIntentFailed, IntentID: "pi_1", FailureMessage: "insufficient funds"},
			setupMocks: func(f *bookingFixture, ins *mockInstructors) {
				f.payments.On("UpdateStatus", mock.Anything, "pi_1", "failed", "insufficient funds").Return(nil)
				f.bookings.On("FindByIntentID", mock.Anything, "pi_1").Return(testBooking(10, model.PaymentAuthorized), nil)
				f.bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
					return b.PaymentStatus == model.PaymentAuthFailed
				})).Return(nil).Once()
			},
		},
		{
			name:  "refund of an already refunded booking is a no-op",
			event: &payment.WebhookEvent{ID: "evt_3", Type: payment.EventChargeRefunded, IntentID: "pi_1"},
			setupMocks: func(f *bookingFixture, ins *mockInstructors) {
				f.payments.On("UpdateStatus", mock.Anything, "pi_1", "refunded", "").Return(nil)
				f.bookings.On("FindByIntentID", mock.Anything, "pi_1").Return(testBooking(10, model.PaymentRefunded), nil)
			},
		},
		{
			name:  "unknown intent is ignored",
			event: &payment.WebhookEvent{ID: "evt_4", Type: payment.EventIntentCanceled, IntentID: "pi_x"},
			setupMocks: func(f *bookingFixture, ins *mockInstructors) {
				f.payments.On("UpdateStatus", mock.Anything, "pi_x", payment.IntentCanceled, "").Return(sql.ErrNoRows)
				f.bookings.On("FindByIntentID", mock.Anything, "pi_x").Return(nil, sql.ErrNoRows)
			},
		},
		{
			name:  "account update",
			event: &payment.WebhookEvent{ID: "evt_5", Type: payment.EventAccountUpdated, AccountID: "acct_1", PayoutsEnabled: true},
			setupMocks: func(f *bookingFixture, ins *mockInstructors) {
				ins.On("SetPayoutsByAccount", mock.Anything, "acct_1", true).Return(nil)
			},
		},
		{
			name:       "bad signature",
			parseErr:   payment.ErrInvalidSignature,
			setupMocks: func(f *bookingFixture, ins *mockInstructors) {},
			wantKind:   ErrUnauthorized,
		},
		{
			name:       "garbage payload",
			parseErr:   errors.New("unexpected end of JSON input"),
			setupMocks: func(f *bookingFixture, ins *mockInstructors) {},
			wantKind:   ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ins, svc := newPaymentFixture()
			payload := []byte(`{}`)
			f.processor.On("ParseWebhook", payload, "sig").Return(tt.event, tt.parseErr)
			tt.setupMocks(f, ins)

			err := svc.HandleWebhook(context.Background(), payload, "sig")
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			f.assertExpectations(t)
			ins.AssertExpectations(t)
		})
	}
}

func TestWebhookTransition(t *testing.T) {
	assert.Equal(t, model.PaymentReleased, webhookTransition(payment.EventIntentCanceled, model.PaymentAuthorized))
	assert.Equal(t, model.PaymentAuthFailed, webhookTransition(payment.EventIntentFailed, model.PaymentScheduled))
	assert.Equal(t, model.PaymentStatus(""), webhookTransition(payment.EventIntentSucceeded, model.PaymentSettled))
	assert.Equal(t, model.PaymentRefunded, webhookTransition(payment.EventChargeRefunded, model.PaymentCaptured))
}
