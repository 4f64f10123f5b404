package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"

	"instainstru/internal/config"
)

const testSecret = "whsec_test"

func sign(t *testing.T, payload string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseWebhook(t *testing.T) {
	p := NewStripeProcessor(config.StripeConfig{SecretKey: "sk_test", WebhookSecret: testSecret, Currency: "usd"})

	tests := []struct {
		name    string
		payload string
		want    WebhookEvent
	}{
		{
			name:    "intent succeeded",
			payload: `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent","status":"succeeded"}}}`,
			want:    WebhookEvent{ID: "evt_1", Type: EventIntentSucceeded, IntentID: "pi_1"},
		},
		{
			name:    "intent failed carries the processor message",
			payload: `{"id":"evt_2","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2","object":"payment_intent","last_payment_error":{"message":"Your card was declined."}}}}`,
			want:    WebhookEvent{ID: "evt_2", Type: EventIntentFailed, IntentID: "pi_2", FailureMessage: "Your card was declined."},
		},
		{
			name:    "charge refunded maps to its intent",
			payload: `{"id":"evt_3","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge","payment_intent":"pi_3"}}}`,
			want:    WebhookEvent{ID: "evt_3", Type: EventChargeRefunded, IntentID: "pi_3"},
		},
		{
			name:    "account updated",
			payload: `{"id":"evt_4","object":"event","type":"account.updated","data":{"object":{"id":"acct_1","object":"account","payouts_enabled":true}}}`,
			want:    WebhookEvent{ID: "evt_4", Type: EventAccountUpdated, AccountID: "acct_1", PayoutsEnabled: true},
		},
		{
			name:    "unhandled type keeps only the envelope",
			payload: `{"id":"evt_5","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			want:    WebhookEvent{ID: "evt_5", Type: "customer.created"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := p.ParseWebhook([]byte(tt.payload), sign(t, tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *ev)
		})
	}
}

func TestParseWebhook_BadSignature(t *testing.T) {
	p := NewStripeProcessor(config.StripeConfig{WebhookSecret: testSecret})

	_, err := p.ParseWebhook([]byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestIsCardError(t *testing.T) {
	card := &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "insufficient funds"}
	api := &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "boom"}

	assert.True(t, isCardError(card))
	assert.False(t, isCardError(api))
	assert.False(t, isCardError(errors.New("plain")))
	assert.Equal(t, "insufficient funds", stripeMessage(card))
	assert.Equal(t, "plain", stripeMessage(errors.New("plain")))
}
