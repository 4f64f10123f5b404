package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"instainstru/internal/config"
)

// StripeProcessor implements Processor with the Stripe API.
type StripeProcessor struct {
	api           *client.API
	currency      string
	webhookSecret string
	returnURL     string
	refreshURL    string
}

// NewStripeProcessor creates a StripeProcessor from configuration. Outbound
// Stripe calls are traced through the global tracer provider.
func NewStripeProcessor(cfg config.StripeConfig) *StripeProcessor {
	httpClient := &http.Client{
		Timeout: 80 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "stripe " + r.Method + " " + r.URL.Path
			}),
		),
	}
	backendCfg := func() *stripe.BackendConfig {
		return &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(2),
		}
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg()),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg()),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg()),
	}
	return &StripeProcessor{
		api:           client.New(cfg.SecretKey, backends),
		currency:      cfg.Currency,
		webhookSecret: cfg.WebhookSecret,
		returnURL:     cfg.ReturnURL,
		refreshURL:    cfg.RefreshURL,
	}
}

var _ Processor = (*StripeProcessor)(nil)

func (p *StripeProcessor) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	params.SetIdempotencyKey("customer-" + userID)
	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return c.ID, nil
}

func (p *StripeProcessor) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	if _, err := p.api.PaymentMethods.Attach(paymentMethodID, params); err != nil {
		if isCardError(err) {
			return fmt.Errorf("%w: %s", ErrDeclined, stripeMessage(err))
		}
		return fmt.Errorf("attach payment method: %w", err)
	}
	return nil
}

func (p *StripeProcessor) Authorize(ctx context.Context, req AuthorizeRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(p.currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(req.Description),
		TransferGroup: stripe.String("booking-" + req.BookingID),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("platform_cents", fmt.Sprint(req.PlatformCents))
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		if isCardError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDeclined, stripeMessage(err))
		}
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusRequiresCapture {
		return &Intent{ID: pi.ID, Status: string(pi.Status), AmountCents: pi.Amount},
			fmt.Errorf("%w: intent %s is %s", ErrDeclined, pi.ID, pi.Status)
	}
	return &Intent{ID: pi.ID, Status: string(pi.Status), AmountCents: pi.Amount}, nil
}

func (p *StripeProcessor) Capture(ctx context.Context, intentID string, amountCents int64) (*Intent, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	if amountCents > 0 {
		params.AmountToCapture = stripe.Int64(amountCents)
	}
	params.Context = ctx
	params.SetIdempotencyKey("capture-" + intentID)
	pi, err := p.api.PaymentIntents.Capture(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", intentID, err)
	}
	return &Intent{ID: pi.ID, Status: string(pi.Status), AmountCents: pi.AmountReceived}, nil
}

func (p *StripeProcessor) Cancel(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if _, err := p.api.PaymentIntents.Cancel(intentID, params); err != nil {
		return fmt.Errorf("cancel %s: %w", intentID, err)
	}
	return nil
}

func (p *StripeProcessor) Refund(ctx context.Context, intentID string, amountCents int64) (string, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("refund-%s-%d", intentID, amountCents))
	r, err := p.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("refund %s: %w", intentID, err)
	}
	return r.ID, nil
}

func (p *StripeProcessor) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(p.currency),
		Destination:   stripe.String(req.DestinationAccount),
		TransferGroup: stripe.String(req.Group),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	t, err := p.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("transfer to %s: %w", req.DestinationAccount, err)
	}
	return t.ID, nil
}

func (p *StripeProcessor) CreateConnectedAccount(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	params.SetIdempotencyKey("account-" + userID)
	a, err := p.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("create connected account: %w", err)
	}
	return a.ID, nil
}

func (p *StripeProcessor) OnboardingLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(p.refreshURL),
		ReturnURL:  stripe.String(p.returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	link, err := p.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("create account link: %w", err)
	}
	return link.URL, nil
}

func (p *StripeProcessor) AccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	a, err := p.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", accountID, err)
	}
	return &AccountStatus{
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
		DetailsSubmitted: a.DetailsSubmitted,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the object
// fields relevant to the event type.
func (p *StripeProcessor) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (*WebhookEvent, error) {
	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}
	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed, EventIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
		}
	case EventAccountUpdated:
		var a stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &a); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		out.AccountID = a.ID
		out.PayoutsEnabled = a.PayoutsEnabled
	}
	return out, nil
}

func isCardError(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.Type == stripe.ErrorTypeCard
}

func stripeMessage(err error) string {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return se.Msg
	}
	return err.Error()
}
