package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/payment"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	args := m.Called(ctx, userID, email, name)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	args := m.Called(ctx, customerID, paymentMethodID)
	return args.Error(0)
}

func (m *MockProcessor) Authorize(ctx context.Context, req payment.AuthorizeRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockProcessor) Capture(ctx context.Context, intentID string, amountCents int64) (*payment.Intent, error) {
	args := m.Called(ctx, intentID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockProcessor) Cancel(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

func (m *MockProcessor) Refund(ctx context.Context, intentID string, amountCents int64) (string, error) {
	args := m.Called(ctx, intentID, amountCents)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) Transfer(ctx context.Context, req payment.TransferRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) CreateConnectedAccount(ctx context.Context, userID, email string) (string, error) {
	args := m.Called(ctx, userID, email)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) OnboardingLink(ctx context.Context, accountID string) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) AccountStatus(ctx context.Context, accountID string) (*payment.AccountStatus, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.AccountStatus), args.Error(1)
}

func (m *MockProcessor) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}
