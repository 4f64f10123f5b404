package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/model"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BookingConfirmed(ctx context.Context, b model.Booking, student, instructor model.User) {
	m.Called(ctx, b, student, instructor)
}

func (m *MockNotifier) BookingCancelled(ctx context.Context, b model.Booking, student, instructor model.User) {
	m.Called(ctx, b, student, instructor)
}

func (m *MockNotifier) NewMessage(ctx context.Context, recipient, sender model.User, body string) {
	m.Called(ctx, recipient, sender, body)
}

func (m *MockNotifier) RewardUnlocked(ctx context.Context, u model.User, r model.ReferralReward) {
	m.Called(ctx, u, r)
}
