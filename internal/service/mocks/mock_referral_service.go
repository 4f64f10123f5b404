package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/model"
	"instainstru/internal/service"
)

type MockReferralService struct {
	mock.Mock
}

func (m *MockReferralService) EnsureCode(ctx context.Context, userID string) (*model.ReferralCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralCode), args.Error(1)
}

func (m *MockReferralService) Attribute(ctx context.Context, referee *model.User, code string) (*model.ReferralAttribution, error) {
	args := m.Called(ctx, referee, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralAttribution), args.Error(1)
}

func (m *MockReferralService) Summary(ctx context.Context, userID string) (*service.ReferralSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReferralSummary), args.Error(1)
}

func (m *MockReferralService) OnBookingCompleted(ctx context.Context, b *model.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockReferralService) UnlockDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockReferralService) ListHeld(ctx context.Context, limit, offset int) (*service.ListResult[model.ReferralReward], error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.ReferralReward]), args.Error(1)
}

func (m *MockReferralService) Approve(ctx context.Context, rewardID string) (*model.ReferralReward, error) {
	args := m.Called(ctx, rewardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralReward), args.Error(1)
}

func (m *MockReferralService) Void(ctx context.Context, rewardID, reason string) (*model.ReferralReward, error) {
	args := m.Called(ctx, rewardID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralReward), args.Error(1)
}
