package mocks

import (
	"context"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) CreateCode(ctx context.Context, c *model.ReferralCode) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockReferralRepository) FindCodeByUser(ctx context.Context, userID string) (*model.ReferralCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralCode), args.Error(1)
}

func (m *MockReferralRepository) FindCode(ctx context.Context, code string) (*model.ReferralCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralCode), args.Error(1)
}

func (m *MockReferralRepository) CreateAttribution(ctx context.Context, a *model.ReferralAttribution) (*model.ReferralAttribution, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralAttribution), args.Error(1)
}

func (m *MockReferralRepository) FindAttributionByReferee(ctx context.Context, refereeID string) (*model.ReferralAttribution, error) {
	args := m.Called(ctx, refereeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralAttribution), args.Error(1)
}

func (m *MockReferralRepository) CountAttributionsSince(ctx context.Context, referrerID string, since time.Time) (int, error) {
	args := m.Called(ctx, referrerID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockReferralRepository) CreateReward(ctx context.Context, r *model.ReferralReward) (*model.ReferralReward, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralReward), args.Error(1)
}

func (m *MockReferralRepository) HasRewards(ctx context.Context, attributionID string) (bool, error) {
	args := m.Called(ctx, attributionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferralRepository) FindReward(ctx context.Context, id string) (*model.ReferralReward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralReward), args.Error(1)
}

func (m *MockReferralRepository) UpdateReward(ctx context.Context, r *model.ReferralReward) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReferralRepository) ListRewardsByUser(ctx context.Context, userID string) ([]model.ReferralReward, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReferralReward), args.Error(1)
}

func (m *MockReferralRepository) ListDueRewards(ctx context.Context, now time.Time, limit int) ([]model.ReferralReward, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReferralReward), args.Error(1)
}

func (m *MockReferralRepository) ListHeldRewards(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ReferralReward], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ReferralReward]), args.Error(1)
}
