package repository

import (
	"context"
	"time"

	"instainstru/internal/model"
)

// ReferralRepository persists codes, attributions and rewards.
type ReferralRepository interface {
	CreateCode(ctx context.Context, c *model.ReferralCode) error
	FindCodeByUser(ctx context.Context, userID string) (*model.ReferralCode, error)
	FindCode(ctx context.Context, code string) (*model.ReferralCode, error)

	CreateAttribution(ctx context.Context, a *model.ReferralAttribution) (*model.ReferralAttribution, error)
	FindAttributionByReferee(ctx context.Context, refereeID string) (*model.ReferralAttribution, error)
	CountAttributionsSince(ctx context.Context, referrerID string, since time.Time) (int, error)

	CreateReward(ctx context.Context, r *model.ReferralReward) (*model.ReferralReward, error)
	HasRewards(ctx context.Context, attributionID string) (bool, error)
	FindReward(ctx context.Context, id string) (*model.ReferralReward, error)
	UpdateReward(ctx context.Context, r *model.ReferralReward) error
	ListRewardsByUser(ctx context.Context, userID string) ([]model.ReferralReward, error)
	ListDueRewards(ctx context.Context, now time.Time, limit int) ([]model.ReferralReward, error)
	ListHeldRewards(ctx context.Context, pq PageQuery) (*PageResult[model.ReferralReward], error)
}
