package repository

import (
	"context"
	"time"

	"instainstru/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePaymentProfile(ctx context.Context, id, customerID, paymentMethodID string) error
}

// CreditRepository persists platform credit grants.
type CreditRepository interface {
	Create(ctx context.Context, c *model.Credit) (*model.Credit, error)
	// ListAvailable returns unexpired credits with a positive balance, oldest expiry first.
	ListAvailable(ctx context.Context, userID string, now time.Time) ([]model.Credit, error)
	// Consume lowers the remaining balance of a credit by amount.
	Consume(ctx context.Context, creditID string, amount int64) error
	Balance(ctx context.Context, userID string, now time.Time) (int64, error)
	// ExpireDue zeroes every credit whose expiry has passed and returns how many changed.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
