package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// CreditService manages platform credit balances.
type CreditService interface {
	Balance(ctx context.Context, userID string) (int64, error)
	// Grant adds credit. A zero ttl never expires.
	Grant(ctx context.Context, userID string, amountCents int64, reason model.CreditReason, sourceID string, ttl time.Duration) (*model.Credit, error)
	// Apply consumes up to maxCents of the user's credit, soonest expiry
	// first, and returns the amount consumed.
	Apply(ctx context.Context, userID string, maxCents int64) (int64, error)
	ExpireDue(ctx context.Context) (int64, error)
}

type creditService struct {
	repo repository.CreditRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewCreditService constructs a CreditService.
func NewCreditService(repo repository.CreditRepository, logger zerolog.Logger) CreditService {
	return &creditService{repo: repo, log: logger, now: time.Now}
}

func (s *creditService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.repo.Balance(ctx, userID, s.now())
}

func (s *creditService) Grant(ctx context.Context, userID string, amountCents int64, reason model.CreditReason, sourceID string, ttl time.Duration) (*model.Credit, error) {
	if amountCents <= 0 {
		return nil, errorf(ErrValidation, "credit amount must be positive")
	}
	now := s.now().UTC()
	c := &model.Credit{
		ID:             uuid.NewString(),
		UserID:         userID,
		AmountCents:    amountCents,
		RemainingCents: amountCents,
		Reason:         reason,
		SourceID:       sourceID,
		CreatedAt:      now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		c.ExpiresAt = &exp
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("grant credit: %w", err)
	}
	s.log.Info().Str("user_id", userID).Int64("amount_cents", amountCents).Str("reason", string(reason)).Msg("credit granted")
	return created, nil
}

func (s *creditService) Apply(ctx context.Context, userID string, maxCents int64) (int64, error) {
	if maxCents <= 0 {
		return 0, nil
	}
	credits, err := s.repo.ListAvailable(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("list credits: %w", err)
	}
	var applied int64
	for _, c := range credits {
		if applied >= maxCents {
			break
		}
		take := c.RemainingCents
		if rest := maxCents - applied; take > rest {
			take = rest
		}
		if take <= 0 {
			continue
		}
		if err := s.repo.Consume(ctx, c.ID, take); err != nil {
			return 0, fmt.Errorf("consume credit %s: %w", c.ID, err)
		}
		applied += take
	}
	return applied, nil
}

func (s *creditService) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire credits: %w", err)
	}
	return n, nil
}
