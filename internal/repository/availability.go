package repository

import (
	"context"
	"time"

	"instainstru/internal/model"
)

// AvailabilityRepository persists per-day availability bitmaps. Dates are
// compared by calendar day only.
type AvailabilityRepository interface {
	ListDays(ctx context.Context, instructorID string, from, to time.Time) ([]model.AvailabilityDay, error)
	// ReplaceDays deletes every stored day in [from, to] and inserts days.
	ReplaceDays(ctx context.Context, instructorID string, from, to time.Time, days []model.AvailabilityDay) error
	HasAnyFrom(ctx context.Context, instructorID string, from time.Time) (bool, error)
}
