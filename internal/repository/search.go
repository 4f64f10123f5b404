package repository

import (
	"context"
	"time"

	"instainstru/internal/model"
)

// SearchRepository reads live offerings and records search events.
type SearchRepository interface {
	// ListLiveOfferings returns active services of live instructors whose
	// hourly rate lies in [minCents, maxCents]; zero bounds are open.
	ListLiveOfferings(ctx context.Context, minCents, maxCents int64) ([]model.Offering, error)
	RecordEvent(ctx context.Context, e *model.SearchEvent) error
}

// AnalyticsRepository aggregates booking and search activity per catalog service.
type AnalyticsRepository interface {
	ComputeServiceStats(ctx context.Context, now time.Time) ([]model.ServiceAnalytics, error)
	Upsert(ctx context.Context, a *model.ServiceAnalytics) error
	Get(ctx context.Context, catalogServiceID string) (*model.ServiceAnalytics, error)
}
