package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// DemandScore weighs recent bookings, searches and unique students of a service.
func DemandScore(a model.ServiceAnalytics) float64 {
	return float64(a.Bookings30d*2 + a.Searches7d + a.UniqueStudents30d)
}

// AnalyticsService recalculates per-service demand snapshots.
type AnalyticsService interface {
	Recalculate(ctx context.Context) (int, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(repo repository.AnalyticsRepository, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{repo: repo, log: logger, now: time.Now}
}

func (s *analyticsService) Recalculate(ctx context.Context) (int, error) {
	now := s.now().UTC()
	stats, err := s.repo.ComputeServiceStats(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("compute service stats: %w", err)
	}
	for i := range stats {
		a := &stats[i]
		a.DemandScore = DemandScore(*a)
		a.CalculatedAt = now
		if err := s.repo.Upsert(ctx, a); err != nil {
			return i, fmt.Errorf("upsert analytics %s: %w", a.CatalogServiceID, err)
		}
	}
	s.log.Info().Int("services", len(stats)).Msg("analytics recalculated")
	return len(stats), nil
}
