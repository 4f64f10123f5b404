package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/model"
	"instainstru/internal/repository"
	"instainstru/internal/search"
)

// MaxQueryLength bounds the free-text search input.
const MaxQueryLength = 200

// SearchResult is the ranked response to a search.
type SearchResult struct {
	Query search.Query      `json:"query"`
	Hits  []model.SearchHit `json:"data"`
	Total int               `json:"total"`
}

// SearchService answers natural-language searches over live offerings.
type SearchService interface {
	Search(ctx context.Context, userID, q string, limit int) (*SearchResult, error)
}

type searchService struct {
	repo  repository.SearchRepository
	avail AvailabilityService
	loc   *time.Location
	log   zerolog.Logger
	now   func() time.Time
}

// NewSearchService constructs a SearchService. avail may be nil, in which
// case date and time-of-day hints do not filter results.
func NewSearchService(repo repository.SearchRepository, avail AvailabilityService, loc *time.Location, logger zerolog.Logger) SearchService {
	if loc == nil {
		loc = time.UTC
	}
	return &searchService{repo: repo, avail: avail, loc: loc, log: logger, now: time.Now}
}

func (s *searchService) Search(ctx context.Context, userID, q string, limit int) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errorf(ErrValidation, "q is required")
	}
	if len([]rune(q)) > MaxQueryLength {
		return nil, errorf(ErrValidation, "q exceeds %d characters", MaxQueryLength)
	}
	limit, _ = normalizePage(limit, 0, 100)

	parsed := search.ParseQuery(q, s.now().In(s.loc))
	offerings, err := s.repo.ListLiveOfferings(ctx, parsed.MinPriceCents, parsed.MaxPriceCents)
	if err != nil {
		return nil, err
	}
	hits := search.Rank(parsed, offerings)
	if len(parsed.Dates) > 0 || parsed.TimeOfDay != nil {
		hits = s.filterAvailable(ctx, parsed, hits)
	}

	total := len(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	s.record(ctx, userID, q, hits, total)
	return &SearchResult{Query: parsed, Hits: hits, Total: total}, nil
}

// filterAvailable keeps hits whose instructor has an open slot on one of the
// query dates inside the requested time of day.
func (s *searchService) filterAvailable(ctx context.Context, q search.Query, hits []model.SearchHit) []model.SearchHit {
	if s.avail == nil {
		return hits
	}
	dates := q.Dates
	if len(dates) == 0 {
		today := s.now().In(s.loc)
		dates = []time.Time{time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)}
	}
	out := hits[:0]
	for _, h := range hits {
		if s.hasOpening(ctx, h, dates, q.TimeOfDay) {
			out = append(out, h)
		}
	}
	return out
}

func (s *searchService) hasOpening(ctx context.Context, h model.SearchHit, dates []time.Time, tod *search.TimeOfDay) bool {
	duration := 60
	if len(h.DurationOptions) > 0 {
		duration = h.DurationOptions[0]
	}
	for _, d := range dates {
		slots, err := s.avail.OpenSlots(ctx, h.InstructorID, d, duration)
		if err != nil {
			s.log.Warn().Err(err).Str("instructor_id", h.InstructorID).Msg("availability lookup during search")
			continue
		}
		for _, slot := range slots {
			if tod == nil {
				return true
			}
			start := slot.Start.In(s.loc)
			m := start.Hour()*60 + start.Minute()
			if m >= tod.StartMin && m < tod.EndMin {
				return true
			}
		}
	}
	return false
}

func (s *searchService) record(ctx context.Context, userID, q string, hits []model.SearchHit, total int) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.CatalogServiceID]; ok {
			continue
		}
		seen[h.CatalogServiceID] = struct{}{}
		ids = append(ids, h.CatalogServiceID)
	}
	ev := &model.SearchEvent{
		ID:           uuid.NewString(),
		UserID:       userID,
		Query:        q,
		ServiceIDs:   ids,
		ResultsCount: total,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.RecordEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Msg("record search event")
	}
}
