package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// SearchPostgres is a PostgreSQL implementation of repository.SearchRepository.
type SearchPostgres struct {
	db *sql.DB
}

// NewSearchPostgres creates a new SearchPostgres repository.
func NewSearchPostgres(db *sql.DB) *SearchPostgres {
	return &SearchPostgres{db: db}
}

var _ repository.SearchRepository = (*SearchPostgres)(nil)

// ListLiveOfferings returns the active services of live instructors within the price bounds.
func (r *SearchPostgres) ListLiveOfferings(ctx context.Context, minCents, maxCents int64) ([]model.Offering, error) {
	const q = `
		SELECT u.id, trim(u.first_name || ' ' || u.last_name), s.id, cs.id, cs.name, c.name, cs.keywords,
		       s.hourly_rate_cents, s.duration_options
		FROM instructor_services s
		JOIN instructor_profiles p ON p.user_id = s.instructor_id
		JOIN users u ON u.id = s.instructor_id
		JOIN catalog_services cs ON cs.id = s.catalog_service_id
		JOIN catalog_categories c ON c.id = cs.category_id
		WHERE s.is_active AND p.is_live
		  AND ($1::bigint = 0 OR s.hourly_rate_cents >= $1)
		  AND ($2::bigint = 0 OR s.hourly_rate_cents <= $2)
		ORDER BY s.hourly_rate_cents, s.id
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, minCents, maxCents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Offering, 0)
	for rows.Next() {
		var o model.Offering
		var keywords string
		var durations []byte
		if err := rows.Scan(&o.InstructorID, &o.InstructorName, &o.InstructorServiceID, &o.CatalogServiceID,
			&o.ServiceName, &o.CategoryName, &keywords, &o.HourlyRateCents, &durations); err != nil {
			return nil, err
		}
		o.Keywords = strings.Fields(keywords)
		if err := json.Unmarshal(durations, &o.DurationOptions); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

// RecordEvent stores a search event.
func (r *SearchPostgres) RecordEvent(ctx context.Context, e *model.SearchEvent) error {
	ids := e.ServiceIDs
	if ids == nil {
		ids = []string{}
	}
	raw, err := toJSON(ids)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO search_events (id, user_id, query, service_ids, results_count, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6)
	`
	_, err = conn(ctx, r.db).ExecContext(ctx, q, e.ID, e.UserID, e.Query, raw, e.ResultsCount, e.CreatedAt)
	return err
}
