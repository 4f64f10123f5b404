package postgres

import (
	"context"
	"database/sql"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// AnalyticsPostgres is a PostgreSQL implementation of repository.AnalyticsRepository.
type AnalyticsPostgres struct {
	db *sql.DB
}

// NewAnalyticsPostgres creates a new AnalyticsPostgres repository.
func NewAnalyticsPostgres(db *sql.DB) *AnalyticsPostgres {
	return &AnalyticsPostgres{db: db}
}

var _ repository.AnalyticsRepository = (*AnalyticsPostgres)(nil)

// ComputeServiceStats aggregates activity per catalog service as of now.
// Demand score is left for the caller.
func (r *AnalyticsPostgres) ComputeServiceStats(ctx context.Context, now time.Time) ([]model.ServiceAnalytics, error) {
	const q = `
		SELECT cs.id,
		       (SELECT COUNT(*) FROM bookings b JOIN instructor_services s ON s.id = b.instructor_service_id
		        WHERE s.catalog_service_id = cs.id AND b.status <> 'cancelled' AND b.created_at >= $1::timestamptz - interval '7 days'),
		       (SELECT COUNT(*) FROM bookings b JOIN instructor_services s ON s.id = b.instructor_service_id
		        WHERE s.catalog_service_id = cs.id AND b.status <> 'cancelled' AND b.created_at >= $1::timestamptz - interval '30 days'),
		       (SELECT COUNT(DISTINCT b.student_id) FROM bookings b JOIN instructor_services s ON s.id = b.instructor_service_id
		        WHERE s.catalog_service_id = cs.id AND b.status <> 'cancelled' AND b.created_at >= $1::timestamptz - interval '30 days'),
		       (SELECT COUNT(*) FROM instructor_services s JOIN instructor_profiles p ON p.user_id = s.instructor_id
		        WHERE s.catalog_service_id = cs.id AND s.is_active AND p.is_live),
		       (SELECT COALESCE(ROUND(AVG(s.hourly_rate_cents)), 0)::bigint FROM instructor_services s
		        WHERE s.catalog_service_id = cs.id AND s.is_active),
		       (SELECT COUNT(*) FROM search_events e
		        WHERE e.service_ids @> jsonb_build_array(cs.id::text) AND e.created_at >= $1::timestamptz - interval '7 days')
		FROM catalog_services cs
		ORDER BY cs.id
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ServiceAnalytics, 0)
	for rows.Next() {
		a := model.ServiceAnalytics{CalculatedAt: now}
		if err := rows.Scan(&a.CatalogServiceID, &a.Bookings7d, &a.Bookings30d, &a.UniqueStudents30d,
			&a.ActiveInstructors, &a.AvgHourlyRateCents, &a.Searches7d); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Upsert stores the latest snapshot of a service.
func (r *AnalyticsPostgres) Upsert(ctx context.Context, a *model.ServiceAnalytics) error {
	const q = `
		INSERT INTO service_analytics (catalog_service_id, bookings_7d, bookings_30d, unique_students_30d,
			active_instructors, avg_hourly_rate_cents, searches_7d, demand_score, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (catalog_service_id) DO UPDATE
		SET bookings_7d = EXCLUDED.bookings_7d,
		    bookings_30d = EXCLUDED.bookings_30d,
		    unique_students_30d = EXCLUDED.unique_students_30d,
		    active_instructors = EXCLUDED.active_instructors,
		    avg_hourly_rate_cents = EXCLUDED.avg_hourly_rate_cents,
		    searches_7d = EXCLUDED.searches_7d,
		    demand_score = EXCLUDED.demand_score,
		    calculated_at = EXCLUDED.calculated_at
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, q, a.CatalogServiceID, a.Bookings7d, a.Bookings30d, a.UniqueStudents30d,
		a.ActiveInstructors, a.AvgHourlyRateCents, a.Searches7d, a.DemandScore, a.CalculatedAt)
	return err
}

// Get fetches the snapshot of a catalog service.
func (r *AnalyticsPostgres) Get(ctx context.Context, catalogServiceID string) (*model.ServiceAnalytics, error) {
	const q = `
		SELECT catalog_service_id, bookings_7d, bookings_30d, unique_students_30d, active_instructors,
		       avg_hourly_rate_cents, searches_7d, demand_score, calculated_at
		FROM service_analytics
		WHERE catalog_service_id = $1
	`
	var a model.ServiceAnalytics
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, catalogServiceID).Scan(&a.CatalogServiceID, &a.Bookings7d,
		&a.Bookings30d, &a.UniqueStudents30d, &a.ActiveInstructors, &a.AvgHourlyRateCents, &a.Searches7d,
		&a.DemandScore, &a.CalculatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
