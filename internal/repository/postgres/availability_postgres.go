package postgres

import (
	"context"
	"database/sql"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// AvailabilityPostgres is a PostgreSQL implementation of repository.AvailabilityRepository.
// Dates are bound as "YYYY-MM-DD" strings so the caller's location never shifts the day.
type AvailabilityPostgres struct {
	db *sql.DB
}

// NewAvailabilityPostgres creates a new AvailabilityPostgres repository.
func NewAvailabilityPostgres(db *sql.DB) *AvailabilityPostgres {
	return &AvailabilityPostgres{db: db}
}

var _ repository.AvailabilityRepository = (*AvailabilityPostgres)(nil)

// ListDays returns stored days in [from, to], ordered by date.
func (r *AvailabilityPostgres) ListDays(ctx context.Context, instructorID string, from, to time.Time) ([]model.AvailabilityDay, error) {
	const q = `
		SELECT instructor_id, to_char(day, 'YYYY-MM-DD'), bits, updated_at
		FROM availability_days
		WHERE instructor_id = $1 AND day BETWEEN $2::date AND $3::date
		ORDER BY day
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, instructorID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AvailabilityDay, 0)
	for rows.Next() {
		var d model.AvailabilityDay
		var day string
		if err := rows.Scan(&d.InstructorID, &day, &d.Bits, &d.UpdatedAt); err != nil {
			return nil, err
		}
		parsed, err := time.ParseInLocation(dateLayout, day, from.Location())
		if err != nil {
			return nil, err
		}
		d.Date = parsed
		items = append(items, d)
	}
	return items, rows.Err()
}

// ReplaceDays rewrites the range. Run it inside a transaction.
func (r *AvailabilityPostgres) ReplaceDays(ctx context.Context, instructorID string, from, to time.Time, days []model.AvailabilityDay) error {
	db := conn(ctx, r.db)
	const del = `DELETE FROM availability_days WHERE instructor_id = $1 AND day BETWEEN $2::date AND $3::date`
	if _, err := db.ExecContext(ctx, del, instructorID, from.Format(dateLayout), to.Format(dateLayout)); err != nil {
		return err
	}
	const ins = `
		INSERT INTO availability_days (instructor_id, day, bits, updated_at)
		VALUES ($1, $2::date, $3, $4)
	`
	for _, d := range days {
		if _, err := db.ExecContext(ctx, ins, instructorID, d.Date.Format(dateLayout), d.Bits, d.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

// HasAnyFrom reports whether any availability is stored on or after from.
func (r *AvailabilityPostgres) HasAnyFrom(ctx context.Context, instructorID string, from time.Time) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM availability_days WHERE instructor_id = $1 AND day >= $2::date)`
	var ok bool
	err := conn(ctx, r.db).QueryRowContext(ctx, q, instructorID, from.Format(dateLayout)).Scan(&ok)
	return ok, err
}
