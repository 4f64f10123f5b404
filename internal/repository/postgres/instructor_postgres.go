package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// InstructorPostgres is a PostgreSQL implementation of repository.InstructorRepository.
type InstructorPostgres struct {
	db *sql.DB
}

// NewInstructorPostgres creates a new InstructorPostgres repository.
func NewInstructorPostgres(db *sql.DB) *InstructorPostgres {
	return &InstructorPostgres{db: db}
}

var _ repository.InstructorRepository = (*InstructorPostgres)(nil)

const profileColumns = `user_id, bio, years_experience, service_areas, COALESCE(photo_key, ''),
		COALESCE(stripe_account_id, ''), payouts_enabled, is_live, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*model.InstructorProfile, error) {
	var p model.InstructorProfile
	var areas []byte
	if err := row.Scan(
		&p.UserID,
		&p.Bio,
		&p.YearsExperience,
		&areas,
		&p.PhotoKey,
		&p.StripeAccountID,
		&p.PayoutsEnabled,
		&p.IsLive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(areas, &p.ServiceAreas); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates the profile or updates its editable fields.
func (r *InstructorPostgres) UpsertProfile(ctx context.Context, p *model.InstructorProfile) (*model.InstructorProfile, error) {
	areas, err := toJSON(p.ServiceAreas)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO instructor_profiles (user_id, bio, years_experience, service_areas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET bio = EXCLUDED.bio,
		    years_experience = EXCLUDED.years_experience,
		    service_areas = EXCLUDED.service_areas,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns
	row := conn(ctx, r.db).QueryRowContext(ctx, q, p.UserID, p.Bio, p.YearsExperience, areas, p.UpdatedAt)
	return scanProfile(row)
}

// FindProfile fetches an instructor profile by user ID.
func (r *InstructorPostgres) FindProfile(ctx context.Context, userID string) (*model.InstructorProfile, error) {
	q := `SELECT ` + profileColumns + ` FROM instructor_profiles WHERE user_id = $1`
	return scanProfile(conn(ctx, r.db).QueryRowContext(ctx, q, userID))
}

// FindByStripeAccount fetches the profile owning a connected account.
func (r *InstructorPostgres) FindByStripeAccount(ctx context.Context, accountID string) (*model.InstructorProfile, error) {
	q := `SELECT ` + profileColumns + ` FROM instructor_profiles WHERE stripe_account_id = $1`
	return scanProfile(conn(ctx, r.db).QueryRowContext(ctx, q, accountID))
}

func (r *InstructorPostgres) updateProfile(ctx context.Context, q string, args ...any) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// UpdatePhoto stores the object key of the profile photo.
func (r *InstructorPostgres) UpdatePhoto(ctx context.Context, userID, key string) error {
	return r.updateProfile(ctx, `UPDATE instructor_profiles SET photo_key = NULLIF($2, ''), updated_at = now() WHERE user_id = $1`, userID, key)
}

// SetStripeAccount links the connected payout account.
func (r *InstructorPostgres) SetStripeAccount(ctx context.Context, userID, accountID string) error {
	return r.updateProfile(ctx, `UPDATE instructor_profiles SET stripe_account_id = $2, updated_at = now() WHERE user_id = $1`, userID, accountID)
}

// SetPayoutsEnabled records whether the connected account can receive transfers.
func (r *InstructorPostgres) SetPayoutsEnabled(ctx context.Context, userID string, enabled bool) error {
	return r.updateProfile(ctx, `UPDATE instructor_profiles SET payouts_enabled = $2, updated_at = now() WHERE user_id = $1`, userID, enabled)
}

// SetLive toggles search visibility.
func (r *InstructorPostgres) SetLive(ctx context.Context, userID string, live bool) error {
	return r.updateProfile(ctx, `UPDATE instructor_profiles SET is_live = $2, updated_at = now() WHERE user_id = $1`, userID, live)
}

const instructorServiceColumns = `s.id, s.instructor_id, s.catalog_service_id, cs.name, s.hourly_rate_cents,
		s.duration_options, s.description, s.is_active, s.created_at`

func scanInstructorService(row interface{ Scan(...any) error }) (*model.InstructorService, error) {
	var s model.InstructorService
	var durations []byte
	if err := row.Scan(
		&s.ID,
		&s.InstructorID,
		&s.CatalogServiceID,
		&s.ServiceName,
		&s.HourlyRateCents,
		&durations,
		&s.Description,
		&s.IsActive,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(durations, &s.DurationOptions); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateService inserts an offered service.
func (r *InstructorPostgres) CreateService(ctx context.Context, s *model.InstructorService) (*model.InstructorService, error) {
	durations, err := toJSON(s.DurationOptions)
	if err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO instructor_services (id, instructor_id, catalog_service_id, hourly_rate_cents, duration_options, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7)
	`
	if _, err := conn(ctx, r.db).ExecContext(ctx, q,
		s.ID, s.InstructorID, s.CatalogServiceID, s.HourlyRateCents, durations, s.Description, s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return r.FindService(ctx, s.ID)
}

// UpdateService changes the rate, durations and description of an active service.
func (r *InstructorPostgres) UpdateService(ctx context.Context, s *model.InstructorService) (*model.InstructorService, error) {
	durations, err := toJSON(s.DurationOptions)
	if err != nil {
		return nil, err
	}
	const q = `
		UPDATE instructor_services
		SET hourly_rate_cents = $3, duration_options = $4, description = $5
		WHERE id = $1 AND instructor_id = $2 AND is_active
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, s.ID, s.InstructorID, s.HourlyRateCents, durations, s.Description)
	if err != nil {
		return nil, err
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}
	return r.FindService(ctx, s.ID)
}

// DeactivateService marks a service inactive.
func (r *InstructorPostgres) DeactivateService(ctx context.Context, instructorID, id string) error {
	const q = `UPDATE instructor_services SET is_active = false WHERE id = $1 AND instructor_id = $2 AND is_active`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, id, instructorID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// FindService fetches an offered service with its catalog name.
func (r *InstructorPostgres) FindService(ctx context.Context, id string) (*model.InstructorService, error) {
	q := `
		SELECT ` + instructorServiceColumns + `
		FROM instructor_services s
		JOIN catalog_services cs ON cs.id = s.catalog_service_id
		WHERE s.id = $1
	`
	return scanInstructorService(conn(ctx, r.db).QueryRowContext(ctx, q, id))
}

// ListServices returns the active services of an instructor.
func (r *InstructorPostgres) ListServices(ctx context.Context, instructorID string) ([]model.InstructorService, error) {
	q := `
		SELECT ` + instructorServiceColumns + `
		FROM instructor_services s
		JOIN catalog_services cs ON cs.id = s.catalog_service_id
		WHERE s.instructor_id = $1 AND s.is_active
		ORDER BY cs.display_order, cs.name
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.InstructorService, 0)
	for rows.Next() {
		s, err := scanInstructorService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}
