package postgres

import (
	"context"
	"database/sql"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, email, password_hash, first_name, last_name, role,
		COALESCE(stripe_customer_id, ''), COALESCE(default_payment_method_id, ''),
		COALESCE(signup_device_id, ''), COALESCE(signup_ip_hash, ''), created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.StripeCustomerID,
		&u.DefaultPaymentMethodID,
		&u.SignupDeviceID,
		&u.SignupIPHash,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and returns the stored row.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	q := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, signup_device_id, signup_ip_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
		RETURNING ` + userColumns
	row := conn(ctx, r.db).QueryRowContext(ctx, q,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Role,
		u.SignupDeviceID,
		u.SignupIPHash,
		u.CreatedAt,
	)
	return scanUser(row)
}

// FindByID fetches a user by ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(conn(ctx, r.db).QueryRowContext(ctx, q, id))
}

// FindByEmail fetches a user by e-mail, ignoring case.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(conn(ctx, r.db).QueryRowContext(ctx, q, email))
}

// UpdatePaymentProfile stores the processor customer and default payment method.
func (r *UserPostgres) UpdatePaymentProfile(ctx context.Context, id, customerID, paymentMethodID string) error {
	const q = `
		UPDATE users
		SET stripe_customer_id = NULLIF($2, ''), default_payment_method_id = NULLIF($3, '')
		WHERE id = $1
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, id, customerID, paymentMethodID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// expectRow turns an UPDATE that matched nothing into sql.ErrNoRows.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
