package postgres

import (
	"context"
	"database/sql"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// CreditPostgres is a PostgreSQL implementation of repository.CreditRepository.
type CreditPostgres struct {
	db *sql.DB
}

// NewCreditPostgres creates a new CreditPostgres repository.
func NewCreditPostgres(db *sql.DB) *CreditPostgres {
	return &CreditPostgres{db: db}
}

var _ repository.CreditRepository = (*CreditPostgres)(nil)

const creditColumns = `id, user_id, amount_cents, remaining_cents, reason, COALESCE(source_id, ''), expires_at, created_at`

func scanCredit(row interface{ Scan(...any) error }) (*model.Credit, error) {
	var c model.Credit
	var exp sql.NullTime
	if err := row.Scan(&c.ID, &c.UserID, &c.AmountCents, &c.RemainingCents, &c.Reason, &c.SourceID, &exp, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ExpiresAt = timePtr(exp)
	return &c, nil
}

// Create inserts a credit grant.
func (r *CreditPostgres) Create(ctx context.Context, c *model.Credit) (*model.Credit, error) {
	q := `
		INSERT INTO user_credits (id, user_id, amount_cents, remaining_cents, reason, source_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		RETURNING ` + creditColumns
	row := conn(ctx, r.db).QueryRowContext(ctx, q,
		c.ID, c.UserID, c.AmountCents, c.RemainingCents, c.Reason, c.SourceID, nullTime(c.ExpiresAt), c.CreatedAt,
	)
	return scanCredit(row)
}

// ListAvailable returns spendable credits, the ones expiring first at the front.
func (r *CreditPostgres) ListAvailable(ctx context.Context, userID string, now time.Time) ([]model.Credit, error) {
	q := `
		SELECT ` + creditColumns + `
		FROM user_credits
		WHERE user_id = $1 AND remaining_cents > 0 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY expires_at ASC NULLS LAST, created_at ASC
		FOR UPDATE
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Credit, 0)
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Consume subtracts amount from the credit's remaining balance.
func (r *CreditPostgres) Consume(ctx context.Context, creditID string, amount int64) error {
	const q = `
		UPDATE user_credits
		SET remaining_cents = remaining_cents - $2
		WHERE id = $1 AND remaining_cents >= $2
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, creditID, amount)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// Balance sums the spendable credit of a user.
func (r *CreditPostgres) Balance(ctx context.Context, userID string, now time.Time) (int64, error) {
	const q = `
		SELECT COALESCE(SUM(remaining_cents), 0)
		FROM user_credits
		WHERE user_id = $1 AND remaining_cents > 0 AND (expires_at IS NULL OR expires_at > $2)
	`
	var total int64
	err := conn(ctx, r.db).QueryRowContext(ctx, q, userID, now).Scan(&total)
	return total, err
}

// ExpireDue zeroes the balance of expired credits.
func (r *CreditPostgres) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE user_credits
		SET remaining_cents = 0
		WHERE remaining_cents > 0 AND expires_at IS NOT NULL AND expires_at <= $1
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
