package postgres

import (
	"context"
	"database/sql"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// ReferralPostgres is a PostgreSQL implementation of repository.ReferralRepository.
type ReferralPostgres struct {
	db *sql.DB
}

// NewReferralPostgres creates a new ReferralPostgres repository.
func NewReferralPostgres(db *sql.DB) *ReferralPostgres {
	return &ReferralPostgres{db: db}
}

var _ repository.ReferralRepository = (*ReferralPostgres)(nil)

// CreateCode stores a user's referral code. A duplicate code surfaces as a unique violation.
func (r *ReferralPostgres) CreateCode(ctx context.Context, c *model.ReferralCode) error {
	const q = `INSERT INTO referral_codes (user_id, code, created_at) VALUES ($1, $2, $3)`
	_, err := conn(ctx, r.db).ExecContext(ctx, q, c.UserID, c.Code, c.CreatedAt)
	return err
}

func (r *ReferralPostgres) findCode(ctx context.Context, where string, arg string) (*model.ReferralCode, error) {
	var c model.ReferralCode
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT user_id, code, created_at FROM referral_codes WHERE `+where, arg).
		Scan(&c.UserID, &c.Code, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindCodeByUser fetches the code owned by a user.
func (r *ReferralPostgres) FindCodeByUser(ctx context.Context, userID string) (*model.ReferralCode, error) {
	return r.findCode(ctx, "user_id = $1", userID)
}

// FindCode fetches a code, case-insensitively.
func (r *ReferralPostgres) FindCode(ctx context.Context, code string) (*model.ReferralCode, error) {
	return r.findCode(ctx, "code = upper($1)", code)
}

const attributionColumns = `id, referrer_id, referee_id, code, COALESCE(device_id, ''), COALESCE(ip_hash, ''),
		flagged, COALESCE(flag_reason, ''), created_at`

func scanAttribution(row interface{ Scan(...any) error }) (*model.ReferralAttribution, error) {
	var a model.ReferralAttribution
	if err := row.Scan(&a.ID, &a.ReferrerID, &a.RefereeID, &a.Code, &a.DeviceID, &a.IPHash,
		&a.Flagged, &a.FlagReason, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAttribution links a referee to a referrer.
func (r *ReferralPostgres) CreateAttribution(ctx context.Context, a *model.ReferralAttribution) (*model.ReferralAttribution, error) {
	q := `
		INSERT INTO referral_attributions (id, referrer_id, referee_id, code, device_id, ip_hash, flagged, flag_reason, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), $9)
		RETURNING ` + attributionColumns
	row := conn(ctx, r.db).QueryRowContext(ctx, q,
		a.ID, a.ReferrerID, a.RefereeID, a.Code, a.DeviceID, a.IPHash, a.Flagged, a.FlagReason, a.CreatedAt,
	)
	return scanAttribution(row)
}

// FindAttributionByReferee fetches the attribution of a referred user.
func (r *ReferralPostgres) FindAttributionByReferee(ctx context.Context, refereeID string) (*model.ReferralAttribution, error) {
	q := `SELECT ` + attributionColumns + ` FROM referral_attributions WHERE referee_id = $1`
	return scanAttribution(conn(ctx, r.db).QueryRowContext(ctx, q, refereeID))
}

// CountAttributionsSince counts a referrer's attributions created at or after since.
func (r *ReferralPostgres) CountAttributionsSince(ctx context.Context, referrerID string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM referral_attributions WHERE referrer_id = $1 AND created_at >= $2`
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx, q, referrerID, since).Scan(&n)
	return n, err
}

const rewardColumns = `id, attribution_id, beneficiary_id, side, amount_cents, status, booking_id, unlock_at,
		unlocked_at, COALESCE(void_reason, ''), COALESCE(transfer_id, ''), created_at`

func scanReward(row interface{ Scan(...any) error }) (*model.ReferralReward, error) {
	var rw model.ReferralReward
	var unlockedAt sql.NullTime
	if err := row.Scan(&rw.ID, &rw.AttributionID, &rw.BeneficiaryID, &rw.Side, &rw.AmountCents, &rw.Status,
		&rw.BookingID, &rw.UnlockAt, &unlockedAt, &rw.VoidReason, &rw.TransferID, &rw.CreatedAt); err != nil {
		return nil, err
	}
	rw.UnlockedAt = timePtr(unlockedAt)
	return &rw, nil
}

func (r *ReferralPostgres) listRewards(ctx context.Context, q string, args ...any) ([]model.ReferralReward, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ReferralReward, 0)
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rw)
	}
	return items, rows.Err()
}

// CreateReward inserts a reward.
func (r *ReferralPostgres) CreateReward(ctx context.Context, rw *model.ReferralReward) (*model.ReferralReward, error) {
	q := `
		INSERT INTO referral_rewards (id, attribution_id, beneficiary_id, side, amount_cents, status, booking_id, unlock_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + rewardColumns
	row := conn(ctx, r.db).QueryRowContext(ctx, q,
		rw.ID, rw.AttributionID, rw.BeneficiaryID, rw.Side, rw.AmountCents, rw.Status, rw.BookingID, rw.UnlockAt, rw.CreatedAt,
	)
	return scanReward(row)
}

// HasRewards reports whether rewards were already issued for an attribution.
func (r *ReferralPostgres) HasRewards(ctx context.Context, attributionID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM referral_rewards WHERE attribution_id = $1)`
	var ok bool
	err := conn(ctx, r.db).QueryRowContext(ctx, q, attributionID).Scan(&ok)
	return ok, err
}

// FindReward fetches a reward by ID.
func (r *ReferralPostgres) FindReward(ctx context.Context, id string) (*model.ReferralReward, error) {
	q := `SELECT ` + rewardColumns + ` FROM referral_rewards WHERE id = $1`
	return scanReward(conn(ctx, r.db).QueryRowContext(ctx, q, id))
}

// UpdateReward writes the status fields of a reward.
func (r *ReferralPostgres) UpdateReward(ctx context.Context, rw *model.ReferralReward) error {
	const q = `
		UPDATE referral_rewards
		SET status = $2, unlock_at = $3, unlocked_at = $4, void_reason = NULLIF($5, ''), transfer_id = NULLIF($6, '')
		WHERE id = $1
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, rw.ID, rw.Status, rw.UnlockAt, nullTime(rw.UnlockedAt), rw.VoidReason, rw.TransferID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// ListRewardsByUser returns the rewards where the user is the beneficiary.
func (r *ReferralPostgres) ListRewardsByUser(ctx context.Context, userID string) ([]model.ReferralReward, error) {
	q := `SELECT ` + rewardColumns + ` FROM referral_rewards WHERE beneficiary_id = $1 ORDER BY created_at DESC`
	return r.listRewards(ctx, q, userID)
}

// ListDueRewards returns pending rewards whose hold has elapsed.
func (r *ReferralPostgres) ListDueRewards(ctx context.Context, now time.Time, limit int) ([]model.ReferralReward, error) {
	q := `
		SELECT ` + rewardColumns + `
		FROM referral_rewards
		WHERE status = 'pending' AND unlock_at <= $1
		ORDER BY unlock_at
		LIMIT $2
	`
	return r.listRewards(ctx, q, now, limit)
}

// ListHeldRewards pages rewards awaiting admin review.
func (r *ReferralPostgres) ListHeldRewards(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ReferralReward], error) {
	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM referral_rewards WHERE status = 'held'`).Scan(&total); err != nil {
		return nil, err
	}
	q := `
		SELECT ` + rewardColumns + `
		FROM referral_rewards
		WHERE status = 'held'
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`
	items, err := r.listRewards(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.ReferralReward]{Items: items, Total: total}, nil
}
