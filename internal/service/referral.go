package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/config"
	"instainstru/internal/metrics"
	"instainstru/internal/model"
	"instainstru/internal/notification"
	"instainstru/internal/payment"
	"instainstru/internal/repository"
)

const (
	crockford      = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	codeLength     = 8
	codeAttempts   = 5
	unlockBatch    = 100
	velocityWindow = 24 * time.Hour
)

// Attribution flag reasons.
const (
	flagSharedDevice = "shared_device"
	flagSharedIP     = "shared_ip"
	flagVelocity     = "velocity"
)

// ReferralSummary is what a user sees about their own referrals.
type ReferralSummary struct {
	Code          string                 `json:"code"`
	ShareURL      string                 `json:"share_url"`
	PendingCents  int64                  `json:"pending_cents"`
	UnlockedCents int64                  `json:"unlocked_cents"`
	Rewards       []model.ReferralReward `json:"rewards"`
}

// ReferralService runs the referral program.
type ReferralService interface {
	EnsureCode(ctx context.Context, userID string) (*model.ReferralCode, error)
	// Attribute links a newly registered user to the owner of code, flagging
	// suspicious signups for review.
	Attribute(ctx context.Context, referee *model.User, code string) (*model.ReferralAttribution, error)
	Summary(ctx context.Context, userID string) (*ReferralSummary, error)
	// OnBookingCompleted creates the reward pair when the referee completes
	// their first qualifying lesson.
	OnBookingCompleted(ctx context.Context, b *model.Booking) error
	// UnlockDue settles pending rewards whose hold window has passed.
	UnlockDue(ctx context.Context) (int, error)
	ListHeld(ctx context.Context, limit, offset int) (*ListResult[model.ReferralReward], error)
	Approve(ctx context.Context, rewardID string) (*model.ReferralReward, error)
	Void(ctx context.Context, rewardID, reason string) (*model.ReferralReward, error)
}

type referralService struct {
	repo        repository.ReferralRepository
	users       repository.UserRepository
	bookings    repository.BookingRepository
	instructors repository.InstructorRepository
	credits     CreditService
	processor   payment.Processor
	notifier    notification.Notifier
	metrics     *metrics.Metrics
	cfg         config.ReferralConfig
	log         zerolog.Logger
	now         func() time.Time
}

// ReferralDeps groups the collaborators of the referral service.
type ReferralDeps struct {
	Referrals   repository.ReferralRepository
	Users       repository.UserRepository
	Bookings    repository.BookingRepository
	Instructors repository.InstructorRepository
	Credits     CreditService
	Processor   payment.Processor
	Notifier    notification.Notifier
	Metrics     *metrics.Metrics
}

// NewReferralService constructs a ReferralService.
func NewReferralService(d ReferralDeps, cfg config.ReferralConfig, logger zerolog.Logger) ReferralService {
	return &referralService{
		repo:        d.Referrals,
		users:       d.Users,
		bookings:    d.Bookings,
		instructors: d.Instructors,
		credits:     d.Credits,
		processor:   d.Processor,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		cfg:         cfg,
		log:         logger,
		now:         time.Now,
	}
}

// newReferralCode draws codeLength symbols of Crockford base32.
func newReferralCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = crockford[int(b)%len(crockford)]
	}
	return string(buf), nil
}

// normalizeCode upper-cases a typed code and maps the symbols Crockford
// base32 treats as aliases.
func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.NewReplacer("-", "", "I", "1", "L", "1", "O", "0").Replace(code)
}

func (s *referralService) EnsureCode(ctx context.Context, userID string) (*model.ReferralCode, error) {
	existing, err := s.repo.FindCodeByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	for i := 0; i < codeAttempts; i++ {
		code, err := newReferralCode()
		if err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}
		c := &model.ReferralCode{UserID: userID, Code: code, CreatedAt: s.now().UTC()}
		err = s.repo.CreateCode(ctx, c)
		if err == nil {
			return c, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("create referral code: %w", err)
		}
	}
	return nil, fmt.Errorf("create referral code: no free code after %d attempts", codeAttempts)
}

// sameMailbox compares addresses ignoring case and +tags.
func sameMailbox(a, b string) bool {
	strip := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		at := strings.LastIndex(s, "@")
		if at < 0 {
			return s
		}
		local, domain := s[:at], s[at:]
		if plus := strings.Index(local, "+"); plus >= 0 {
			local = local[:plus]
		}
		return local + domain
	}
	return strip(a) == strip(b)
}

func (s *referralService) Attribute(ctx context.Context, referee *model.User, code string) (*model.ReferralAttribution, error) {
	rc, err := s.repo.FindCode(ctx, normalizeCode(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errorf(ErrValidation, "unknown referral code")
		}
		return nil, err
	}
	if rc.UserID == referee.ID {
		return nil, errorf(ErrValidation, "self referral is not allowed")
	}
	referrer, err := s.users.FindByID(ctx, rc.UserID)
	if err != nil {
		return nil, notFound(err, "referrer")
	}
	if sameMailbox(referrer.Email, referee.Email) {
		return nil, errorf(ErrValidation, "self referral is not allowed")
	}
	if _, err := s.repo.FindAttributionByReferee(ctx, referee.ID); err == nil {
		return nil, errorf(ErrConflict, "user is already referred")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var reasons []string
	if referee.SignupDeviceID != "" && referee.SignupDeviceID == referrer.SignupDeviceID {
		reasons = append(reasons, flagSharedDevice)
	}
	if referee.SignupIPHash != "" && referee.SignupIPHash == referrer.SignupIPHash {
		reasons = append(reasons, flagSharedIP)
	}
	now := s.now().UTC()
	recent, err := s.repo.CountAttributionsSince(ctx, referrer.ID, now.Add(-velocityWindow))
	if err != nil {
		return nil, fmt.Errorf("count attributions: %w", err)
	}
	if s.cfg.VelocityLimit > 0 && recent >= s.cfg.VelocityLimit {
		reasons = append(reasons, flagVelocity)
	}

	a := &model.ReferralAttribution{
		ID:         uuid.NewString(),
		ReferrerID: referrer.ID,
		RefereeID:  referee.ID,
		Code:       rc.Code,
		DeviceID:   referee.SignupDeviceID,
		IPHash:     referee.SignupIPHash,
		Flagged:    len(reasons) > 0,
		FlagReason: strings.Join(reasons, ","),
		CreatedAt:  now,
	}
	created, err := s.repo.CreateAttribution(ctx, a)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errorf(ErrConflict, "user is already referred")
		}
		return nil, fmt.Errorf("create attribution: %w", err)
	}
	if created.Flagged {
		s.log.Warn().Str("referrer_id", referrer.ID).Str("referee_id", referee.ID).Str("flags", created.FlagReason).Msg("referral flagged")
	}
	return created, nil
}

func (s *referralService) Summary(ctx context.Context, userID string) (*ReferralSummary, error) {
	code, err := s.EnsureCode(ctx, userID)
	if err != nil {
		return nil, err
	}
	rewards, err := s.repo.ListRewardsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &ReferralSummary{Code: code.Code, ShareURL: s.cfg.ShareBaseURL + code.Code, Rewards: rewards}
	for _, r := range rewards {
		switch r.Status {
		case model.RewardPending, model.RewardHeld:
			out.PendingCents += r.AmountCents
		case model.RewardUnlocked:
			out.UnlockedCents += r.AmountCents
		}
	}
	return out, nil
}

func (s *referralService) OnBookingCompleted(ctx context.Context, b *model.Booking) error {
	if b.PriceCents < s.cfg.MinBasketCents {
		return nil
	}
	attr, err := s.repo.FindAttributionByReferee(ctx, b.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	done, err := s.repo.HasRewards(ctx, attr.ID)
	if err != nil || done {
		return err
	}
	completed, err := s.bookings.CountCompletedByStudent(ctx, b.StudentID)
	if err != nil {
		return err
	}
	if completed > 1 {
		return nil
	}

	status := model.RewardPending
	if attr.Flagged {
		status = model.RewardHeld
	}
	completedAt := s.now().UTC()
	if b.CompletedAt != nil {
		completedAt = *b.CompletedAt
	}
	unlockAt := completedAt.AddDate(0, 0, s.cfg.HoldDays)
	for _, side := range []struct {
		side model.RewardSide
		user string
	}{
		{model.RewardReferrer, attr.ReferrerID},
		{model.RewardReferee, attr.RefereeID},
	} {
		r := &model.ReferralReward{
			ID:            uuid.NewString(),
			AttributionID: attr.ID,
			BeneficiaryID: side.user,
			Side:          side.side,
			AmountCents:   s.cfg.RewardCents,
			Status:        status,
			BookingID:     b.ID,
			UnlockAt:      unlockAt,
			CreatedAt:     completedAt,
		}
		if _, err := s.repo.CreateReward(ctx, r); err != nil {
			return fmt.Errorf("create %s reward: %w", side.side, err)
		}
		s.metrics.ReferralReward(string(status))
	}
	return nil
}

func (s *referralService) UnlockDue(ctx context.Context) (int, error) {
	due, err := s.repo.ListDueRewards(ctx, s.now(), unlockBatch)
	if err != nil {
		return 0, fmt.Errorf("list due rewards: %w", err)
	}
	unlocked := 0
	for i := range due {
		r := &due[i]
		ok, err := s.unlock(ctx, r)
		if err != nil {
			s.log.Error().Err(err).Str("reward_id", r.ID).Msg("unlock reward")
			continue
		}
		if ok {
			unlocked++
		}
	}
	return unlocked, nil
}

// unlock settles one due reward. It reports false when the reward was voided
// or must wait for a later run.
func (s *referralService) unlock(ctx context.Context, r *model.ReferralReward) (bool, error) {
	b, err := s.bookings.FindByID(ctx, r.BookingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if b == nil || b.Status == model.BookingCancelled || b.PaymentStatus == model.PaymentRefunded {
		r.Status = model.RewardVoid
		r.VoidReason = "booking_refunded"
		s.metrics.ReferralReward(string(model.RewardVoid))
		return false, s.repo.UpdateReward(ctx, r)
	}

	user, err := s.users.FindByID(ctx, r.BeneficiaryID)
	if err != nil {
		return false, err
	}
	if user.Role == model.RoleInstructor {
		profile, err := s.instructors.FindProfile(ctx, user.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		if profile == nil || profile.StripeAccountID == "" || !profile.PayoutsEnabled {
			s.log.Info().Str("reward_id", r.ID).Msg("reward waits for instructor payouts")
			return false, nil
		}
		id, err := s.processor.Transfer(ctx, payment.TransferRequest{
			DestinationAccount: profile.StripeAccountID,
			AmountCents:        r.AmountCents,
			Group:              "referral-" + r.AttributionID,
			Description:        "Referral reward",
			IdempotencyKey:     "referral-reward-" + r.ID,
		})
		if err != nil {
			return false, err
		}
		r.TransferID = id
	} else {
		ttl := time.Duration(s.cfg.CreditTTLDays) * 24 * time.Hour
		if _, err := s.credits.Grant(ctx, user.ID, r.AmountCents, model.CreditReasonReferral, r.ID, ttl); err != nil {
			return false, err
		}
	}

	now := s.now().UTC()
	r.Status = model.RewardUnlocked
	r.UnlockedAt = &now
	if err := s.repo.UpdateReward(ctx, r); err != nil {
		return false, err
	}
	s.metrics.ReferralReward(string(model.RewardUnlocked))
	s.notifier.RewardUnlocked(ctx, *user, *r)
	return true, nil
}

func (s *referralService) ListHeld(ctx context.Context, limit, offset int) (*ListResult[model.ReferralReward], error) {
	limit, offset = normalizePage(limit, offset, 100)
	res, err := s.repo.ListHeldRewards(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.ReferralReward]{Items: res.Items, Total: res.Total}, nil
}

func (s *referralService) Approve(ctx context.Context, rewardID string) (*model.ReferralReward, error) {
	r, err := s.repo.FindReward(ctx, rewardID)
	if err != nil {
		return nil, notFound(err, "reward")
	}
	if r.Status != model.RewardHeld {
		return nil, errorf(ErrConflict, "only held rewards can be approved")
	}
	r.Status = model.RewardPending
	r.UnlockAt = s.now().UTC()
	if err := s.repo.UpdateReward(ctx, r); err != nil {
		return nil, err
	}
	s.metrics.ReferralReward("approved")
	return r, nil
}

func (s *referralService) Void(ctx context.Context, rewardID, reason string) (*model.ReferralReward, error) {
	r, err := s.repo.FindReward(ctx, rewardID)
	if err != nil {
		return nil, notFound(err, "reward")
	}
	if r.Status != model.RewardHeld && r.Status != model.RewardPending {
		return nil, errorf(ErrConflict, "reward is already %s", r.Status)
	}
	if reason == "" {
		reason = "admin_void"
	}
	r.Status = model.RewardVoid
	r.VoidReason = reason
	if err := s.repo.UpdateReward(ctx, r); err != nil {
		return nil, err
	}
	s.metrics.ReferralReward(string(model.RewardVoid))
	return r, nil
}
