package jobs

import (
	"context"

	"instainstru/internal/config"
	"instainstru/internal/service"
)

// Services are the job targets.
type Services struct {
	Payments  service.PaymentService
	Referrals service.ReferralService
	Credits   service.CreditService
	Analytics service.AnalyticsService
}

// Marketplace returns the marketplace jobs with their schedules from cfg.
func Marketplace(cfg config.JobsConfig, s Services) []Job {
	return []Job{
		{Name: "authorize-scheduled", Spec: cfg.AuthorizeScheduled, Run: s.Payments.AuthorizeScheduled},
		{Name: "retry-failed-authorizations", Spec: cfg.RetryFailed, Run: s.Payments.RetryFailed},
		{Name: "capture-completed", Spec: cfg.CaptureCompleted, Run: s.Payments.CaptureCompleted},
		{Name: "referral-unlock", Spec: cfg.ReferralUnlock, Run: s.Referrals.UnlockDue},
		{Name: "referral-expiry", Spec: cfg.ReferralExpiry, Run: func(ctx context.Context) (int, error) {
			n, err := s.Credits.ExpireDue(ctx)
			return int(n), err
		}},
		{Name: "analytics-recalc", Spec: cfg.AnalyticsRecalc, Run: s.Analytics.Recalculate},
	}
}
