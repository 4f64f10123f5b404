package service

import "instainstru/internal/config"

// Quote is the price breakdown of one lesson, in cents.
type Quote struct {
	PriceCents      int64 `json:"price_cents"`
	StudentFeeCents int64 `json:"student_fee_cents"`
	TotalCents      int64 `json:"total_cents"`
	CommissionCents int64 `json:"commission_cents"`
}

// Pricing computes lesson prices from an hourly rate.
type Pricing struct {
	StudentFeePercent int
	CommissionPercent int
}

// NewPricing reads the fee percentages from configuration.
func NewPricing(cfg config.PricingConfig) Pricing {
	return Pricing{StudentFeePercent: cfg.StudentFeePercent, CommissionPercent: cfg.InstructorCommissionPercent}
}

// Quote prices a lesson of minutes at hourlyRateCents. Amounts round half up.
func (p Pricing) Quote(hourlyRateCents int64, minutes int) Quote {
	price := roundDiv(hourlyRateCents*int64(minutes), 60)
	fee := percent(price, p.StudentFeePercent)
	return Quote{
		PriceCents:      price,
		StudentFeeCents: fee,
		TotalCents:      price + fee,
		CommissionCents: percent(price, p.CommissionPercent),
	}
}

// InstructorShare is what the instructor is paid for a lesson of priceCents.
func (p Pricing) InstructorShare(priceCents int64) int64 {
	return priceCents - percent(priceCents, p.CommissionPercent)
}

func percent(amount int64, pct int) int64 {
	return roundDiv(amount*int64(pct), 100)
}

func roundDiv(n, d int64) int64 {
	return (n + d/2) / d
}
