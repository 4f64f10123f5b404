package model

import "time"

// ReferralCode is the shareable code owned by a user.
type ReferralCode struct {
	UserID    string    `json:"user_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// ReferralAttribution links a referred user to the user whose code they signed up with.
type ReferralAttribution struct {
	ID         string    `json:"id"`
	ReferrerID string    `json:"referrer_id"`
	RefereeID  string    `json:"referee_id"`
	Code       string    `json:"code"`
	DeviceID   string    `json:"-"`
	IPHash     string    `json:"-"`
	Flagged    bool      `json:"flagged"`
	FlagReason string    `json:"flag_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RewardSide distinguishes the two rewards created per qualifying referral.
type RewardSide string

const (
	RewardReferrer RewardSide = "referrer"
	RewardReferee  RewardSide = "referee"
)

// RewardStatus is the state of a referral reward.
type RewardStatus string

const (
	RewardPending  RewardStatus = "pending"
	RewardHeld     RewardStatus = "held"
	RewardUnlocked RewardStatus = "unlocked"
	RewardVoid     RewardStatus = "void"
)

// ReferralReward is a credit or payout owed to one side of a referral once
// its hold window passes.
type ReferralReward struct {
	ID            string       `json:"id"`
	AttributionID string       `json:"attribution_id"`
	BeneficiaryID string       `json:"beneficiary_id"`
	Side          RewardSide   `json:"side"`
	AmountCents   int64        `json:"amount_cents"`
	Status        RewardStatus `json:"status"`
	BookingID     string       `json:"booking_id"`
	UnlockAt      time.Time    `json:"unlock_at"`
	UnlockedAt    *time.Time   `json:"unlocked_at,omitempty"`
	VoidReason    string       `json:"void_reason,omitempty"`
	TransferID    string       `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
}
