package service

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/availability"
	"instainstru/internal/model"
)

type mockAvailability struct{ mock.Mock }

func (m *mockAvailability) GetWeek(ctx context.Context, instructorID string, weekStart time.Time) (*WeekAvailability, error) {
	args := m.Called(ctx, instructorID, weekStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WeekAvailability), args.Error(1)
}

func (m *mockAvailability) SaveWeek(ctx context.Context, instructorID string, weekStart time.Time, days map[string][]availability.Window) (*WeekAvailability, error) {
	args := m.Called(ctx, instructorID, weekStart, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WeekAvailability), args.Error(1)
}

func (m *mockAvailability) CopyWeek(ctx context.Context, instructorID string, from, to time.Time) (*WeekAvailability, error) {
	args := m.Called(ctx, instructorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WeekAvailability), args.Error(1)
}

func (m *mockAvailability) IsBookable(ctx context.Context, instructorID string, start, end time.Time, excludeBookingID string) (bool, error) {
	args := m.Called(ctx, instructorID, start, end, excludeBookingID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAvailability) OpenSlots(ctx context.Context, instructorID string, date time.Time, durationMin int) ([]Slot, error) {
	args := m.Called(ctx, instructorID, date, durationMin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Slot), args.Error(1)
}

type mockCredits struct{ mock.Mock }

func (m *mockCredits) Balance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCredits) Grant(ctx context.Context, userID string, amountCents int64, reason model.CreditReason, sourceID string, ttl time.Duration) (*model.Credit, error) {
	args := m.Called(ctx, userID, amountCents, reason, sourceID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credit), args.Error(1)
}

func (m *mockCredits) Apply(ctx context.Context, userID string, maxCents int64) (int64, error) {
	args := m.Called(ctx, userID, maxCents)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCredits) ExpireDue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockReferrals struct{ mock.Mock }

func (m *mockReferrals) EnsureCode(ctx context.Context, userID string) (*model.ReferralCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralCode), args.Error(1)
}

func (m *mockReferrals) Attribute(ctx context.Context, referee *model.User, code string) (*model.ReferralAttribution, error) {
	args := m.Called(ctx, referee, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralAttribution), args.Error(1)
}

func (m *mockReferrals) Summary(ctx context.Context, userID string) (*ReferralSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReferralSummary), args.Error(1)
}

func (m *mockReferrals) OnBookingCompleted(ctx context.Context, b *model.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockReferrals) UnlockDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockReferrals) ListHeld(ctx context.Context, limit, offset int) (*ListResult[model.ReferralReward], error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListResult[model.ReferralReward]), args.Error(1)
}

func (m *mockReferrals) Approve(ctx context.Context, rewardID string) (*model.ReferralReward, error) {
	args := m.Called(ctx, rewardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralReward), args.Error(1)
}

func (m *mockReferrals) Void(ctx context.Context, rewardID, reason string) (*model.ReferralReward, error) {
	args := m.Called(ctx, rewardID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralReward), args.Error(1)
}

type mockInstructors struct{ mock.Mock }

func (m *mockInstructors) GetPublic(ctx context.Context, instructorID string) (*InstructorDetail, error) {
	args := m.Called(ctx, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*InstructorDetail), args.Error(1)
}

func (m *mockInstructors) UpsertProfile(ctx context.Context, userID string, in ProfileInput) (*model.InstructorProfile, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorProfile), args.Error(1)
}

func (m *mockInstructors) UploadPhoto(ctx context.Context, userID string, r io.Reader, contentType string, size int64) (*model.InstructorProfile, error) {
	args := m.Called(ctx, userID, r, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorProfile), args.Error(1)
}

func (m *mockInstructors) AddService(ctx context.Context, userID string, in ServiceInput) (*model.InstructorService, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorService), args.Error(1)
}

func (m *mockInstructors) UpdateService(ctx context.Context, userID, serviceID string, in ServiceInput) (*model.InstructorService, error) {
	args := m.Called(ctx, userID, serviceID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorService), args.Error(1)
}

func (m *mockInstructors) RemoveService(ctx context.Context, userID, serviceID string) error {
	return m.Called(ctx, userID, serviceID).Error(0)
}

func (m *mockInstructors) Connect(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockInstructors) RefreshPayouts(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingStatus), args.Error(1)
}

func (m *mockInstructors) SetPayoutsByAccount(ctx context.Context, accountID string, enabled bool) error {
	return m.Called(ctx, accountID, enabled).Error(0)
}

func (m *mockInstructors) Onboarding(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingStatus), args.Error(1)
}

func (m *mockInstructors) GoLive(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingStatus), args.Error(1)
}
