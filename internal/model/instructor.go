package model

import "time"

// InstructorProfile holds the onboarding state of an instructor account.
type InstructorProfile struct {
	UserID          string    `json:"user_id"`
	Bio             string    `json:"bio"`
	YearsExperience int       `json:"years_experience"`
	ServiceAreas    []string  `json:"service_areas"`
	PhotoKey        string    `json:"-"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	StripeAccountID string    `json:"-"`
	PayoutsEnabled  bool      `json:"payouts_enabled"`
	IsLive          bool      `json:"is_live"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// InstructorService is a catalog service offered by an instructor at their own rate.
type InstructorService struct {
	ID               string    `json:"id"`
	InstructorID     string    `json:"instructor_id"`
	CatalogServiceID string    `json:"catalog_service_id"`
	ServiceName      string    `json:"service_name,omitempty"`
	HourlyRateCents  int64     `json:"hourly_rate_cents"`
	DurationOptions  []int     `json:"duration_options"`
	Description      string    `json:"description"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// AllowsDuration reports whether minutes is one of the offered lesson lengths.
func (s InstructorService) AllowsDuration(minutes int) bool {
	for _, d := range s.DurationOptions {
		if d == minutes {
			return true
		}
	}
	return false
}

// OnboardingStatus is the go-live checklist for an instructor.
type OnboardingStatus struct {
	ProfileComplete bool     `json:"profile_complete"`
	HasServices     bool     `json:"has_services"`
	PayoutsEnabled  bool     `json:"payouts_enabled"`
	HasAvailability bool     `json:"has_availability"`
	IsLive          bool     `json:"is_live"`
	Missing         []string `json:"missing"`
}

// Ready reports whether every go-live requirement is met.
func (o OnboardingStatus) Ready() bool {
	return len(o.Missing) == 0
}
