package repository

import (
	"context"

	"instainstru/internal/model"
)

// InstructorRepository persists instructor profiles and offered services.
type InstructorRepository interface {
	UpsertProfile(ctx context.Context, p *model.InstructorProfile) (*model.InstructorProfile, error)
	FindProfile(ctx context.Context, userID string) (*model.InstructorProfile, error)
	FindByStripeAccount(ctx context.Context, accountID string) (*model.InstructorProfile, error)
	UpdatePhoto(ctx context.Context, userID, key string) error
	SetStripeAccount(ctx context.Context, userID, accountID string) error
	SetPayoutsEnabled(ctx context.Context, userID string, enabled bool) error
	SetLive(ctx context.Context, userID string, live bool) error

	CreateService(ctx context.Context, s *model.InstructorService) (*model.InstructorService, error)
	UpdateService(ctx context.Context, s *model.InstructorService) (*model.InstructorService, error)
	// DeactivateService hides a service; existing bookings keep referencing it.
	DeactivateService(ctx context.Context, instructorID, id string) error
	FindService(ctx context.Context, id string) (*model.InstructorService, error)
	ListServices(ctx context.Context, instructorID string) ([]model.InstructorService, error)
}
