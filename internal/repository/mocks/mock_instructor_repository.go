package mocks

import (
	"context"

	"instainstru/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockInstructorRepository struct {
	mock.Mock
}

func (m *MockInstructorRepository) UpsertProfile(ctx context.Context, p *model.InstructorProfile) (*model.InstructorProfile, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorProfile), args.Error(1)
}

func (m *MockInstructorRepository) FindProfile(ctx context.Context, userID string) (*model.InstructorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorProfile), args.Error(1)
}

func (m *MockInstructorRepository) FindByStripeAccount(ctx context.Context, accountID string) (*model.InstructorProfile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorProfile), args.Error(1)
}

func (m *MockInstructorRepository) UpdatePhoto(ctx context.Context, userID string, key string) error {
	args := m.Called(ctx, userID, key)
	return args.Error(0)
}

func (m *MockInstructorRepository) SetStripeAccount(ctx context.Context, userID string, accountID string) error {
	args := m.Called(ctx, userID, accountID)
	return args.Error(0)
}

func (m *MockInstructorRepository) SetPayoutsEnabled(ctx context.Context, userID string, enabled bool) error {
	args := m.Called(ctx, userID, enabled)
	return args.Error(0)
}

func (m *MockInstructorRepository) SetLive(ctx context.Context, userID string, live bool) error {
	args := m.Called(ctx, userID, live)
	return args.Error(0)
}

func (m *MockInstructorRepository) CreateService(ctx context.Context, s *model.InstructorService) (*model.InstructorService, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorService), args.Error(1)
}

func (m *MockInstructorRepository) UpdateService(ctx context.Context, s *model.InstructorService) (*model.InstructorService, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorService), args.Error(1)
}

func (m *MockInstructorRepository) DeactivateService(ctx context.Context, instructorID string, id string) error {
	args := m.Called(ctx, instructorID, id)
	return args.Error(0)
}

func (m *MockInstructorRepository) FindService(ctx context.Context, id string) (*model.InstructorService, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorService), args.Error(1)
}

func (m *MockInstructorRepository) ListServices(ctx context.Context, instructorID string) ([]model.InstructorService, error) {
	args := m.Called(ctx, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InstructorService), args.Error(1)
}
