package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/model"
	"instainstru/internal/service"
)

type MockInstructorService struct {
	mock.Mock
}

func (m *MockInstructorService) GetPublic(ctx context.Context, instructorID string) (*service.InstructorDetail, error) {
	args := m.Called(ctx, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InstructorDetail), args.Error(1)
}

func (m *MockInstructorService) UpsertProfile(ctx context.Context, userID string, in service.ProfileInput) (*model.InstructorProfile, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorProfile), args.Error(1)
}

func (m *MockInstructorService) UploadPhoto(ctx context.Context, userID string, r io.Reader, contentType string, size int64) (*model.InstructorProfile, error) {
	args := m.Called(ctx, userID, r, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorProfile), args.Error(1)
}

func (m *MockInstructorService) AddService(ctx context.Context, userID string, in service.ServiceInput) (*model.InstructorService, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorService), args.Error(1)
}

func (m *MockInstructorService) UpdateService(ctx context.Context, userID, serviceID string, in service.ServiceInput) (*model.InstructorService, error) {
	args := m.Called(ctx, userID, serviceID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InstructorService), args.Error(1)
}

func (m *MockInstructorService) RemoveService(ctx context.Context, userID, serviceID string) error {
	args := m.Called(ctx, userID, serviceID)
	return args.Error(0)
}

func (m *MockInstructorService) Connect(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockInstructorService) RefreshPayouts(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingStatus), args.Error(1)
}

func (m *MockInstructorService) SetPayoutsByAccount(ctx context.Context, accountID string, enabled bool) error {
	args := m.Called(ctx, accountID, enabled)
	return args.Error(0)
}

func (m *MockInstructorService) Onboarding(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingStatus), args.Error(1)
}

func (m *MockInstructorService) GoLive(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingStatus), args.Error(1)
}
