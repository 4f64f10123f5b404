package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/model"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogService) ListServices(ctx context.Context, categoryID string) ([]model.CatalogService, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogService), args.Error(1)
}

func (m *MockCatalogService) GetService(ctx context.Context, id string) (*model.CatalogService, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CatalogService), args.Error(1)
}

func (m *MockCatalogService) Popular(ctx context.Context, limit int) ([]model.CatalogService, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogService), args.Error(1)
}
