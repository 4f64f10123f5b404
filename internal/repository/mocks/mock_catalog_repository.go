package mocks

import (
	"context"

	"instainstru/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) CountCategories(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCatalogRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateService(ctx context.Context, s *model.CatalogService) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogRepository) ListServices(ctx context.Context, categoryID string) ([]model.CatalogService, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogService), args.Error(1)
}

func (m *MockCatalogRepository) FindService(ctx context.Context, id string) (*model.CatalogService, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CatalogService), args.Error(1)
}

func (m *MockCatalogRepository) ListPopular(ctx context.Context, limit int) ([]model.CatalogService, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogService), args.Error(1)
}
