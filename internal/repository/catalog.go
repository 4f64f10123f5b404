package repository

import (
	"context"

	"instainstru/internal/model"
)

// CatalogRepository persists categories and catalog services.
type CatalogRepository interface {
	CountCategories(ctx context.Context) (int, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	CreateService(ctx context.Context, s *model.CatalogService) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	// ListServices returns every service, or only those of categoryID when it is set.
	ListServices(ctx context.Context, categoryID string) ([]model.CatalogService, error)
	FindService(ctx context.Context, id string) (*model.CatalogService, error)
	// ListPopular orders services by their latest demand score.
	ListPopular(ctx context.Context, limit int) ([]model.CatalogService, error)
}
