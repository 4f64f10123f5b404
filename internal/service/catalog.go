package service

import (
	"context"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// CatalogService exposes the platform's service catalog.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListServices(ctx context.Context, categoryID string) ([]model.CatalogService, error)
	GetService(ctx context.Context, id string) (*model.CatalogService, error)
	Popular(ctx context.Context, limit int) ([]model.CatalogService, error)
}

type catalogService struct {
	repo repository.CatalogRepository
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo repository.CatalogRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *catalogService) ListServices(ctx context.Context, categoryID string) ([]model.CatalogService, error) {
	return s.repo.ListServices(ctx, categoryID)
}

func (s *catalogService) GetService(ctx context.Context, id string) (*model.CatalogService, error) {
	svc, err := s.repo.FindService(ctx, id)
	if err != nil {
		return nil, notFound(err, "service")
	}
	return svc, nil
}

func (s *catalogService) Popular(ctx context.Context, limit int) ([]model.CatalogService, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.ListPopular(ctx, limit)
}
