package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/service"
)

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, userID, q string, limit int) (*service.SearchResult, error) {
	args := m.Called(ctx, userID, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchResult), args.Error(1)
}
