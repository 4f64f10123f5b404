package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
	repoMocks "instainstru/internal/repository/mocks"
)

func TestCatalogService(t *testing.T) {
	repo := new(repoMocks.MockCatalogRepository)
	svc := NewCatalogService(repo)
	ctx := context.Background()

	repo.On("FindService", mock.Anything, "missing").Return(nil, sql.ErrNoRows)
	_, err := svc.GetService(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: 10},
		{name: "explicit", limit: 5, want: 5},
		{name: "too many", limit: 500, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.On("ListPopular", mock.Anything, tt.want).Return([]model.CatalogService{{ID: "piano"}}, nil).Once()
			got, err := svc.Popular(ctx, tt.limit)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}
