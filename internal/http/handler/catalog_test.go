package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
	"instainstru/internal/service"
	serviceMocks "instainstru/internal/service/mocks"
)

const catalogServiceID = "3c6e1f2a-8b4d-4e7a-9c1f-0a2b4c6d8e04"

func TestListCatalogServices(t *testing.T) {
	mockSvc := new(serviceMocks.MockCatalogService)
	app := newApp("", "")
	app.Get("/catalog/services", ListCatalogServices(mockSvc))

	mockSvc.On("ListServices", mock.Anything, "music").
		Return([]model.CatalogService{{ID: catalogServiceID, Name: "Piano"}}, nil).Once()

	resp, _ := app.Test(jsonRequest(http.MethodGet, "/catalog/services?category_id=music", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []model.CatalogService `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Piano", body.Data[0].Name)
	mockSvc.AssertExpectations(t)
}

func TestPopularServices(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		limit      int
		wantStatus int
		wantCode   string
	}{
		{name: "default limit", query: "", limit: 10, wantStatus: http.StatusOK},
		{name: "explicit limit", query: "?limit=3", limit: 3, wantStatus: http.StatusOK},
		{name: "bad limit", query: "?limit=many", wantStatus: http.StatusBadRequest, wantCode: "INVALID_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockCatalogService)
			app := newApp("", "")
			app.Get("/popular", PopularServices(mockSvc))
			if tt.wantCode == "" {
				mockSvc.On("Popular", mock.Anything, tt.limit).Return([]model.CatalogService{}, nil).Once()
			}

			resp, _ := app.Test(jsonRequest(http.MethodGet, "/popular"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestGetCatalogService(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCatalogService)
		app := newApp("", "")
		app.Get("/catalog/services/:id", GetCatalogService(mockSvc))

		mockSvc.On("GetService", mock.Anything, catalogServiceID).
			Return(nil, &service.Error{Kind: service.ErrNotFound, Message: "service not found"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodGet, "/catalog/services/"+catalogServiceID, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCatalogService)
		app := newApp("", "")
		app.Get("/catalog/services/:id", GetCatalogService(mockSvc))

		resp, _ := app.Test(jsonRequest(http.MethodGet, "/catalog/services/piano", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
		mockSvc.AssertNotCalled(t, "GetService", mock.Anything, mock.Anything)
	})
}
