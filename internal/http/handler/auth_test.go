package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
	"instainstru/internal/service"
	serviceMocks "instainstru/internal/service/mocks"
)

func TestRegister(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := newApp("", "")
	app.Post("/auth/register", Register(mockSvc))

	t.Run("success", func(t *testing.T) {
		res := &service.AuthResult{AccessToken: "tok", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour), User: &model.User{ID: studentID}}
		mockSvc.On("Register", mock.Anything, mock.MatchedBy(func(in service.RegisterInput) bool {
			return in.Email == "ada@example.com" && in.ReferralCode == "AB100" && in.ClientIP != ""
		})).Return(res, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/register", map[string]string{
			"email": "ada@example.com", "password": "correct horse", "first_name": "Ada", "role": "student", "referral_code": "AB100",
		}))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var got service.AuthResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "tok", got.AccessToken)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/auth/register", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.ErrConflict, Message: "email is already registered"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/register", map[string]string{"email": "ada@example.com"}))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "email is already registered", decodeError(t, resp).Error.Message)
	})
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := newApp("", "")
	app.Post("/auth/login", Login(mockSvc))

	mockSvc.On("Login", mock.Anything, "ada@example.com", "wrong").
		Return(nil, &service.Error{Kind: service.ErrUnauthorized, Message: "invalid email or password"}).Once()

	resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", loginRequest{Email: "ada@example.com", Password: "wrong"}))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	mockSvc.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := newApp(studentID, model.RoleStudent)
	app.Get("/auth/me", Me(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Me", mock.Anything, studentID).Return(&model.User{ID: studentID, FirstName: "Ada"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodGet, "/auth/me", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("repository miss", func(t *testing.T) {
		mockSvc.On("Me", mock.Anything, studentID).Return(nil, sql.ErrNoRows).Once()

		resp, _ := app.Test(jsonRequest(http.MethodGet, "/auth/me", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
