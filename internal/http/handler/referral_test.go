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

const rewardID = "7e4a2c1d-5b3f-4a6e-8d9c-2f1e3a5b7c05"

func TestMyReferrals(t *testing.T) {
	mockSvc := new(serviceMocks.MockReferralService)
	app := newApp(studentID, model.RoleStudent)
	app.Get("/referrals/me", MyReferrals(mockSvc))

	mockSvc.On("Summary", mock.Anything, studentID).Return(&service.ReferralSummary{
		Code:         "7KQ2M9XH",
		ShareURL:     "https://instainstru.com/r/7KQ2M9XH",
		PendingCents: 2000,
	}, nil).Once()

	resp, _ := app.Test(jsonRequest(http.MethodGet, "/referrals/me", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got service.ReferralSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "7KQ2M9XH", got.Code)
	assert.Equal(t, int64(2000), got.PendingCents)
	mockSvc.AssertExpectations(t)
}

func TestAdminHeldRewards(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReferralService)
		app := newApp("admin-1", model.RoleAdmin)
		app.Get("/held", AdminListHeldRewards(mockSvc))

		mockSvc.On("ListHeld", mock.Anything, 50, 0).Return(&service.ListResult[model.ReferralReward]{
			Items: []model.ReferralReward{{ID: rewardID, Status: model.RewardHeld}},
			Total: 1,
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodGet, "/held", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("approve", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReferralService)
		app := newApp("admin-1", model.RoleAdmin)
		app.Post("/referrals/:id/approve", AdminApproveReward(mockSvc))

		mockSvc.On("Approve", mock.Anything, rewardID).
			Return(&model.ReferralReward{ID: rewardID, Status: model.RewardPending}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/referrals/"+rewardID+"/approve", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got model.ReferralReward
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, model.RewardPending, got.Status)
	})

	t.Run("approve a reward that is not held", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReferralService)
		app := newApp("admin-1", model.RoleAdmin)
		app.Post("/referrals/:id/approve", AdminApproveReward(mockSvc))

		mockSvc.On("Approve", mock.Anything, rewardID).
			Return(nil, &service.Error{Kind: service.ErrConflict, Message: "reward is not held"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/referrals/"+rewardID+"/approve", nil))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)
	})

	t.Run("void with reason", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReferralService)
		app := newApp("admin-1", model.RoleAdmin)
		app.Post("/referrals/:id/void", AdminVoidReward(mockSvc))

		mockSvc.On("Void", mock.Anything, rewardID, "shared device").
			Return(&model.ReferralReward{ID: rewardID, Status: model.RewardVoid, VoidReason: "shared device"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/referrals/"+rewardID+"/void", voidRequest{Reason: "shared device"}))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}
