package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"instainstru/internal/availability"
	"instainstru/internal/model"
	"instainstru/internal/service"
	serviceMocks "instainstru/internal/service/mocks"
)

func photoRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile(field, "me.png")
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/instructors/me/photo", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadPhoto(t *testing.T) {
	mockSvc := new(serviceMocks.MockInstructorService)
	app := newApp(instructorID, model.RoleInstructor)
	app.Post("/instructors/me/photo", UploadPhoto(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("UploadPhoto", mock.Anything, instructorID, mock.Anything, mock.Anything, int64(5)).
			Return(&model.InstructorProfile{UserID: instructorID, PhotoURL: "https://cdn/p.png"}, nil).Once()

		resp, _ := app.Test(photoRequest(t, "photo", []byte("hello")))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(photoRequest(t, "avatar", []byte("hello")))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("unsupported type", func(t *testing.T) {
		mockSvc.On("UploadPhoto", mock.Anything, instructorID, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.ErrValidation, Message: "photo must be a JPEG or PNG image"}).Once()

		resp, _ := app.Test(photoRequest(t, "photo", []byte("GIF89a")))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestGoLive(t *testing.T) {
	mockSvc := new(serviceMocks.MockInstructorService)
	app := newApp(instructorID, model.RoleInstructor)
	app.Post("/instructors/me/go-live", GoLive(mockSvc))

	mockSvc.On("GoLive", mock.Anything, instructorID).
		Return(nil, &service.Error{Kind: service.ErrConflict, Message: "onboarding incomplete: payouts"}).Once()

	resp, _ := app.Test(jsonRequest(http.MethodPost, "/instructors/me/go-live", nil))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "onboarding incomplete: payouts", decodeError(t, resp).Error.Message)
}

func TestConnectPayouts(t *testing.T) {
	mockSvc := new(serviceMocks.MockInstructorService)
	app := newApp(instructorID, model.RoleInstructor)
	app.Post("/instructors/me/connect", ConnectPayouts(mockSvc))

	mockSvc.On("Connect", mock.Anything, instructorID).Return("https://connect.stripe.com/setup/x", nil).Once()

	resp, _ := app.Test(jsonRequest(http.MethodPost, "/instructors/me/connect", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestSaveWeek(t *testing.T) {
	mockSvc := new(serviceMocks.MockAvailabilityService)
	app := newApp(instructorID, model.RoleInstructor)
	app.Put("/availability/week", SaveWeek(mockSvc, time.UTC))

	t.Run("success", func(t *testing.T) {
		days := map[string][]availability.Window{"2026-10-26": {{Start: "09:00", End: "12:00"}}}
		monday := time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)
		mockSvc.On("SaveWeek", mock.Anything, instructorID, monday, days).
			Return(&service.WeekAvailability{WeekStart: "2026-10-26", Days: days}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/availability/week", saveWeekRequest{WeekStart: "2026-10-26", Days: days}))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("bad week_start", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPut, "/availability/week", saveWeekRequest{WeekStart: "next monday"}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_DATE", decodeError(t, resp).Error.Code)
	})
}

func TestOpenSlots(t *testing.T) {
	mockSvc := new(serviceMocks.MockAvailabilityService)
	app := newApp("", "")
	app.Get("/instructors/:id/availability/slots", OpenSlots(mockSvc, time.UTC))
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	mockSvc.On("OpenSlots", mock.Anything, instructorID, date, 90).
		Return([]service.Slot{{Start: date.Add(9 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)}}, nil).Once()

	resp, _ := app.Test(jsonRequest(http.MethodGet, "/instructors/"+instructorID+"/availability/slots?date=2026-10-20&duration=90", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)

	resp, _ = app.Test(jsonRequest(http.MethodGet, "/instructors/"+instructorID+"/availability/slots?date=2026-10-20&duration=0", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMondayOf(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	sunday := time.Date(2026, 10, 25, 23, 0, 0, 0, loc)
	assert.Equal(t, "2026-10-19", mondayOf(sunday, loc).Format(service.DateLayout))
	monday := time.Date(2026, 10, 26, 0, 30, 0, 0, loc)
	assert.Equal(t, "2026-10-26", mondayOf(monday, loc).Format(service.DateLayout))
}
