package handler

import (
	"github.com/gofiber/fiber/v2"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

// maxPhotoBytes caps profile photo uploads.
const maxPhotoBytes = 5 << 20

// GetInstructor returns an instructor's public profile and live services.
//
// @Summary  Instructor profile
// @Tags     instructors
// @Produce  json
// @Param    id path string true "Instructor ID"
// @Success  200 {object} service.InstructorDetail
// @Router   /api/v1/instructors/{id} [get]
func GetInstructor(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		d, err := svc.GetPublic(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(d)
	}
}

// UpsertProfile
//
// @Summary  Create or update my instructor profile
// @Tags     instructors
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body service.ProfileInput true "Profile"
// @Success  200 {object} model.InstructorProfile
// @Router   /api/v1/instructors/me/profile [put]
func UpsertProfile(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProfileInput
		if !bindJSON(c, &in) {
			return nil
		}
		p, err := svc.UpsertProfile(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(p)
	}
}

// UploadPhoto stores a profile photo (multipart/form-data, field name: photo).
//
// @Summary  Upload my profile photo
// @Tags     instructors
// @Accept   mpfd
// @Produce  json
// @Security BearerAuth
// @Param    photo formData file true "JPEG or PNG image"
// @Success  200 {object} model.InstructorProfile
// @Router   /api/v1/instructors/me/photo [post]
func UploadPhoto(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("photo")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "photo is required")
		}
		if fh.Size > maxPhotoBytes {
			return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "photo exceeds 5 MB")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		p, err := svc.UploadPhoto(c.UserContext(), middleware.UserID(c), f, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(p)
	}
}

// AddService
//
// @Summary  Offer a catalog service
// @Tags     instructors
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body service.ServiceInput true "Service"
// @Success  201 {object} model.InstructorService
// @Router   /api/v1/instructors/me/services [post]
func AddService(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ServiceInput
		if !bindJSON(c, &in) {
			return nil
		}
		s, err := svc.AddService(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// UpdateService
//
// @Summary  Update an offered service
// @Tags     instructors
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string               true "Instructor service ID"
// @Param    body body service.ServiceInput true "Service"
// @Success  200 {object} model.InstructorService
// @Router   /api/v1/instructors/me/services/{id} [put]
func UpdateService(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var in service.ServiceInput
		if !bindJSON(c, &in) {
			return nil
		}
		s, err := svc.UpdateService(c.UserContext(), middleware.UserID(c), id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(s)
	}
}

// RemoveService
//
// @Summary  Stop offering a service
// @Tags     instructors
// @Security BearerAuth
// @Param    id path string true "Instructor service ID"
// @Success  204
// @Router   /api/v1/instructors/me/services/{id} [delete]
func RemoveService(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		if err := svc.RemoveService(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ConnectPayouts returns a payout onboarding link.
//
// @Summary  Start payout onboarding
// @Tags     instructors
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]string
// @Router   /api/v1/instructors/me/connect [post]
func ConnectPayouts(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		url, err := svc.Connect(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"onboarding_url": url})
	}
}

// RefreshPayouts re-reads the payout account status from the processor.
//
// @Summary  Refresh payout status
// @Tags     instructors
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} model.OnboardingStatus
// @Router   /api/v1/instructors/me/connect/refresh [post]
func RefreshPayouts(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.RefreshPayouts(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(st)
	}
}

// Onboarding
//
// @Summary  Onboarding checklist
// @Tags     instructors
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} model.OnboardingStatus
// @Router   /api/v1/instructors/me/onboarding [get]
func Onboarding(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Onboarding(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(st)
	}
}

// GoLive publishes the instructor once every onboarding step is complete.
//
// @Summary  Go live
// @Tags     instructors
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} model.OnboardingStatus
// @Failure  409 {object} errorPayload
// @Router   /api/v1/instructors/me/go-live [post]
func GoLive(svc service.InstructorService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.GoLive(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(st)
	}
}
