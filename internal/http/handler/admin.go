package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"instainstru/internal/model"
	"instainstru/internal/repository"
	"instainstru/internal/service"
)

type voidRequest struct {
	Reason string `json:"reason"`
}

// AdminListBookings lists bookings with optional filters.
//
// @Summary  All bookings
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Param    status        query string false "Booking status"
// @Param    instructor_id query string false "Instructor filter"
// @Param    student_id    query string false "Student filter"
// @Param    from          query string false "Start on or after (YYYY-MM-DD)"
// @Param    to            query string false "Start before (YYYY-MM-DD)"
// @Param    limit         query int    false "Page size" default(50)
// @Param    offset        query int    false "Offset"
// @Router   /api/v1/admin/bookings [get]
func AdminListBookings(svc service.BookingService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := pagination(c, 50)
		if !ok {
			return nil
		}
		f := repository.BookingFilter{
			Status:       model.BookingStatus(c.Query("status")),
			InstructorID: c.Query("instructor_id"),
			StudentID:    c.Query("student_id"),
		}
		if v := c.Query("from"); v != "" {
			if f.From, ok = parseDate(c, "from", v, loc); !ok {
				return nil
			}
		}
		if v := c.Query("to"); v != "" {
			if f.To, ok = parseDate(c, "to", v, loc); !ok {
				return nil
			}
		}
		res, err := svc.AdminList(c.UserContext(), f, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// AdminCancelBooking cancels with a full refund regardless of policy.
//
// @Summary  Cancel any booking
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string        true  "Booking ID"
// @Param    body body cancelRequest false "Reason"
// @Success  200 {object} model.Booking
// @Router   /api/v1/admin/bookings/{id}/cancel [post]
func AdminCancelBooking(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var req cancelRequest
		if len(c.Body()) > 0 && !bindJSON(c, &req) {
			return nil
		}
		b, err := svc.AdminCancel(c.UserContext(), id, req.Reason)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(b)
	}
}

// AdminListHeldRewards lists referral rewards held for review.
//
// @Summary  Held referral rewards
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Router   /api/v1/admin/referrals/held [get]
func AdminListHeldRewards(svc service.ReferralService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := pagination(c, 50)
		if !ok {
			return nil
		}
		res, err := svc.ListHeld(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// AdminApproveReward releases a held reward into the normal hold window.
//
// @Summary  Approve a held reward
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "Reward ID"
// @Success  200 {object} model.ReferralReward
// @Router   /api/v1/admin/referrals/{id}/approve [post]
func AdminApproveReward(svc service.ReferralService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		r, err := svc.Approve(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(r)
	}
}

// AdminVoidReward
//
// @Summary  Void a reward
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string      true  "Reward ID"
// @Param    body body voidRequest false "Reason"
// @Success  200 {object} model.ReferralReward
// @Router   /api/v1/admin/referrals/{id}/void [post]
func AdminVoidReward(svc service.ReferralService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var req voidRequest
		if len(c.Body()) > 0 && !bindJSON(c, &req) {
			return nil
		}
		r, err := svc.Void(c.UserContext(), id, req.Reason)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(r)
	}
}
