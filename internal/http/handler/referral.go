package handler

import (
	"github.com/gofiber/fiber/v2"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

// MyReferrals returns the caller's share code and reward totals.
//
// @Summary  My referrals
// @Tags     referrals
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} service.ReferralSummary
// @Router   /api/v1/referrals/me [get]
func MyReferrals(svc service.ReferralService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Summary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(s)
	}
}
