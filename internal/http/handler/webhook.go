package handler

import (
	"github.com/gofiber/fiber/v2"

	"instainstru/internal/service"
)

// StripeWebhook verifies and applies payment processor events.
//
// @Summary  Stripe webhook
// @Tags     payments
// @Accept   json
// @Produce  json
// @Param    Stripe-Signature header string true "Event signature"
// @Success  200 {object} map[string]bool
// @Failure  401 {object} errorPayload
// @Router   /api/v1/webhooks/stripe [post]
func StripeWebhook(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// fasthttp reuses the body buffer after the handler returns.
		payload := append([]byte(nil), c.Body()...)
		if err := svc.HandleWebhook(c.UserContext(), payload, c.Get("Stripe-Signature")); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"received": true})
	}
}
