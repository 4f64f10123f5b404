package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

type confirmPaymentRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type rescheduleRequest struct {
	StartAt time.Time `json:"start_at"`
}

// CreateBooking
//
// @Summary  Book a lesson
// @Tags     bookings
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body service.CreateBookingInput true "Booking request"
// @Success  201 {object} model.Booking
// @Failure  409 {object} errorPayload
// @Router   /api/v1/bookings [post]
func CreateBooking(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateBookingInput
		if !bindJSON(c, &in) {
			return nil
		}
		b, err := svc.Create(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// ListBookings lists the caller's bookings as student or instructor.
//
// @Summary  My bookings
// @Tags     bookings
// @Produce  json
// @Security BearerAuth
// @Param    upcoming query bool false "Only lessons that have not ended"
// @Param    limit    query int  false "Page size" default(20)
// @Param    offset   query int  false "Offset"
// @Router   /api/v1/bookings [get]
func ListBookings(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := pagination(c, 20)
		if !ok {
			return nil
		}
		res, err := svc.ListMine(c.UserContext(), middleware.UserID(c), c.QueryBool("upcoming"), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetBooking
//
// @Summary  Booking detail
// @Tags     bookings
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "Booking ID"
// @Success  200 {object} model.Booking
// @Router   /api/v1/bookings/{id} [get]
func GetBooking(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		b, err := svc.Get(c.UserContext(), actor(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(b)
	}
}

// ConfirmPayment attaches a payment method to a pending booking.
//
// @Summary  Confirm payment
// @Tags     bookings
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string                true "Booking ID"
// @Param    body body confirmPaymentRequest true "Payment method"
// @Success  200 {object} model.Booking
// @Failure  402 {object} errorPayload
// @Router   /api/v1/bookings/{id}/confirm-payment [post]
func ConfirmPayment(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var req confirmPaymentRequest
		if !bindJSON(c, &req) {
			return nil
		}
		b, err := svc.ConfirmPayment(c.UserContext(), middleware.UserID(c), id, req.PaymentMethodID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(b)
	}
}

// CancelBooking cancels under the cancellation policy. The body is optional.
//
// @Summary  Cancel a booking
// @Tags     bookings
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string        true  "Booking ID"
// @Param    body body cancelRequest false "Reason"
// @Success  200 {object} model.Booking
// @Router   /api/v1/bookings/{id}/cancel [post]
func CancelBooking(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var req cancelRequest
		if len(c.Body()) > 0 && !bindJSON(c, &req) {
			return nil
		}
		b, err := svc.Cancel(c.UserContext(), actor(c), id, req.Reason)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(b)
	}
}

// RescheduleBooking moves a lesson and returns the replacement booking.
//
// @Summary  Reschedule a booking
// @Tags     bookings
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string            true "Booking ID"
// @Param    body body rescheduleRequest true "New start"
// @Success  201 {object} model.Booking
// @Router   /api/v1/bookings/{id}/reschedule [post]
func RescheduleBooking(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var req rescheduleRequest
		if !bindJSON(c, &req) {
			return nil
		}
		if req.StartAt.IsZero() {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "start_at is required")
		}
		b, err := svc.Reschedule(c.UserContext(), middleware.UserID(c), id, req.StartAt)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// CompleteBooking
//
// @Summary  Mark a lesson completed
// @Tags     bookings
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "Booking ID"
// @Success  200 {object} model.Booking
// @Router   /api/v1/bookings/{id}/complete [post]
func CompleteBooking(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		b, err := svc.Complete(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(b)
	}
}

// MarkNoShow
//
// @Summary  Report a student no-show
// @Tags     bookings
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "Booking ID"
// @Success  200 {object} model.Booking
// @Router   /api/v1/bookings/{id}/no-show [post]
func MarkNoShow(svc service.BookingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		b, err := svc.MarkNoShow(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(b)
	}
}
