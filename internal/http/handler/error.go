package handler

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDOf(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

var serviceErrors = []struct {
	kind   error
	status int
	code   string
}{
	{service.ErrValidation, fiber.StatusUnprocessableEntity, "VALIDATION_FAILED"},
	{service.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{service.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{service.ErrPaymentFailed, fiber.StatusPaymentRequired, "PAYMENT_FAILED"},
}

// writeServiceError translates a service error into the error envelope.
// Unclassified errors become a 500 and their text only reaches the access log.
func writeServiceError(c *fiber.Ctx, err error) error {
	for _, e := range serviceErrors {
		if errors.Is(err, e.kind) {
			msg := err.Error()
			var se *service.Error
			if errors.As(err, &se) {
				msg = se.Message
			}
			return writeError(c, e.status, e.code, msg)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	}
	c.Locals(middleware.ErrorLocalKey, err.Error())
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := ""
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			message = e.Message
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", message)
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		default:
			c.Locals(middleware.ErrorLocalKey, err.Error())
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
