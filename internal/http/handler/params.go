package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

// The helpers below write a 400 response themselves and report ok=false;
// the caller then returns nil.

// pagination reads limit and offset with the given default limit.
func pagination(c *fiber.Ctx, defLimit int) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defLimit)))
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		return 0, 0, false
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		return 0, 0, false
	}
	return limit, offset, true
}

// pathID returns the :name parameter after checking it is a UUID.
func pathID(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	return id, true
}

func bindJSON(c *fiber.Ctx, v any) bool {
	if err := c.BodyParser(v); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return false
	}
	return true
}

// parseDate parses a YYYY-MM-DD value as midnight in loc.
func parseDate(c *fiber.Ctx, field, value string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(service.DateLayout, value, loc)
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_DATE", field+" must be a YYYY-MM-DD date")
		return time.Time{}, false
	}
	return t, true
}

// parseTime parses an optional RFC 3339 query value.
func parseTime(c *fiber.Ctx, field string) (*time.Time, bool) {
	v := c.Query(field)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_TIME", field+" must be an RFC 3339 timestamp")
		return nil, false
	}
	return &t, true
}

func actor(c *fiber.Ctx) service.Actor {
	return service.Actor{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}
