package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

// Search runs a natural-language search over live offerings.
//
// @Summary  Search instructors
// @Tags     search
// @Produce  json
// @Param    q     query string true  "e.g. piano lessons under $50 tomorrow evening"
// @Param    limit query int    false "Max results" default(20)
// @Success  200 {object} service.SearchResult
// @Router   /api/v1/search [get]
func Search(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		res, err := svc.Search(c.UserContext(), middleware.UserID(c), c.Query("q"), limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
