package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"instainstru/internal/service"
)

// ListCategories
//
// @Summary  Catalog categories
// @Tags     catalog
// @Produce  json
// @Success  200 {array} model.Category
// @Router   /api/v1/catalog/categories [get]
func ListCategories(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.ListCategories(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": cats})
	}
}

// ListCatalogServices lists catalog services, optionally within one category.
//
// @Summary  Catalog services
// @Tags     catalog
// @Produce  json
// @Param    category_id query string false "Category filter"
// @Success  200 {array} model.CatalogService
// @Router   /api/v1/catalog/services [get]
func ListCatalogServices(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		services, err := svc.ListServices(c.UserContext(), c.Query("category_id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": services})
	}
}

// PopularServices lists the services with the highest demand score.
//
// @Summary  Popular services
// @Tags     catalog
// @Produce  json
// @Param    limit query int false "Max results" default(10)
// @Router   /api/v1/catalog/services/popular [get]
func PopularServices(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		services, err := svc.Popular(c.UserContext(), limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": services})
	}
}

// GetCatalogService
//
// @Summary  Catalog service detail
// @Tags     catalog
// @Produce  json
// @Param    id path string true "Service ID"
// @Success  200 {object} model.CatalogService
// @Failure  404 {object} errorPayload
// @Router   /api/v1/catalog/services/{id} [get]
func GetCatalogService(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		s, err := svc.GetService(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(s)
	}
}
