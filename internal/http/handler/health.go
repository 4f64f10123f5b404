package handler

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Check is one readiness dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// DBCheck pings PostgreSQL.
func DBCheck(db *sql.DB) Check {
	return Check{Name: "postgres", Ping: db.PingContext}
}

// HealthCheck reports readiness; every check must answer within two seconds.
//
// @Summary  Readiness check
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]any
// @Failure  503 {object} errorPayload
// @Router   /health [get]
func HealthCheck(checks ...Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		var down []string
		for _, chk := range checks {
			if err := chk.Ping(ctx); err != nil {
				results[chk.Name] = "down"
				down = append(down, chk.Name)
				continue
			}
			results[chk.Name] = "up"
		}
		if len(down) > 0 {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", strings.Join(down, ", ")+" unavailable")
		}
		return c.JSON(fiber.Map{"status": "healthy", "checks": results})
	}
}

// Liveness always answers 200 while the process serves requests.
func Liveness() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
