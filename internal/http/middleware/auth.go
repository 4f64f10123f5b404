package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"instainstru/internal/auth"
	"instainstru/internal/model"
)

const (
	// UserIDLocalKey holds the authenticated user's id in Fiber's context locals.
	UserIDLocalKey = "user_id"
	// RoleLocalKey holds the authenticated user's role.
	RoleLocalKey = "role"
)

// Auth verifies the bearer access token and stores the caller in locals.
// Browsers cannot set headers on EventSource requests, so the token may also
// arrive in the access_token query parameter.
func Auth(issuer *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing access token")
		}
		claims, err := issuer.Parse(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid access token")
		}
		c.Locals(UserIDLocalKey, claims.UserID)
		c.Locals(RoleLocalKey, claims.Role)
		return c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles. Admins pass
// every role check.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		if role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if role == model.RoleAdmin {
			return c.Next()
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}

// Role returns the authenticated user's role.
func Role(c *fiber.Ctx) model.Role {
	r, _ := c.Locals(RoleLocalKey).(model.Role)
	return r
}

func bearerToken(h string) string {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// OptionalAuth stores the caller when a valid bearer token is present and
// lets anonymous requests through.
func OptionalAuth(issuer *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c.Get(fiber.HeaderAuthorization)); token != "" {
			if claims, err := issuer.Parse(token); err == nil {
				c.Locals(UserIDLocalKey, claims.UserID)
				c.Locals(RoleLocalKey, claims.Role)
			}
		}
		return c.Next()
	}
}
