package handler

import (
	"github.com/gofiber/fiber/v2"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns an access token.
//
// @Summary  Sign up
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body service.RegisterInput true "Signup form"
// @Success  201 {object} service.AuthResult
// @Failure  409 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /api/v1/auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterInput
		if !bindJSON(c, &in) {
			return nil
		}
		in.ClientIP = c.IP()
		res, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// Login exchanges credentials for an access token.
//
// @Summary  Log in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body loginRequest true "Credentials"
// @Success  200 {object} service.AuthResult
// @Failure  401 {object} errorPayload
// @Router   /api/v1/auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if !bindJSON(c, &req) {
			return nil
		}
		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// Me returns the authenticated user.
//
// @Summary  Current user
// @Tags     auth
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} model.User
// @Router   /api/v1/auth/me [get]
func Me(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Me(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}
