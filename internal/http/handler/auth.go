package handler

import (
	"github.com/gofiber/fiber/v2"

	"printconnect/internal/http/middleware"
	"printconnect/internal/service"
)

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	CollegeID string `json:"college_id"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new identity and starts a session.
//
// @Summary  Register
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body signUpRequest true "registration"
// @Success  201 {object} service.AuthResult
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Router   /auth/signup [post]
func SignUp(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signUpRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		res, err := auth.SignUp(c.UserContext(), service.SignUpInput{
			Email:     req.Email,
			Password:  req.Password,
			Name:      req.Name,
			CollegeID: req.CollegeID,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// SignIn starts a session for an existing identity.
//
// @Summary  Sign in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body signInRequest true "credentials"
// @Success  200 {object} service.AuthResult
// @Failure  401 {object} errorPayload
// @Router   /auth/signin [post]
func SignIn(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		res, err := auth.SignIn(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// SignOut ends the caller's session. It succeeds for anonymous callers too.
//
// @Summary  Sign out
// @Tags     auth
// @Security BearerAuth
// @Success  204
// @Router   /auth/signout [post]
func SignOut(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := auth.SignOut(c.UserContext(), middleware.BearerToken(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// CurrentSession returns the signed-in identity, or null when there is none.
//
// @Summary  Current identity
// @Tags     auth
// @Security BearerAuth
// @Produce  json
// @Success  200 {object} model.Identity
// @Router   /auth/session [get]
func CurrentSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": middleware.IdentityFromCtx(c)})
	}
}
