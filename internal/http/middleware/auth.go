package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"printconnect/internal/model"
	"printconnect/internal/service"
)

const (
	// IdentityLocalKey is the key under which the resolved *model.Identity is stored.
	IdentityLocalKey = "identity"
	// TokenLocalKey holds the raw bearer token of the request, if any.
	TokenLocalKey = "token"
)

// BearerToken reads the token from "Authorization: Bearer <token>". Browsers
// cannot set headers on EventSource requests, so access_token is accepted as a query fallback.
func BearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Query("access_token")
}

// Authenticate resolves the bearer token to an identity when one is present.
// Requests without a valid token continue anonymously; use RequireIdentity to reject them.
func Authenticate(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Next()
		}
		identity, err := auth.CurrentIdentity(c.UserContext(), token)
		switch {
		case err == nil:
			c.Locals(IdentityLocalKey, identity)
			c.Locals(TokenLocalKey, token)
		case errors.Is(err, service.ErrUnauthenticated):
		default:
			return err
		}
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by Authenticate, or nil.
func IdentityFromCtx(c *fiber.Ctx) *model.Identity {
	if v, ok := c.Locals(IdentityLocalKey).(*model.Identity); ok {
		return v
	}
	return nil
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFromCtx(c) == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "sign in required")
		}
		return c.Next()
	}
}

// RequireOperator rejects requests that are not from a print shop operator.
func RequireOperator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := IdentityFromCtx(c)
		if identity == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "sign in required")
		}
		if !identity.IsOperator() {
			return fiber.NewError(fiber.StatusForbidden, "operators only")
		}
		return c.Next()
	}
}
