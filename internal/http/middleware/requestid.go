package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"printconnect/internal/logger"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// canonicalUUIDLen is the length of the hyphenated 8-4-4-4-12 form.
const canonicalUUIDLen = 36

// validRequestID accepts only canonical UUIDs; the value ends up in log lines and error bodies.
func validRequestID(id string) bool {
	if len(id) != canonicalUUIDLen {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// RequestID ensures every request carries a UUID request ID.
// An incoming X-Request-ID is kept when it is a canonical UUID and replaced otherwise.
// The ID is stored in locals, echoed in the response header and attached to the
// request's user context so service logs written through logger.FromContext carry it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.SetUserContext(logger.WithRequestID(c.UserContext(), id))
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
