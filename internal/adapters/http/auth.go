package http

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireToken guards mutating endpoints with a static bearer token.
// An empty configured token disables the check (local development).
func RequireToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return errUnauthorized(c, "missing bearer token")
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return errUnauthorized(c, "invalid token")
		}
		return c.Next()
	}
}
