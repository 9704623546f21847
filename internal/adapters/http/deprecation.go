package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to a
// deprecated endpoint so clients can migrate before removal. sunset is
// a YYYY-MM-DD date; successor is the replacement path.
func DeprecationMiddleware(sunset, successor string) fiber.Handler {
	sunsetAt, err := time.Parse("2006-01-02", sunset)
	if err != nil {
		// Misconfigured sunset date is a programming error; fall back to
		// marking deprecated without a date.
		sunsetAt = time.Time{}
	}

	return func(c *fiber.Ctx) error {
		// RFC 8594 Deprecation header
		c.Set("Deprecation", "true")

		if !sunsetAt.IsZero() {
			// RFC 8594 Sunset header (HTTP-Date format)
			c.Set("Sunset", sunsetAt.UTC().Format(time.RFC1123))

			days := time.Until(sunsetAt).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
		}

		if successor != "" {
			// RFC 8288 Link header pointing at the replacement
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, successor))
		}

		return c.Next()
	}
}
