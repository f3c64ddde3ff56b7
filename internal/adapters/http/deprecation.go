package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint that is scheduled for removal, such
// as the /v1/coverage alias kept for early integrators.
type DeprecatedRoute struct {
	Path        string    // Exact handler path
	SunsetDate  time.Time // Date when the endpoint stops serving
	Alternative string    // Successor endpoint, if any
}

// DeprecationMiddleware stamps deprecated endpoints with RFC 8594
// Deprecation and Sunset headers plus a successor-version Link so
// clients can migrate before the sunset date.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	byPath := make(map[string]DeprecatedRoute, len(deprecated))
	for _, d := range deprecated {
		byPath[d.Path] = d
	}

	return func(c *fiber.Ctx) error {
		d, ok := byPath[c.Path()]
		if !ok {
			return c.Next()
		}

		c.Set("Deprecation", "true")
		c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
		if d.Alternative != "" {
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
		}

		if days := time.Until(d.SunsetDate).Hours() / 24; days > 0 {
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated endpoint, sunset in %.0f days"`, days))
		}

		return c.Next()
	}
}
