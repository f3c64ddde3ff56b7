package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

func pageLink(base string, offset, limit int, rel string) string {
	return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel=%q`, base, offset, limit, rel)
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses so
// clients can walk facility and demand point listings without computing
// offsets themselves. Offsets snap to page boundaries.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	if p.Limit <= 0 {
		return
	}

	base := c.Path()
	links := []string{pageLink(base, 0, p.Limit, "first")}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, pageLink(base, prev, p.Limit, "prev"))
	}

	if next := p.Offset + p.Limit; next < p.Total {
		links = append(links, pageLink(base, next, p.Limit, "next"))
	}

	last := ((p.Total - 1) / p.Limit) * p.Limit
	if last < 0 {
		last = 0
	}
	links = append(links, pageLink(base, last, p.Limit, "last"))

	c.Set("Link", strings.Join(links, ", "))
}
