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

// parsePagination reads offset and limit, falling back to def for a
// missing or out-of-range limit.
func parsePagination(c *fiber.Ctx, def, maxLimit int) Pagination {
	p := Pagination{Offset: c.QueryInt("offset", 0), Limit: c.QueryInt("limit", def)}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > maxLimit {
		p.Limit = def
	}
	return p
}

// window returns the [start, end) bounds of the page within total items
// and records total on p.
func (p *Pagination) window(total int) (int, int) {
	p.Total = total
	if p.Offset >= total {
		return total, total
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	return p.Offset, end
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// It uses the current request path and query parameters.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	links := []string{fmt.Sprintf(`<%s?offset=0&limit=%d>; rel="first"`, base, p.Limit)}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="prev"`, base, prev, p.Limit))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="next"`, base, p.Offset+p.Limit, p.Limit))
	}

	lastOffset := p.Total - p.Limit
	if lastOffset < 0 {
		lastOffset = 0
	}
	links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="last"`, base, lastOffset, p.Limit))

	c.Set("Link", strings.Join(links, ", "))
}
