package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets a default Cache-Control on GET responses when the
// handler did not set one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"
		case path == "/metrics":
			ttl = "no-cache"
		case strings.HasPrefix(path, "/v1/sessions"), strings.HasPrefix(path, "/ws"):
			ttl = "no-store"
		case strings.HasPrefix(path, "/v1/calibration/"):
			ttl = "private, no-cache"
		case path == "/v1/plants/nearby":
			ttl = "public, max-age=30" // users walk; keep it short
		case path == "/v1/catalog/status":
			ttl = "public, max-age=30"
		case strings.HasPrefix(path, "/v1/plants"):
			ttl = "public, max-age=300"
		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
