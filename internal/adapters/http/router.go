package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/abgtour/planttour/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Position updates arrive every few seconds per device.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/plants", timeout.NewWithContext(ListPlantsHandler(deps), requestTimeout))
	v1.Get("/plants/nearby", timeout.NewWithContext(NearbyPlantsHandler(deps), requestTimeout))
	v1.Get("/plants/:id", timeout.NewWithContext(GetPlantHandler(deps), requestTimeout))
	v1.Get("/catalog/status", CatalogStatusHandler(deps))

	v1.Post("/sessions", CreateSessionHandler(deps))
	v1.Post("/sessions/:id/positions", timeout.NewWithContext(SessionPositionHandler(deps), requestTimeout))
	v1.Delete("/sessions/:id", DeleteSessionHandler(deps))

	v1.Get("/calibration/:device", timeout.NewWithContext(GetCalibrationHandler(deps), requestTimeout))
	v1.Put("/calibration/:device", timeout.NewWithContext(PutCalibrationHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app, DefaultSpecPath)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if id := c.Query("session"); id != "" {
			if _, err := deps.Sessions.Get(id); err == nil {
				return errSessionInUse(c, "session "+id+" is already live")
			}
		}
		return c.Next()
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
