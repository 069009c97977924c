package http

import (
	"github.com/nats-io/nats.go"

	"github.com/abgtour/planttour/internal/adapters/postgres"
	"github.com/abgtour/planttour/internal/adapters/valkey"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Plants      *usecases.PlantService
	Catalog     *usecases.CatalogService
	Tours       *usecases.TourService
	Sessions    *usecases.SessionRegistry
	Calibration *usecases.CalibrationService
	// Renderer receives every batch of sessions created over HTTP or
	// WebSocket, in addition to the client itself. May be nil.
	Renderer ports.SceneRenderer
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
	Version  string
}
