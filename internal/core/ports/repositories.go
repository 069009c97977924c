package ports

import (
	"context"

	"github.com/abgtour/planttour/internal/core/domain"
)

// CatalogSource fetches the raw plant catalog text (the CSV file).
type CatalogSource interface {
	Fetch(ctx context.Context) (string, error)
	// Name identifies the source in logs and errors (URL or path).
	Name() string
}

// PlantRepository persists a mirror of the plant catalog.
type PlantRepository interface {
	UpsertBatch(ctx context.Context, plants []domain.PlantRecord) error
	GetByID(ctx context.Context, id string) (*domain.PlantRecord, error)
	// FindNearby returns candidates within radiusMeters, nearest first.
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.RankedPlant, error)
	Count(ctx context.Context) (int, error)
}
