package usecases

import (
	"context"
	"fmt"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/ports"
)

// repoCandidateLimit caps how many rows the repository pre-filter returns
// before exact re-ranking.
const repoCandidateLimit = 500

// PlantService answers catalog queries outside of a live tour.
type PlantService struct {
	catalog *CatalogService
	plants  ports.PlantRepository
}

// NewPlantService creates a new PlantService. plants may be nil, in which
// case every query is answered from the CSV catalog.
func NewPlantService(catalog *CatalogService, plants ports.PlantRepository) *PlantService {
	return &PlantService{catalog: catalog, plants: plants}
}

// FindNearby returns plants within radiusMeters of the given point, nearest first.
func (s *PlantService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.RankedPlant, error) {
	if limit <= 0 || limit > 50 {
		limit = DefaultNearbyLimit
	}
	opts := SelectOptions{MaxRadiusMeters: radiusMeters, Limit: limit}
	user := domain.GeoPoint{Lat: lat, Lon: lon}

	var records []domain.PlantRecord
	if s.plants != nil {
		candidates, err := s.plants.FindNearby(ctx, lat, lon, radiusMeters*1.01, repoCandidateLimit)
		if err != nil {
			return nil, fmt.Errorf("find nearby plants: %w", err)
		}
		records = make([]domain.PlantRecord, len(candidates))
		for i, c := range candidates {
			records[i] = c.PlantRecord
		}
	} else {
		var err error
		records, err = s.catalog.Records(ctx)
		if err != nil {
			return nil, err
		}
	}

	return SelectNearby(user, records, opts), nil
}

// GetByID returns a single plant. When the id appears more than once in
// the catalog, the last row wins.
func (s *PlantService) GetByID(ctx context.Context, id string) (*domain.PlantRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("plant id must not be empty")
	}
	if s.plants != nil {
		return s.plants.GetByID(ctx, id)
	}

	records, err := s.catalog.Records(ctx)
	if err != nil {
		return nil, err
	}
	var found *domain.PlantRecord
	for i := range records {
		if records[i].ID == id {
			found = &records[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("plant %s: %w", id, domain.ErrNotFound)
	}
	return found, nil
}

// List returns the whole parsed catalog in file order.
func (s *PlantService) List(ctx context.Context) ([]domain.PlantRecord, error) {
	return s.catalog.Records(ctx)
}
