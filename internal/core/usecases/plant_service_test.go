package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/usecases"
)

func TestPlantService_FindNearbyFromCatalog(t *testing.T) {
	catalog := usecases.NewCatalogService(staticSource(scenarioCSV), nil, usecases.DefaultLayout, 0)
	svc := usecases.NewPlantService(catalog, nil)

	plants, err := svc.FindNearby(context.Background(), campus.Lat, campus.Lon, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plants) != 1 || plants[0].ID != "P1" {
		t.Errorf("expected [P1], got %+v", plants)
	}
}

func TestPlantService_FindNearbyReRanksRepository(t *testing.T) {
	var gotRadius float64
	repo := &mockPlantRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.RankedPlant, error) {
			gotRadius = radius
			// Repository order and distances are not trusted.
			return []domain.RankedPlant{
				{PlantRecord: domain.PlantRecord{ID: "far", Location: offsetNorth(campus, 9)}},
				{PlantRecord: domain.PlantRecord{ID: "out", Location: offsetNorth(campus, 10.05)}},
				{PlantRecord: domain.PlantRecord{ID: "near", Location: offsetNorth(campus, 1)}},
			}, nil
		},
	}
	svc := usecases.NewPlantService(nil, repo)

	plants, err := svc.FindNearby(context.Background(), campus.Lat, campus.Lon, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotRadius <= 10 {
		t.Errorf("expected padded pre-filter radius, got %v", gotRadius)
	}
	if len(plants) != 2 || plants[0].ID != "near" || plants[1].ID != "far" {
		t.Errorf("expected [near far], got %+v", plants)
	}
}

func TestPlantService_GetByID(t *testing.T) {
	csv := "header\n" +
		"P1,Oak,,,Quercus,,,-76.9440,38.9820,,2\n" +
		"P1,Oak,,,Quercus,,,-76.9441,38.9821,,3\n"
	catalog := usecases.NewCatalogService(staticSource(csv), nil, usecases.DefaultLayout, 0)
	svc := usecases.NewPlantService(catalog, nil)

	p, err := svc.GetByID(context.Background(), "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Height != 3 {
		t.Errorf("expected last row to win, got height %v", p.Height)
	}

	_, err = svc.GetByID(context.Background(), "P404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
