package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/core/usecases"
)

// SyncResult is what one catalog sync stored.
type SyncResult struct {
	usecases.ParseStats
	Stored int `json:"stored"`
}

// CatalogActivities holds the activity implementations for the catalog sync workflow.
type CatalogActivities struct {
	Catalog   *usecases.CatalogService
	Plants    ports.PlantRepository
	Publisher ports.EventPublisher
}

// InvalidateCatalogCache drops the cached CSV so the sync reads the source.
func (a *CatalogActivities) InvalidateCatalogCache(ctx context.Context) error {
	if err := a.Catalog.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

// StoreCatalog fetches and parses the catalog and upserts every record.
func (a *CatalogActivities) StoreCatalog(ctx context.Context) (SyncResult, error) {
	records, err := a.Catalog.Records(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	res := SyncResult{ParseStats: a.Catalog.Status().ParseStats}

	if a.Plants == nil {
		slog.Warn("no plant repository configured, catalog not stored", "records", len(records))
		return res, nil
	}
	if err := a.Plants.UpsertBatch(ctx, records); err != nil {
		return res, fmt.Errorf("upsert plants: %w", err)
	}
	res.Stored = len(records)
	return res, nil
}

// PublishCatalogUpdated announces the sync so API replicas drop their caches.
func (a *CatalogActivities) PublishCatalogUpdated(ctx context.Context, records int) error {
	if a.Publisher == nil {
		slog.Info("catalog updated (no publisher)", "records", records)
		return nil
	}
	return a.Publisher.PublishCatalogUpdated(ctx, records)
}
