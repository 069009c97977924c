package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/abgtour/planttour/internal/adapters/catalog"
	natsadapter "github.com/abgtour/planttour/internal/adapters/nats"
	"github.com/abgtour/planttour/internal/adapters/postgres"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/core/usecases"
	"github.com/abgtour/planttour/internal/pkg/config"
	"github.com/abgtour/planttour/internal/pkg/logging"
)

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

// Usage: ingestor [catalog location ...]
//
// Each location is a file path, file:// URL or http(s) URL. With no
// arguments the configured catalog is loaded.
func main() {
	cfg, err := config.Load("planttour-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewPlantRepo(db)

	locations := os.Args[1:]
	if len(locations) == 0 {
		locations = []string{cfg.Tour.CatalogSource()}
	}

	layout := usecases.DefaultLayout
	layout.Height = cfg.Tour.HeightColumn

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	sem := make(chan struct{}, 4) // max 4 concurrent downloads

	for _, loc := range locations {
		wg.Add(1)
		go func(loc string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := ingest(ctx, repo, catalog.NewSource(loc, cfg.Tour.FetchTimeout), layout)
			if err != nil {
				slog.Error("ingest failed", "source", loc, "error", err)
				return
			}
			mu.Lock()
			total += n
			mu.Unlock()
		}(loc)
	}
	wg.Wait()

	count, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("count plants: %v", err)
	}
	slog.Info("ingestion complete", "upserted", total, "stored", count)

	if cfg.NATS.Enabled && total > 0 {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, skipping catalog event", "error", err)
			return
		}
		defer pub.Close()
		if err := pub.PublishCatalogUpdated(ctx, count); err != nil {
			slog.Warn("publish catalog event failed", "error", err)
		}
	}
}

// ---------------------------------------------------------------------------
// Per-source ingestion
// ---------------------------------------------------------------------------

func ingest(ctx context.Context, repo *postgres.PlantRepo, src ports.CatalogSource, layout usecases.CSVLayout) (int, error) {
	slog.Info("downloading catalog", "source", src.Name())

	raw, err := src.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	records, stats := usecases.ParseCatalogStats(raw, layout)
	slog.Info("catalog parsed", "source", src.Name(),
		"rows", stats.Rows, "accepted", stats.Accepted, "dropped", stats.Dropped)

	if err := repo.UpsertBatch(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
