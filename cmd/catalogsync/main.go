package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/abgtour/planttour/internal/adapters/catalog"
	natsadapter "github.com/abgtour/planttour/internal/adapters/nats"
	"github.com/abgtour/planttour/internal/adapters/postgres"
	"github.com/abgtour/planttour/internal/adapters/valkey"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/core/usecases"
	"github.com/abgtour/planttour/internal/pkg/config"
	"github.com/abgtour/planttour/internal/pkg/logging"
	"github.com/abgtour/planttour/internal/workflows"
)

const workflowID = "planttour-catalog-sync"

func main() {
	cfg, err := config.Load("planttour-catalogsync")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	acts := &workflows.CatalogActivities{}

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
		}
	}

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		acts.Plants = postgres.NewPlantRepo(db)
	}

	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			acts.Publisher = pub
		}
	}

	layout := usecases.DefaultLayout
	layout.Height = cfg.Tour.HeightColumn
	source := catalog.NewSource(cfg.Tour.CatalogSource(), cfg.Tour.FetchTimeout)
	acts.Catalog = usecases.NewCatalogService(source, cache, layout, cfg.Tour.CacheTTL)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.CatalogSyncWorkflow)
	w.RegisterActivity(acts)

	opts := client.StartWorkflowOptions{
		ID:           workflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.Cron,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, workflows.CatalogSyncWorkflow)
	if err != nil {
		// Usually the cron workflow from a previous start is still running.
		slog.Warn("catalog sync not started", "error", err)
	} else {
		slog.Info("catalog sync scheduled", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "cron", cfg.Temporal.Cron)
	}

	slog.Info("catalog sync worker started", "task_queue", cfg.Temporal.TaskQueue, "source", source.Name())
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
