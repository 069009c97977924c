package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/abgtour/planttour/internal/adapters/catalog"
	"github.com/abgtour/planttour/internal/adapters/http"
	natsadapter "github.com/abgtour/planttour/internal/adapters/nats"
	"github.com/abgtour/planttour/internal/adapters/postgres"
	"github.com/abgtour/planttour/internal/adapters/valkey"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/core/usecases"
	"github.com/abgtour/planttour/internal/pkg/config"
	"github.com/abgtour/planttour/internal/pkg/logging"
	"github.com/abgtour/planttour/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("planttour-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{Version: version}

	// Cache: raw catalog text and device calibration.
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, running without cache", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
		}
	}

	// Database: PostGIS-backed plant queries.
	var plants ports.PlantRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		plants = postgres.NewPlantRepo(db)
		deps.DB = db
	}

	// NATS: marker batches out, catalog updates in.
	var renderer ports.SceneRenderer
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			renderer = pub
			deps.NATS = pub.Conn()
		}
	}

	layout := usecases.DefaultLayout
	layout.Height = cfg.Tour.HeightColumn
	source := catalog.NewSource(cfg.Tour.CatalogSource(), cfg.Tour.FetchTimeout)
	catalogSvc := usecases.NewCatalogService(source, cache, layout, cfg.Tour.CacheTTL)

	tours := usecases.NewTourService(catalogSvc, nil, usecases.TourOptions{
		Select: usecases.SelectOptions{
			MaxRadiusMeters: cfg.Tour.MaxRadiusM,
			Limit:           cfg.Tour.Limit,
		},
		Throttle: usecases.ThrottlePolicy{
			MinInterval:   cfg.Tour.UpdateInterval,
			MinMoveMeters: cfg.Tour.MinMoveM,
		},
		Appearance: usecases.Appearance{ModelBaseURL: cfg.Tour.ModelBaseURL},
	})
	sessions := usecases.NewSessionRegistry(tours, cfg.Tour.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	deps.Plants = usecases.NewPlantService(catalogSvc, plants)
	deps.Catalog = catalogSvc
	deps.Tours = tours
	deps.Sessions = sessions
	deps.Calibration = usecases.NewCalibrationService(cache)
	deps.Renderer = renderer

	if cfg.NATS.Enabled {
		host, _ := os.Hostname()
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "planttour-api-"+host)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := catalogSvc.Watch(ctx, sub); err != nil {
				slog.Warn("catalog update subscription failed", "error", err)
			}
		}
	}

	// Warm the catalog so the first tour does not pay for the fetch.
	go func() {
		if _, err := catalogSvc.Records(ctx); err != nil {
			slog.Warn("initial catalog load failed", "source", source.Name(), "error", err)
			return
		}
		st := catalogSvc.Status()
		slog.Info("catalog loaded", "source", st.Source, "accepted", st.Accepted, "dropped", st.Dropped)
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // position and calibration bodies are tiny
		AppName:      "Plant Tour API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "catalog", source.Name())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
