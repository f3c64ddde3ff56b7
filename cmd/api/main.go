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

	"github.com/ryanwparks/georeach/internal/adapters/arcgis"
	"github.com/ryanwparks/georeach/internal/adapters/http"
	natsadapter "github.com/ryanwparks/georeach/internal/adapters/nats"
	"github.com/ryanwparks/georeach/internal/adapters/postgres"
	"github.com/ryanwparks/georeach/internal/adapters/valkey"
	"github.com/ryanwparks/georeach/internal/core/ports"
	"github.com/ryanwparks/georeach/internal/core/usecases"
	"github.com/ryanwparks/georeach/internal/pkg/config"
	"github.com/ryanwparks/georeach/internal/pkg/logging"
	"github.com/ryanwparks/georeach/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("georeach-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

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

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Remote GIS client
	solver := arcgis.NewClient(cfg.GIS)

	// Repos
	facilityRepo := postgres.NewFacilityRepo(db)
	demandRepo := postgres.NewDemandRepo(db)
	analysisRepo := postgres.NewAnalysisRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	// Use cases
	serviceAreaSvc := usecases.NewServiceAreaService(solver, facilityRepo, analysisRepo, cacheSvc,
		cfg.Solver.MaxBreaks, cfg.Solver.MaxBreakMinutes, cfg.Solver.ResultCacheSeconds)
	allocationSvc := usecases.NewAllocationService(solver, facilityRepo, demandRepo, analysisRepo,
		jobRepo, publisher, cfg.Solver.SyncFacilityLimit, cfg.Solver.JobPollInterval, cfg.Solver.JobTimeout)
	facilitySvc := usecases.NewFacilityService(facilityRepo, cacheSvc)
	demandSvc := usecases.NewDemandService(demandRepo)
	jobSvc := usecases.NewJobService(jobRepo, solver, publisher)
	analysisSvc := usecases.NewAnalysisService(analysisRepo)

	deps := &http.Dependencies{
		ServiceAreas: serviceAreaSvc,
		Allocations:  allocationSvc,
		Facilities:   facilitySvc,
		Demand:       demandSvc,
		Jobs:         jobSvc,
		Analyses:     analysisSvc,
		NATS:         natsConn,
		DB:           db,
		Cache:        cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // solve requests can carry many points
		AppName:      "GeoReach API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
