package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ryanwparks/georeach/internal/adapters/arcgis"
	natsadapter "github.com/ryanwparks/georeach/internal/adapters/nats"
	"github.com/ryanwparks/georeach/internal/adapters/postgres"
	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/usecases"
	"github.com/ryanwparks/georeach/internal/pkg/config"
	"github.com/ryanwparks/georeach/internal/pkg/logging"
)

// The solver worker drains the queued-jobs stream and runs each
// location-allocation job against the remote service.
func main() {
	cfg, err := config.Load("georeach-solver")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer publisher.Close()

	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer subscriber.Close()

	solver := arcgis.NewClient(cfg.GIS)

	facilityRepo := postgres.NewFacilityRepo(db)
	demandRepo := postgres.NewDemandRepo(db)
	analysisRepo := postgres.NewAnalysisRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	allocationSvc := usecases.NewAllocationService(solver, facilityRepo, demandRepo, analysisRepo,
		jobRepo, publisher, cfg.Solver.SyncFacilityLimit, cfg.Solver.JobPollInterval, cfg.Solver.JobTimeout)

	err = subscriber.SubscribeQueuedJobs(ctx, func(ctx context.Context, job *domain.SolveJob) error {
		slog.Info("picked up solve job", "job_id", job.ID, "kind", job.Kind)
		if err := allocationSvc.ExecuteJob(ctx, job); err != nil {
			slog.Error("solve job failed", "job_id", job.ID, "error", err)
			return err
		}
		slog.Info("solve job finished", "job_id", job.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("solver worker started", "nats", cfg.NATS.URL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down solver worker", "signal", sig.String())
	cancel()
}
