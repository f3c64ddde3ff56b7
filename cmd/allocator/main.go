package main

import (
	"context"
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/ryanwparks/georeach/internal/adapters/arcgis"
	natsadapter "github.com/ryanwparks/georeach/internal/adapters/nats"
	"github.com/ryanwparks/georeach/internal/adapters/postgres"
	"github.com/ryanwparks/georeach/internal/core/usecases"
	"github.com/ryanwparks/georeach/internal/pkg/config"
	"github.com/ryanwparks/georeach/internal/workflows"
)

// The allocator worker runs long allocation solves as Temporal
// workflows, giving them durable retries and saga cleanup on failure.
func main() {
	cfg, err := config.Load("georeach-allocator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

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

	solver := arcgis.NewClient(cfg.GIS)

	facilityRepo := postgres.NewFacilityRepo(db)
	demandRepo := postgres.NewDemandRepo(db)
	analysisRepo := postgres.NewAnalysisRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	allocationSvc := usecases.NewAllocationService(solver, facilityRepo, demandRepo, analysisRepo,
		jobRepo, publisher, cfg.Solver.SyncFacilityLimit, cfg.Solver.JobPollInterval, cfg.Solver.JobTimeout)

	// Connect to Temporal
	hostPort := os.Getenv("TEMPORAL_HOSTPORT")
	if hostPort == "" {
		hostPort = "localhost:7233"
	}
	c, err := client.Dial(client.Options{
		HostPort: hostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, "allocation-queue", worker.Options{})

	w.RegisterWorkflow(workflows.AllocationWorkflow)
	w.RegisterActivity(&workflows.AllocationActivities{
		Allocations: allocationSvc,
		Solver:      solver,
		Analyses:    analysisRepo,
		Jobs:        jobRepo,
		Publisher:   publisher,
	})

	log.Println("allocator worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
