//go:build integration
// +build integration

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	handler "github.com/ryanwparks/georeach/internal/adapters/http"
	"github.com/ryanwparks/georeach/internal/adapters/postgres"
	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/usecases"
	"github.com/ryanwparks/georeach/internal/pkg/config"
)

// setupTestDB connects to the test database and returns a DB instance.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("georeach-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupTestDeps creates dependencies with real repos, mocked solver, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	facilityRepo := postgres.NewFacilityRepo(db)
	demandRepo := postgres.NewDemandRepo(db)
	analysisRepo := postgres.NewAnalysisRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	solver := &mockSolver{}
	publisher := &mockPublisher{}

	return &handler.Dependencies{
		ServiceAreas: usecases.NewServiceAreaService(solver, facilityRepo, analysisRepo, nil, 10, 300, 0),
		Allocations:  usecases.NewAllocationService(solver, facilityRepo, demandRepo, analysisRepo, jobRepo, publisher, 50, 1, 1),
		Facilities:   usecases.NewFacilityService(facilityRepo, nil),
		Demand:       usecases.NewDemandService(demandRepo),
		Jobs:         usecases.NewJobService(jobRepo, solver, publisher),
		Analyses:     usecases.NewAnalysisService(analysisRepo),
		DB:           db,
	}
}

// seedTestFacility inserts a facility and returns its UUID.
func seedTestFacility(t *testing.T, db *postgres.DB, name, category string) string {
	ctx := context.Background()
	var id string
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO facilities (name, category, location, capacity)
		VALUES ($1, $2, ST_Point(-118.24, 34.05, 4326)::geography, 100)
		ON CONFLICT (name, category) DO UPDATE SET capacity = EXCLUDED.capacity
		RETURNING id
	`, name, category).Scan(&id); err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	return id
}

// seedTestDemandPoint inserts a demand point and returns its UUID.
func seedTestDemandPoint(t *testing.T, db *postgres.DB, name, group string, weight float64) string {
	ctx := context.Background()
	var id string
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO demand_points (name, group_name, location, weight)
		VALUES ($1, $2, ST_Point(-118.25, 34.06, 4326)::geography, $3)
		ON CONFLICT (name, group_name) DO UPDATE SET weight = EXCLUDED.weight
		RETURNING id
	`, name, group, weight).Scan(&id); err != nil {
		t.Fatalf("seed demand point: %v", err)
	}
	return id
}

func TestListFacilities_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestFacility(t, db, "Integration Store A", "retail")
	seedTestFacility(t, db, "Integration Store B", "retail")

	deps := setupTestDeps(t, db)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)

	req := httptest.NewRequest("GET", "/v1/facilities?category=retail", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data []domain.Facility `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data) < 2 {
		t.Errorf("expected at least 2 facilities, got %d", len(result.Data))
	}
}

func TestNearbyFacilities_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestFacility(t, db, "Integration Nearby", "clinic")

	deps := setupTestDeps(t, db)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)

	req := httptest.NewRequest("GET", "/v1/facilities/nearby?lat=34.05&lon=-118.24&radius=1000", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Facilities []domain.Facility `json:"facilities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Facilities) == 0 {
		t.Error("expected at least one nearby facility")
	}
	for _, f := range result.Facilities {
		if f.Distance == nil {
			t.Errorf("facility %s missing distance", f.Name)
		}
	}
}

func TestAllocationSolve_Integration_StoredInputs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	facilityID := seedTestFacility(t, db, "Integration Candidate", "warehouse")
	demandID := seedTestDemandPoint(t, db, "Integration Tract", "census", 4200)

	deps := setupTestDeps(t, db)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)

	body, _ := json.Marshal(map[string]any{
		"problem_type":       domain.ProblemMaximizeCoverage,
		"facility_ids":       []string{facilityID},
		"demand_point_ids":   []string{demandID},
		"facilities_to_find": 1,
	})
	req := httptest.NewRequest("POST", "/v1/allocations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var outcome usecases.SolveOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.Analysis == nil {
		t.Fatal("expected persisted analysis")
	}

	// The analysis must be retrievable afterwards
	req = httptest.NewRequest("GET", "/v1/analyses/"+outcome.Analysis.ID, nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
