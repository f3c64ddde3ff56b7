//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ryanwparks/georeach/internal/adapters/postgres"
	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/pkg/config"
)

func setupJobTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("georeach-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return &postgres.DB{Pool: pool}
}

// Status transitions after submission carry no remote ID; the stored one
// must survive them so a user cancel can still reach the remote job.
func TestJobRepo_UpdateStatus_KeepsRemoteJobID(t *testing.T) {
	db := setupJobTestDB(t)
	defer db.Close()

	repo := postgres.NewJobRepo(db)
	ctx := context.Background()

	job := &domain.SolveJob{
		Kind:   domain.AnalysisAllocation,
		Status: domain.JobQueued,
		Params: map[string]any{"problem_type": domain.ProblemMaximizeCoverage},
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	defer db.Pool.Exec(ctx, `DELETE FROM solve_jobs WHERE id = $1`, job.ID)

	if err := repo.UpdateStatus(ctx, job.ID, domain.JobSubmitted, "remote-42", ""); err != nil {
		t.Fatalf("submit transition: %v", err)
	}
	if err := repo.UpdateStatus(ctx, job.ID, domain.JobRunning, "", ""); err != nil {
		t.Fatalf("running transition: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != domain.JobRunning {
		t.Errorf("expected status %s, got %s", domain.JobRunning, got.Status)
	}
	if got.RemoteJobID != "remote-42" {
		t.Errorf("remote job id lost on status transition: got %q", got.RemoteJobID)
	}

	if err := repo.UpdateStatus(ctx, job.ID, domain.JobSucceeded, "", ""); err != nil {
		t.Fatalf("terminal transition: %v", err)
	}
	got, err = repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.RemoteJobID != "remote-42" {
		t.Errorf("remote job id lost on terminal transition: got %q", got.RemoteJobID)
	}
}
