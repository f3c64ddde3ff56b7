package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/ports"
)

// JobService tracks and controls asynchronous solve jobs.
type JobService struct {
	jobs      ports.SolveJobRepository
	solver    ports.NetworkSolver
	publisher ports.EventPublisher
}

// NewJobService creates a new JobService.
func NewJobService(jobs ports.SolveJobRepository, solver ports.NetworkSolver, publisher ports.EventPublisher) *JobService {
	return &JobService{jobs: jobs, solver: solver, publisher: publisher}
}

// Get returns a single job.
func (s *JobService) Get(ctx context.Context, id string) (*domain.SolveJob, error) {
	if id == "" {
		return nil, fmt.Errorf("job id is required")
	}
	return s.jobs.GetByID(ctx, id)
}

// ListActive returns jobs that are not yet terminal.
func (s *JobService) ListActive(ctx context.Context, limit int) ([]domain.SolveJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.jobs.ListActive(ctx, limit)
}

// Cancel stops a job. If the remote service already holds the job it is
// asked to cancel it; either way the local record becomes cancelled.
func (s *JobService) Cancel(ctx context.Context, id string) (*domain.SolveJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Terminal() {
		return nil, fmt.Errorf("job %s is already %s", id, job.Status)
	}

	if job.RemoteJobID != "" {
		if err := s.solver.CancelJob(ctx, job.RemoteJobID); err != nil {
			return nil, fmt.Errorf("cancel remote job: %w", err)
		}
	}

	if err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobCancelled, job.RemoteJobID, ""); err != nil {
		return nil, err
	}
	job.Status = domain.JobCancelled

	if s.publisher != nil {
		_ = s.publisher.PublishJobEvent(ctx, &domain.JobEvent{
			JobID:  job.ID,
			Kind:   job.Kind,
			Status: domain.JobCancelled,
			Time:   time.Now(),
		})
	}
	return job, nil
}
