package ports

import (
	"context"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// NetworkSolver talks to the hosted network analysis service.
type NetworkSolver interface {
	// SolveServiceArea runs a synchronous service-area solve.
	SolveServiceArea(ctx context.Context, facilities domain.FeatureSet, params domain.ServiceAreaParams) (*domain.ServiceAreaResult, error)

	// SubmitAllocationJob submits an asynchronous location-allocation job
	// and returns the remote job id.
	SubmitAllocationJob(ctx context.Context, facilities, demand domain.FeatureSet, params domain.AllocationParams) (string, error)

	// JobStatus reports the remote state of a submitted job, mapped to a
	// job status constant, along with any solver messages.
	JobStatus(ctx context.Context, jobID string) (string, []string, error)

	// FetchAllocationResult retrieves the output parameters of a
	// succeeded allocation job.
	FetchAllocationResult(ctx context.Context, jobID string) (*domain.AllocationResult, error)

	// CancelJob asks the remote service to cancel a running job.
	CancelJob(ctx context.Context, jobID string) error

	// TravelModes lists the travel modes the routing service supports.
	TravelModes(ctx context.Context) ([]domain.TravelMode, error)
}

// EventPublisher publishes job events to a message broker.
type EventPublisher interface {
	PublishJobQueued(ctx context.Context, job *domain.SolveJob) error
	PublishJobEvent(ctx context.Context, event *domain.JobEvent) error
}

// EventSubscriber subscribes to job events from a message broker.
type EventSubscriber interface {
	SubscribeQueuedJobs(ctx context.Context, handler func(ctx context.Context, job *domain.SolveJob) error) error
	SubscribeJobEvents(ctx context.Context, handler func(ctx context.Context, event *domain.JobEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
