package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/ports"
	"github.com/ryanwparks/georeach/internal/pkg/metrics"
)

// AllocationService runs location-allocation solves. Small problems are
// solved inline; anything above the sync facility limit is queued as a
// solve job and executed by a worker.
type AllocationService struct {
	solver     ports.NetworkSolver
	facilities ports.FacilityRepository
	demand     ports.DemandPointRepository
	analyses   ports.AnalysisRepository
	jobs       ports.SolveJobRepository
	publisher  ports.EventPublisher

	syncLimit    int
	pollInterval time.Duration
	jobTimeout   time.Duration
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(
	solver ports.NetworkSolver,
	facilities ports.FacilityRepository,
	demand ports.DemandPointRepository,
	analyses ports.AnalysisRepository,
	jobs ports.SolveJobRepository,
	publisher ports.EventPublisher,
	syncLimit int,
	pollIntervalSeconds int,
	jobTimeoutMinutes int,
) *AllocationService {
	if syncLimit <= 0 {
		syncLimit = 50
	}
	if pollIntervalSeconds <= 0 {
		pollIntervalSeconds = 2
	}
	if jobTimeoutMinutes <= 0 {
		jobTimeoutMinutes = 30
	}
	return &AllocationService{
		solver:       solver,
		facilities:   facilities,
		demand:       demand,
		analyses:     analyses,
		jobs:         jobs,
		publisher:    publisher,
		syncLimit:    syncLimit,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		jobTimeout:   time.Duration(jobTimeoutMinutes) * time.Minute,
	}
}

// SolveOutcome is what an allocation request returns: either a finished
// analysis (small problems, solved inline) or a queued job to poll.
type SolveOutcome struct {
	Analysis *domain.Analysis `json:"analysis,omitempty"`
	Job      *domain.SolveJob `json:"job,omitempty"`
}

// Solve validates the parameters and either solves inline or queues a
// job, depending on problem size.
func (s *AllocationService) Solve(ctx context.Context, params domain.AllocationParams) (*SolveOutcome, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	size := len(params.FacilityIDs) + len(params.FacilityPoints) +
		len(params.DemandPointIDs) + len(params.DemandPoints)
	if size <= s.syncLimit {
		analysis, err := s.solveInline(ctx, params)
		if err != nil {
			return nil, err
		}
		return &SolveOutcome{Analysis: analysis}, nil
	}

	job, err := s.Queue(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SolveOutcome{Job: job}, nil
}

// Queue creates a solve job and publishes it for a worker to pick up.
func (s *AllocationService) Queue(ctx context.Context, params domain.AllocationParams) (*domain.SolveJob, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	job := &domain.SolveJob{
		Kind:   domain.AnalysisAllocation,
		Status: domain.JobQueued,
		Params: toMap(params),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, internalErr(fmt.Errorf("create job: %w", err))
	}
	if err := s.publisher.PublishJobQueued(ctx, job); err != nil {
		// No worker will ever see the row; mark it failed so it does
		// not sit in queued forever.
		reason := fmt.Errorf("publish job: %w", err)
		if markErr := s.jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, "", reason.Error()); markErr != nil {
			reason = fmt.Errorf("%w (job %s left queued: %v)", reason, job.ID, markErr)
		}
		return nil, internalErr(reason)
	}
	return job, nil
}

// ExecuteJob drives a queued job through the remote lifecycle: submit,
// poll until terminal, fetch and persist the result, and publish status
// transitions. It is called by the solve worker.
func (s *AllocationService) ExecuteJob(ctx context.Context, job *domain.SolveJob) error {
	var params domain.AllocationParams
	if err := fromMap(job.Params, &params); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("decode params: %w", err))
	}
	if err := params.Validate(); err != nil {
		return s.failJob(ctx, job, err)
	}

	facilitySet, demandSet, err := s.AssembleInputs(ctx, params)
	if err != nil {
		return s.failJob(ctx, job, err)
	}

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	remoteID, err := s.solver.SubmitAllocationJob(ctx, facilitySet, demandSet, params)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("submit: %w", err))
	}
	job.RemoteJobID = remoteID
	s.transition(ctx, job, domain.JobSubmitted, "")

	status, messages, err := s.poll(ctx, job)
	if err != nil {
		// The remote job may still be running; ask the platform to stop it.
		_ = s.solver.CancelJob(ctx, remoteID)
		return s.failJob(ctx, job, err)
	}

	switch status {
	case domain.JobSucceeded:
	case domain.JobCancelled:
		s.transition(ctx, job, domain.JobCancelled, "")
		return nil
	default:
		msg := "remote solve failed"
		if len(messages) > 0 {
			msg = messages[len(messages)-1]
		}
		return s.failJob(ctx, job, fmt.Errorf("%s", msg))
	}

	result, err := s.solver.FetchAllocationResult(ctx, job.RemoteJobID)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("fetch result: %w", err))
	}

	analysis := &domain.Analysis{
		Name:   params.Name,
		Kind:   domain.AnalysisAllocation,
		Params: toMap(params),
		Result: toMap(result),
	}
	if err := s.analyses.Create(ctx, analysis); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("persist analysis: %w", err))
	}
	if err := s.jobs.SetAnalysis(ctx, job.ID, analysis.ID); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("link analysis: %w", err))
	}
	job.AnalysisID = analysis.ID

	metrics.SolvesTotal.WithLabelValues(domain.AnalysisAllocation, "ok").Inc()
	s.transition(ctx, job, domain.JobSucceeded, "")
	return nil
}

// solveInline submits and polls within the request, for problems small
// enough to finish quickly.
func (s *AllocationService) solveInline(ctx context.Context, params domain.AllocationParams) (*domain.Analysis, error) {
	facilitySet, demandSet, err := s.AssembleInputs(ctx, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	remoteID, err := s.solver.SubmitAllocationJob(ctx, facilitySet, demandSet, params)
	if err != nil {
		metrics.SolvesTotal.WithLabelValues(domain.AnalysisAllocation, "error").Inc()
		return nil, fmt.Errorf("submit: %w", err)
	}

	job := &domain.SolveJob{RemoteJobID: remoteID}
	status, messages, err := s.poll(ctx, job)
	if err != nil {
		_ = s.solver.CancelJob(ctx, remoteID)
		metrics.SolvesTotal.WithLabelValues(domain.AnalysisAllocation, "error").Inc()
		return nil, err
	}
	if status != domain.JobSucceeded {
		metrics.SolvesTotal.WithLabelValues(domain.AnalysisAllocation, "error").Inc()
		if len(messages) > 0 {
			return nil, fmt.Errorf("remote solve %s: %s", status, messages[len(messages)-1])
		}
		return nil, fmt.Errorf("remote solve %s", status)
	}

	result, err := s.solver.FetchAllocationResult(ctx, remoteID)
	if err != nil {
		metrics.SolvesTotal.WithLabelValues(domain.AnalysisAllocation, "error").Inc()
		return nil, fmt.Errorf("fetch result: %w", err)
	}
	metrics.SolveDuration.WithLabelValues(domain.AnalysisAllocation).Observe(time.Since(start).Seconds())
	metrics.SolvesTotal.WithLabelValues(domain.AnalysisAllocation, "ok").Inc()

	analysis := &domain.Analysis{
		Name:   params.Name,
		Kind:   domain.AnalysisAllocation,
		Params: toMap(params),
		Result: toMap(result),
	}
	if err := s.analyses.Create(ctx, analysis); err != nil {
		return nil, internalErr(fmt.Errorf("persist analysis: %w", err))
	}
	return analysis, nil
}

// poll watches a remote job until it reaches a terminal state or the job
// timeout elapses.
func (s *AllocationService) poll(ctx context.Context, job *domain.SolveJob) (string, []string, error) {
	deadline := time.Now().Add(s.jobTimeout)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		status, messages, err := s.solver.JobStatus(ctx, job.RemoteJobID)
		if err != nil {
			return "", nil, fmt.Errorf("job status: %w", err)
		}
		switch status {
		case domain.JobSucceeded, domain.JobFailed, domain.JobCancelled:
			return status, messages, nil
		case domain.JobRunning:
			if job.ID != "" && job.Status != domain.JobRunning {
				s.transition(ctx, job, domain.JobRunning, "")
			}
		}

		if time.Now().After(deadline) {
			return "", nil, fmt.Errorf("remote job %s did not finish within %s", job.RemoteJobID, s.jobTimeout)
		}
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// AssembleInputs builds the facility and demand feature sets that go to
// the solver, resolving stored IDs and literal points.
func (s *AllocationService) AssembleInputs(ctx context.Context, params domain.AllocationParams) (domain.FeatureSet, domain.FeatureSet, error) {
	facilitySet, err := assembleFacilitySet(ctx, s.facilities, params.FacilityIDs, params.FacilityPoints)
	if err != nil {
		return domain.FeatureSet{}, domain.FeatureSet{}, err
	}
	demandSet, err := assembleDemandSet(ctx, s.demand, params.DemandPointIDs, params.DemandPoints)
	if err != nil {
		return domain.FeatureSet{}, domain.FeatureSet{}, err
	}
	return facilitySet, demandSet, nil
}

// transition updates the job row and publishes the status change. Both
// are best-effort for intermediate states; the final state is what the
// caller checks.
func (s *AllocationService) transition(ctx context.Context, job *domain.SolveJob, status, errMsg string) {
	job.Status = status
	job.Error = errMsg
	if job.ID == "" {
		return
	}
	_ = s.jobs.UpdateStatus(ctx, job.ID, status, job.RemoteJobID, errMsg)
	if s.publisher != nil {
		_ = s.publisher.PublishJobEvent(ctx, &domain.JobEvent{
			JobID:      job.ID,
			Kind:       job.Kind,
			Status:     status,
			AnalysisID: job.AnalysisID,
			Error:      errMsg,
			Time:       time.Now(),
		})
	}
}

func (s *AllocationService) failJob(ctx context.Context, job *domain.SolveJob, cause error) error {
	metrics.SolvesTotal.WithLabelValues(domain.AnalysisAllocation, "error").Inc()
	s.transition(ctx, job, domain.JobFailed, cause.Error())
	return cause
}

// assembleDemandSet builds the demand feature set from stored demand
// points and literal points. Literal points carry unit weight.
func assembleDemandSet(ctx context.Context, repo ports.DemandPointRepository, ids []string, points []domain.GeoPoint) (domain.FeatureSet, error) {
	features := make([]domain.Feature, 0, len(ids)+len(points))

	if len(ids) > 0 {
		stored, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return domain.FeatureSet{}, fmt.Errorf("load demand points: %w", err)
		}
		if len(stored) != len(ids) {
			return domain.FeatureSet{}, fmt.Errorf("unknown demand point ids: requested %d, found %d", len(ids), len(stored))
		}
		for _, p := range stored {
			features = append(features, domain.PointFeature(p.Location.Lon, p.Location.Lat, map[string]any{
				domain.AttrName:   p.Name,
				domain.AttrWeight: p.Weight,
			}))
		}
	}

	for i, p := range points {
		if !p.Valid() {
			return domain.FeatureSet{}, fmt.Errorf("demand point %d: coordinates out of range", i)
		}
		features = append(features, domain.PointFeature(p.Lon, p.Lat, map[string]any{
			domain.AttrWeight: 1.0,
		}))
	}

	return domain.PointSet(features)
}
