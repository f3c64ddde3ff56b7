package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/usecases"
)

// --- Mock DemandPointRepository ---

type mockDemandRepo struct {
	getByIDsFn func(ctx context.Context, ids []string) ([]domain.DemandPoint, error)
}

func (m *mockDemandRepo) Create(ctx context.Context, point *domain.DemandPoint) error { return nil }
func (m *mockDemandRepo) UpsertBatch(ctx context.Context, points []domain.DemandPoint) error {
	return nil
}

func (m *mockDemandRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.DemandPoint, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockDemandRepo) ListByGroup(ctx context.Context, group string, limit, offset int) ([]domain.DemandPoint, error) {
	return nil, nil
}

func (m *mockDemandRepo) CountByGroup(ctx context.Context, group string) (int, error) {
	return 0, nil
}

func (m *mockDemandRepo) Delete(ctx context.Context, id string) error { return nil }

// --- Mock SolveJobRepository ---

type mockJobRepo struct {
	created  []*domain.SolveJob
	statuses []string
}

func (m *mockJobRepo) Create(ctx context.Context, job *domain.SolveJob) error {
	job.ID = fmt.Sprintf("job-%d", len(m.created)+1)
	m.created = append(m.created, job)
	return nil
}

func (m *mockJobRepo) GetByID(ctx context.Context, id string) (*domain.SolveJob, error) {
	for _, j := range m.created {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockJobRepo) UpdateStatus(ctx context.Context, id string, status, remoteJobID, errMsg string) error {
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *mockJobRepo) SetAnalysis(ctx context.Context, id, analysisID string) error { return nil }

func (m *mockJobRepo) ListActive(ctx context.Context, limit int) ([]domain.SolveJob, error) {
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	queued   []*domain.SolveJob
	events   []*domain.JobEvent
	queueErr error
}

func (m *mockPublisher) PublishJobQueued(ctx context.Context, job *domain.SolveJob) error {
	if m.queueErr != nil {
		return m.queueErr
	}
	m.queued = append(m.queued, job)
	return nil
}

func (m *mockPublisher) PublishJobEvent(ctx context.Context, event *domain.JobEvent) error {
	m.events = append(m.events, event)
	return nil
}

// --- Tests ---

func allocationParams() domain.AllocationParams {
	return domain.AllocationParams{
		ProblemType:    domain.ProblemMaximizeCoverage,
		FacilityPoints: []domain.GeoPoint{{Lat: 34.05, Lon: -117.18}, {Lat: 34.06, Lon: -117.19}},
		DemandPoints:   []domain.GeoPoint{{Lat: 34.07, Lon: -117.2}},
	}
}

func newAllocationService(solver *mockSolver, jobs *mockJobRepo, pub *mockPublisher, syncLimit int) *usecases.AllocationService {
	return usecases.NewAllocationService(
		solver, &mockFacilityRepo{}, &mockDemandRepo{}, &mockAnalysisRepo{},
		jobs, pub, syncLimit, 1, 1)
}

func TestAllocationService_Solve_Inline(t *testing.T) {
	solver := &mockSolver{
		fetchFn: func(ctx context.Context, jobID string) (*domain.AllocationResult, error) {
			return &domain.AllocationResult{
				SolveSucceeded: true,
				Facilities: domain.FeatureSet{
					GeometryType: domain.GeometryPoint,
					Features: []domain.Feature{
						{Attributes: map[string]any{domain.AttrFacilityType: float64(domain.FacilityChosen)}},
					},
				},
			}, nil
		},
	}
	svc := newAllocationService(solver, &mockJobRepo{}, &mockPublisher{}, 50)

	outcome, err := svc.Solve(context.Background(), allocationParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Job != nil {
		t.Error("small problem should not be queued")
	}
	if outcome.Analysis == nil || outcome.Analysis.Kind != domain.AnalysisAllocation {
		t.Fatalf("unexpected analysis %+v", outcome.Analysis)
	}
}

func TestAllocationService_Solve_QueuesLargeProblem(t *testing.T) {
	jobs := &mockJobRepo{}
	pub := &mockPublisher{}
	svc := newAllocationService(&mockSolver{}, jobs, pub, 2) // 3 candidates > limit 2

	outcome, err := svc.Solve(context.Background(), allocationParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Analysis != nil {
		t.Error("large problem should not solve inline")
	}
	if outcome.Job == nil || outcome.Job.Status != domain.JobQueued {
		t.Fatalf("unexpected job %+v", outcome.Job)
	}
	if len(pub.queued) != 1 {
		t.Errorf("expected 1 queued publication, got %d", len(pub.queued))
	}
	if len(jobs.created) != 1 {
		t.Errorf("expected 1 persisted job, got %d", len(jobs.created))
	}
}

func TestAllocationService_Queue_PublishFailure(t *testing.T) {
	jobs := &mockJobRepo{}
	pub := &mockPublisher{queueErr: fmt.Errorf("nats down")}
	svc := newAllocationService(&mockSolver{}, jobs, pub, 2)

	_, err := svc.Solve(context.Background(), allocationParams())
	if err == nil {
		t.Fatal("expected error when publish fails")
	}
	var intErr *usecases.InternalError
	if !errors.As(err, &intErr) {
		t.Fatalf("expected InternalError, got %T: %v", err, err)
	}
	// The persisted row must not stay queued when no worker will ever
	// receive the message.
	found := false
	for _, status := range jobs.statuses {
		if status == string(domain.JobFailed) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected job marked failed, got transitions %v", jobs.statuses)
	}
}

func TestAllocationService_ExecuteJob(t *testing.T) {
	polls := 0
	solver := &mockSolver{
		jobStatusFn: func(ctx context.Context, jobID string) (string, []string, error) {
			polls++
			if polls < 2 {
				return domain.JobRunning, nil, nil
			}
			return domain.JobSucceeded, []string{"Solve finished."}, nil
		},
	}
	jobs := &mockJobRepo{}
	pub := &mockPublisher{}
	svc := newAllocationService(solver, jobs, pub, 2)

	job, err := svc.Queue(context.Background(), allocationParams())
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}

	if err := svc.ExecuteJob(context.Background(), job); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if job.Status != domain.JobSucceeded {
		t.Errorf("expected succeeded, got %s", job.Status)
	}
	if job.AnalysisID == "" {
		t.Error("job should link its analysis")
	}

	// submitted -> running -> succeeded
	want := []string{domain.JobSubmitted, domain.JobRunning, domain.JobSucceeded}
	if len(jobs.statuses) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), jobs.statuses)
	}
	for i, status := range want {
		if jobs.statuses[i] != status {
			t.Errorf("transition %d: expected %s, got %s", i, status, jobs.statuses[i])
		}
	}
	if len(pub.events) != len(want) {
		t.Errorf("expected %d job events, got %d", len(want), len(pub.events))
	}
}

func TestAllocationService_ExecuteJob_RemoteFailure(t *testing.T) {
	solver := &mockSolver{
		jobStatusFn: func(ctx context.Context, jobID string) (string, []string, error) {
			return domain.JobFailed, []string{"Invalid travel mode."}, nil
		},
	}
	jobs := &mockJobRepo{}
	svc := newAllocationService(solver, jobs, &mockPublisher{}, 2)

	job, err := svc.Queue(context.Background(), allocationParams())
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}

	if err := svc.ExecuteJob(context.Background(), job); err == nil {
		t.Fatal("expected execution error")
	}
	if job.Status != domain.JobFailed {
		t.Errorf("expected failed, got %s", job.Status)
	}
	if job.Error == "" {
		t.Error("expected solver message on the job")
	}
}

func TestAllocationService_Solve_TargetShareValidation(t *testing.T) {
	svc := newAllocationService(&mockSolver{}, &mockJobRepo{}, &mockPublisher{}, 50)

	params := allocationParams()
	params.ProblemType = domain.ProblemTargetMarketShare
	if _, err := svc.Solve(context.Background(), params); err == nil {
		t.Error("expected missing target share to fail validation")
	}
}
