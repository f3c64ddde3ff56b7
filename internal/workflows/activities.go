package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/ports"
	"github.com/ryanwparks/georeach/internal/core/usecases"
)

// AllocationActivities holds the activity implementations for the
// allocation workflow.
type AllocationActivities struct {
	Allocations *usecases.AllocationService
	Solver      ports.NetworkSolver
	Analyses    ports.AnalysisRepository
	Jobs        ports.SolveJobRepository
	Publisher   ports.EventPublisher
}

// SubmitJob assembles the input feature sets and submits the allocation
// job to the remote service, returning the remote job ID.
func (a *AllocationActivities) SubmitJob(ctx context.Context, jobID string, params domain.AllocationParams) (string, error) {
	facilitySet, demandSet, err := a.Allocations.AssembleInputs(ctx, params)
	if err != nil {
		return "", fmt.Errorf("assemble inputs: %w", err)
	}

	remoteID, err := a.Solver.SubmitAllocationJob(ctx, facilitySet, demandSet, params)
	if err != nil {
		return "", fmt.Errorf("submit allocation job: %w", err)
	}
	if err := a.Jobs.UpdateStatus(ctx, jobID, domain.JobSubmitted, remoteID, ""); err != nil {
		return "", fmt.Errorf("record remote job id: %w", err)
	}
	return remoteID, nil
}

// CheckJob reports the remote status of a submitted job along with the
// last solver message, if any.
func (a *AllocationActivities) CheckJob(ctx context.Context, remoteID string) (JobCheck, error) {
	status, messages, err := a.Solver.JobStatus(ctx, remoteID)
	if err != nil {
		return JobCheck{}, fmt.Errorf("job status: %w", err)
	}
	check := JobCheck{Status: status}
	if len(messages) > 0 {
		check.Message = messages[len(messages)-1]
	}
	return check, nil
}

// PersistResult fetches the output of a succeeded job and stores it as
// an analysis, returning the analysis ID.
func (a *AllocationActivities) PersistResult(ctx context.Context, jobID, remoteID string, params domain.AllocationParams) (string, error) {
	result, err := a.Solver.FetchAllocationResult(ctx, remoteID)
	if err != nil {
		return "", fmt.Errorf("fetch result: %w", err)
	}

	analysis := &domain.Analysis{
		Name:   params.Name,
		Kind:   domain.AnalysisAllocation,
		Params: asMap(params),
		Result: asMap(result),
	}
	if err := a.Analyses.Create(ctx, analysis); err != nil {
		return "", fmt.Errorf("persist analysis: %w", err)
	}
	if err := a.Jobs.SetAnalysis(ctx, jobID, analysis.ID); err != nil {
		return "", fmt.Errorf("link analysis to job: %w", err)
	}
	return analysis.ID, nil
}

// MarkJob records a job status transition and publishes the matching
// event for any connected clients.
func (a *AllocationActivities) MarkJob(ctx context.Context, jobID, status, errMsg string) error {
	if err := a.Jobs.UpdateStatus(ctx, jobID, status, "", errMsg); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	event := &domain.JobEvent{
		JobID:  jobID,
		Kind:   domain.AnalysisAllocation,
		Status: status,
		Error:  errMsg,
		Time:   time.Now().UTC(),
	}
	if err := a.Publisher.PublishJobEvent(ctx, event); err != nil {
		log.Printf("publish job event %s: %v", jobID, err)
	}
	return nil
}

// CancelRemoteJob asks the remote service to cancel a job (saga
// compensation when a later step fails).
func (a *AllocationActivities) CancelRemoteJob(ctx context.Context, remoteID string) error {
	if remoteID == "" {
		return nil
	}
	if err := a.Solver.CancelJob(ctx, remoteID); err != nil {
		return fmt.Errorf("cancel remote job %s: %w", remoteID, err)
	}
	log.Printf("Remote job %s cancelled (saga compensation)", remoteID)
	return nil
}

// asMap round-trips a typed value through JSON into a generic map for
// JSONB persistence.
func asMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
