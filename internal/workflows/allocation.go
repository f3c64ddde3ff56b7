package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// AllocationInput is the input for the allocation workflow.
type AllocationInput struct {
	JobID  string
	Params domain.AllocationParams
}

// JobCheck is what the CheckJob activity reports back.
type JobCheck struct {
	Status  string
	Message string
}

// AllocationWorkflow orchestrates an asynchronous location-allocation
// solve: submit the job, poll until it reaches a terminal state, fetch
// and persist the result. If persisting fails after the remote job was
// submitted, the remote job is cancelled (saga compensation).
func AllocationWorkflow(ctx workflow.Context, input AllocationInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting allocation workflow", "jobID", input.JobID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: submit the job to the remote service
	var remoteID string
	err := workflow.ExecuteActivity(ctx, "SubmitJob", input.JobID, input.Params).Get(ctx, &remoteID)
	if err != nil {
		_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, domain.JobFailed, err.Error()).Get(ctx, nil)
		return err
	}
	_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, domain.JobSubmitted, "").Get(ctx, nil)

	// Step 2: poll until the remote job finishes
	var check JobCheck
	running := false
	deadline := workflow.Now(ctx).Add(30 * time.Minute)
	for {
		err = workflow.ExecuteActivity(ctx, "CheckJob", remoteID).Get(ctx, &check)
		if err != nil {
			_ = workflow.ExecuteActivity(ctx, "CancelRemoteJob", remoteID).Get(ctx, nil)
			_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, domain.JobFailed, err.Error()).Get(ctx, nil)
			return err
		}

		if check.Status == domain.JobSucceeded || check.Status == domain.JobFailed || check.Status == domain.JobCancelled {
			break
		}
		if check.Status == domain.JobRunning && !running {
			running = true
			_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, domain.JobRunning, "").Get(ctx, nil)
		}

		if workflow.Now(ctx).After(deadline) {
			_ = workflow.ExecuteActivity(ctx, "CancelRemoteJob", remoteID).Get(ctx, nil)
			_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, domain.JobFailed, "remote job timed out").Get(ctx, nil)
			return temporal.NewApplicationError("remote job timed out", "SolveTimeout")
		}
		if err := workflow.Sleep(ctx, 5*time.Second); err != nil {
			return err
		}
	}

	if check.Status != domain.JobSucceeded {
		logger.Warn("remote solve did not succeed", "status", check.Status, "message", check.Message)
		_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, check.Status, check.Message).Get(ctx, nil)
		return temporal.NewApplicationError("remote solve "+check.Status, "SolveFailed")
	}

	// Step 3: fetch and persist the result
	var analysisID string
	err = workflow.ExecuteActivity(ctx, "PersistResult", input.JobID, remoteID, input.Params).Get(ctx, &analysisID)
	if err != nil {
		logger.Warn("persisting result failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "CancelRemoteJob", remoteID).Get(ctx, nil)
		_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, domain.JobFailed, err.Error()).Get(ctx, nil)
		return err
	}

	_ = workflow.ExecuteActivity(ctx, "MarkJob", input.JobID, domain.JobSucceeded, "").Get(ctx, nil)
	logger.Info("Allocation solved", "jobID", input.JobID, "analysisID", analysisID)
	return nil
}
