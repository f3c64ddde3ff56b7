package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ryanwparks/georeach/internal/core/domain"
)

// JobRepo implements ports.SolveJobRepository with pgx.
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new JobRepo.
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// Create inserts a job and fills its generated id and timestamp.
func (r *JobRepo) Create(ctx context.Context, j *domain.SolveJob) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO solve_jobs (kind, status, params)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, j.Kind, j.Status, j.Params).Scan(&j.ID, &j.CreatedAt)
}

const jobColumns = `
	id, kind, status, COALESCE(remote_job_id, ''), COALESCE(analysis_id::text, ''),
	params, COALESCE(error, ''), created_at, started_at, finished_at`

func scanJob(row pgx.Row) (*domain.SolveJob, error) {
	var j domain.SolveJob
	err := row.Scan(
		&j.ID, &j.Kind, &j.Status, &j.RemoteJobID, &j.AnalysisID,
		&j.Params, &j.Error, &j.CreatedAt, &j.StartedAt, &j.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetByID returns a job by UUID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*domain.SolveJob, error) {
	return scanJob(r.db.Pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM solve_jobs WHERE id = $1`, id))
}

// UpdateStatus moves a job to a new status. started_at is stamped on the
// first submission, finished_at when the status is terminal. An empty
// remoteJobID keeps the stored one, so later transitions cannot erase
// the ID the remote cancel needs.
func (r *JobRepo) UpdateStatus(ctx context.Context, id string, status, remoteJobID, errMsg string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE solve_jobs
		SET status = $2,
		    remote_job_id = COALESCE(NULLIF($3, ''), remote_job_id),
		    error = NULLIF($4, ''),
		    started_at = CASE WHEN started_at IS NULL AND $2 <> 'queued' THEN now() ELSE started_at END,
		    finished_at = CASE WHEN $2 IN ('succeeded', 'failed', 'cancelled') THEN now() ELSE finished_at END
		WHERE id = $1
	`, id, status, remoteJobID, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// SetAnalysis links a finished job to the analysis holding its result.
func (r *JobRepo) SetAnalysis(ctx context.Context, id, analysisID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE solve_jobs SET analysis_id = $2 WHERE id = $1`, id, analysisID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// ListActive returns jobs that have not reached a terminal status,
// oldest first.
func (r *JobRepo) ListActive(ctx context.Context, limit int) ([]domain.SolveJob, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM solve_jobs
		WHERE status NOT IN ('succeeded', 'failed', 'cancelled')
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.SolveJob
	for rows.Next() {
		var j domain.SolveJob
		if err := rows.Scan(
			&j.ID, &j.Kind, &j.Status, &j.RemoteJobID, &j.AnalysisID,
			&j.Params, &j.Error, &j.CreatedAt, &j.StartedAt, &j.FinishedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
