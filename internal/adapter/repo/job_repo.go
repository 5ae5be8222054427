package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repurposer/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record in the pending state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	optionsJSON, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	query := `
INSERT INTO jobs (id, title, original_content, content_types, options, status)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err = r.pool.Exec(ctx, query,
		job.ID,
		job.Title,
		job.OriginalContent,
		contentTypeStrings(job.ContentTypes),
		optionsJSON,
		job.Status,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, title, original_content, content_types, options, status, error_message, attempts,
       created_at, updated_at, completed_at
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var (
		job         domain.Job
		types       []string
		optionsJSON []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.Title,
		&job.OriginalContent,
		&types,
		&optionsJSON,
		&job.Status,
		&job.ErrorMessage,
		&job.Attempts,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	for _, t := range types {
		job.ContentTypes = append(job.ContentTypes, domain.ContentType(t))
	}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &job.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	return &job, nil
}

// ClaimProcessing conditionally moves a non-terminal job into processing. The
// status predicate is evaluated inside the UPDATE, so concurrent claims never
// regress a terminal job.
func (r *JobRepositoryPG) ClaimProcessing(ctx context.Context, jobID string) (bool, error) {
	query := `
UPDATE jobs
SET status = 'processing', updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'processing');
`
	tag, err := r.pool.Exec(ctx, query, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompleted finalizes a processing job as completed.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, jobID string) error {
	query := `
UPDATE jobs
SET status = 'completed', error_message = '', completed_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status = 'processing';
`
	_, err := r.pool.Exec(ctx, query, jobID)
	return err
}

// MarkFailed finalizes a job as failed with a human-readable reason.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	query := `
UPDATE jobs
SET status = 'failed', error_message = $2, completed_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'processing');
`
	_, err := r.pool.Exec(ctx, query, jobID, errMsg)
	return err
}

// IncrementAttempts bumps the delivery counter and returns the new value.
func (r *JobRepositoryPG) IncrementAttempts(ctx context.Context, jobID string) (int, error) {
	query := `
UPDATE jobs
SET attempts = attempts + 1, updated_at = NOW()
WHERE id = $1
RETURNING attempts;
`
	var attempts int
	if err := r.pool.QueryRow(ctx, query, jobID).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return attempts, nil
}

func contentTypeStrings(types []domain.ContentType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
