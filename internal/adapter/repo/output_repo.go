package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"repurposer/internal/domain"
)

// OutputRepositoryPG implements domain.OutputRepository.
type OutputRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewOutputRepository creates a new output repository backed by PostgreSQL.
func NewOutputRepository(pool *pgxpool.Pool) *OutputRepositoryPG {
	return &OutputRepositoryPG{pool: pool}
}

// Append inserts one generated artifact. The (job_id, content_type) unique
// index makes concurrent duplicate appends a conflict no-op, keeping at most
// one output per requested content type.
func (r *OutputRepositoryPG) Append(ctx context.Context, output *domain.Output) error {
	query := `
INSERT INTO content_outputs (id, job_id, content_type, content, file_path)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (job_id, content_type) DO NOTHING;
`
	_, err := r.pool.Exec(ctx, query,
		output.ID,
		output.JobID,
		output.ContentType,
		output.Content,
		output.FilePath,
	)
	return err
}

// ListByJob returns all artifacts produced for a job.
func (r *OutputRepositoryPG) ListByJob(ctx context.Context, jobID string) ([]domain.Output, error) {
	query := `
SELECT id, job_id, content_type, content, file_path, created_at, updated_at
FROM content_outputs
WHERE job_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outputs []domain.Output
	for rows.Next() {
		var out domain.Output
		if err := rows.Scan(
			&out.ID,
			&out.JobID,
			&out.ContentType,
			&out.Content,
			&out.FilePath,
			&out.CreatedAt,
			&out.UpdatedAt,
		); err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, rows.Err()
}

var _ domain.OutputRepository = (*OutputRepositoryPG)(nil)
