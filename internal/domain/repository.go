package domain

import "context"

// JobRepository is the system of record for jobs. All methods must be safe to
// call from concurrent workers.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// ClaimProcessing conditionally moves a non-terminal job into the
	// processing state. It returns false when the job is already terminal,
	// making duplicate task deliveries a no-op.
	ClaimProcessing(ctx context.Context, jobID string) (bool, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, errMsg string) error
	// IncrementAttempts bumps the delivery attempt counter and returns the
	// new value.
	IncrementAttempts(ctx context.Context, jobID string) (int, error)
}

// OutputRepository persists generated artifacts. Appends are insert-only;
// outputs are never updated in place.
type OutputRepository interface {
	Append(ctx context.Context, output *Output) error
	ListByJob(ctx context.Context, jobID string) ([]Output, error)
}

// StatusCache is a best-effort read cache for job status lookups. Failures
// are advisory and must never affect job processing.
type StatusCache interface {
	SetStatus(ctx context.Context, jobID string, status JobStatus) error
	GetStatus(ctx context.Context, jobID string) (JobStatus, error)
}
