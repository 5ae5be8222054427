// Package queue bridges job submission to the worker fleet. Messages carry
// the job identifier only; job state is always re-read from the record store.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrEmpty is returned by Dequeue when no task became available within the
// polling window.
var ErrEmpty = errors.New("queue: no task available")

// TaskQueue is an at-least-once delivery queue of job identifiers.
type TaskQueue interface {
	// Enqueue makes a job id deliverable immediately.
	Enqueue(ctx context.Context, jobID string) error
	// EnqueueAfter makes a job id deliverable once the delay elapses.
	EnqueueAfter(ctx context.Context, jobID string, delay time.Duration) error
	// Dequeue blocks briefly for the next deliverable job id. The task stays
	// tracked as in-flight until Ack.
	Dequeue(ctx context.Context) (string, error)
	// Ack marks an in-flight task as handled.
	Ack(ctx context.Context, jobID string) error
	// ReapStale moves in-flight tasks whose visibility deadline has passed
	// back to the pending list and reports how many were moved. A task goes
	// stale when its consumer crashed or shut down without acking.
	ReapStale(ctx context.Context) (int, error)
}
