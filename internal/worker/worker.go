// Package worker consumes job tasks from the queue and drives them through
// the orchestrator, applying the retry policy when infrastructure fails.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"repurposer/internal/domain"
	"repurposer/internal/infra"
	"repurposer/internal/queue"
)

// Processor drives one job to a terminal state. A returned error is an
// infrastructure failure eligible for redelivery.
type Processor interface {
	Process(ctx context.Context, jobID string) error
}

// Policy bounds task redelivery.
type Policy struct {
	// MaxAttempts is the delivery ceiling; reaching it marks the job failed.
	MaxAttempts int
	// RetryBase seeds the exponential backoff between redeliveries.
	RetryBase time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
}

// DefaultPolicy mirrors the historical three-attempt schedule.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, RetryBase: 30 * time.Second, MaxDelay: 15 * time.Minute}
}

// Backoff returns the delay before redelivering attempt n (1-based): base
// doubled per attempt, capped, with jitter to spread thundering retries.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.RetryBase << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(d) * jitter)
}

// Worker runs a pool of queue consumers. Jobs are processed concurrently
// across the pool; per-job exclusivity comes from the status claim in the
// record store, not from the queue.
type Worker struct {
	tasks       queue.TaskQueue
	jobs        domain.JobRepository
	proc        Processor
	policy      Policy
	statusCache domain.StatusCache
	log         infra.Logger
	concurrency int
}

// Option tweaks worker construction.
type Option func(*Worker)

// WithStatusCache attaches a best-effort status cache so terminal
// transitions made here stay visible to status reads.
func WithStatusCache(cache domain.StatusCache) Option {
	return func(w *Worker) { w.statusCache = cache }
}

func New(tasks queue.TaskQueue, jobs domain.JobRepository, proc Processor, policy Policy, concurrency int, baseLog infra.Logger, opts ...Option) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if policy.MaxAttempts < 1 {
		policy = DefaultPolicy()
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = DefaultPolicy().MaxDelay
	}
	w := &Worker{
		tasks:       tasks,
		jobs:        jobs,
		proc:        proc,
		policy:      policy,
		log:         baseLog.With().Str("component", "worker").Logger(),
		concurrency: concurrency,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// reapInterval paces the recovery of tasks stranded in-flight by a crashed
// or interrupted consumer.
const reapInterval = time.Minute

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("concurrency", w.concurrency).Msg("worker started")
	w.reapStale(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.reapStale(ctx)
			}
		}
	}()
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	wg.Wait()
	w.log.Info().Msg("worker stopped")
	return ctx.Err()
}

func (w *Worker) reapStale(ctx context.Context) {
	n, err := w.tasks.ReapStale(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.log.Error().Err(err).Msg("reap stale tasks failed")
		}
		return
	}
	if n > 0 {
		w.log.Warn().Int("reaped", n).Msg("requeued stale in-flight tasks")
	}
}

func (w *Worker) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := w.tasks.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || errors.Is(err, context.Canceled) {
				continue
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}

		w.Handle(ctx, jobID)
	}
}

// Handle processes one delivered task. Processing errors are retried with
// exponential backoff up to the attempt ceiling; beyond it the job is marked
// failed with an infrastructure error and the task is acknowledged so it is
// never redelivered again.
func (w *Worker) Handle(ctx context.Context, jobID string) {
	log := w.log.With().Str("job_id", jobID).Logger()
	log.Info().Msg("picked job")

	procErr := w.proc.Process(ctx, jobID)
	if procErr == nil {
		w.ack(ctx, jobID)
		return
	}
	log.Error().Err(procErr).Msg("job processing failed")

	attempts, err := w.jobs.IncrementAttempts(ctx, jobID)
	if err != nil {
		// Can't even count the attempt; redeliver with the base delay and
		// let a later delivery settle the ledger.
		log.Error().Err(err).Msg("increment attempts failed")
		w.redeliver(ctx, jobID, w.policy.RetryBase)
		return
	}

	if attempts >= w.policy.MaxAttempts {
		msg := fmt.Sprintf("infrastructure error: giving up after %d attempts: %v", attempts, procErr)
		if err := w.jobs.MarkFailed(ctx, jobID, msg); err != nil {
			log.Error().Err(err).Msg("mark failed after retry ceiling failed")
			w.redeliver(ctx, jobID, w.policy.RetryBase)
			return
		}
		w.cacheStatus(ctx, jobID, domain.JobStatusFailed)
		log.Warn().Int("attempts", attempts).Msg("retry ceiling reached, job marked failed")
		w.ack(ctx, jobID)
		return
	}

	delay := w.policy.Backoff(attempts)
	log.Warn().Int("attempt", attempts).Dur("retry_in", delay).Msg("scheduling redelivery")
	w.redeliver(ctx, jobID, delay)
}

func (w *Worker) redeliver(ctx context.Context, jobID string, delay time.Duration) {
	if err := w.tasks.EnqueueAfter(ctx, jobID, delay); err != nil {
		// Leave the task in-flight; the queue's at-least-once guarantee
		// brings it back.
		w.log.Error().Err(err).Str("job_id", jobID).Msg("redelivery enqueue failed")
		return
	}
	w.ack(ctx, jobID)
}

func (w *Worker) cacheStatus(ctx context.Context, jobID string, status domain.JobStatus) {
	if w.statusCache == nil {
		return
	}
	if err := w.statusCache.SetStatus(ctx, jobID, status); err != nil {
		w.log.Warn().Err(err).Str("job_id", jobID).Msg("status cache update failed")
	}
}

func (w *Worker) ack(ctx context.Context, jobID string) {
	if err := w.tasks.Ack(ctx, jobID); err != nil {
		w.log.Warn().Err(err).Str("job_id", jobID).Msg("ack failed")
	}
}
