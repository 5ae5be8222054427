// Package pipeline drives one repurposing job from pending to a terminal
// status: it fans the requested content types out to artifact generators,
// appends successful outputs, and applies the partial-failure completion rule.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"repurposer/internal/domain"
	"repurposer/internal/infra"
)

const defaultArtifactConcurrency = 4

// Orchestrator coordinates generators, the record store, and the status
// cache for a single job at a time. It is safe for concurrent use across
// jobs.
type Orchestrator struct {
	jobs        domain.JobRepository
	outputs     domain.OutputRepository
	registry    *Registry
	statusCache domain.StatusCache
	log         infra.Logger
	concurrency int
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithStatusCache attaches a best-effort status cache, updated on
// transitions.
func WithStatusCache(cache domain.StatusCache) Option {
	return func(o *Orchestrator) { o.statusCache = cache }
}

// WithConcurrency bounds how many artifacts of one job generate in parallel.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func NewOrchestrator(jobs domain.JobRepository, outputs domain.OutputRepository, registry *Registry, log infra.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		jobs:        jobs,
		outputs:     outputs,
		registry:    registry,
		log:         log.With().Str("component", "orchestrator").Logger(),
		concurrency: defaultArtifactConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// artifactFailure records one content type's failed attempt.
type artifactFailure struct {
	contentType domain.ContentType
	cause       error
}

// Process drives the job to a terminal status. A returned error means
// infrastructure failed mid-flight (record store unreachable, terminal
// transition lost) and the task should be retried by the dispatch loop.
// Per-artifact generation failures are recorded, logged, and swallowed.
func (o *Orchestrator) Process(ctx context.Context, jobID string) error {
	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Retrying cannot materialize a missing record.
			o.log.Error().Str("job_id", jobID).Msg("job not found, dropping task")
			return nil
		}
		return fmt.Errorf("load job: %w", err)
	}

	if job.Status.Terminal() {
		o.log.Debug().Str("job_id", jobID).Str("status", string(job.Status)).Msg("job already terminal, skipping")
		return nil
	}

	claimed, err := o.jobs.ClaimProcessing(ctx, jobID)
	if err != nil {
		return fmt.Errorf("claim job: %w", err)
	}
	if !claimed {
		// Lost the claim to a concurrent delivery that finished the job.
		o.log.Debug().Str("job_id", jobID).Msg("claim rejected, job reached terminal state")
		return nil
	}
	o.cacheStatus(ctx, jobID, domain.JobStatusProcessing)

	existing, err := o.outputs.ListByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("list outputs: %w", err)
	}
	done := make(map[domain.ContentType]bool, len(existing))
	for _, out := range existing {
		done[out.ContentType] = true
	}

	pending := missingTypes(job.ContentTypes, done)
	succeeded, failures := o.generateAll(ctx, job, pending)

	return o.finalize(ctx, jobID, len(existing)+succeeded, failures)
}

// generateAll attempts every pending content type concurrently and returns
// the success count plus the recorded failures. Failures never cancel
// sibling artifacts.
func (o *Orchestrator) generateAll(ctx context.Context, job *domain.Job, pending []domain.ContentType) (int, []artifactFailure) {
	var (
		mu        sync.Mutex
		succeeded int
		failures  []artifactFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	results := make([]*artifactFailure, len(pending))

	for i, ct := range pending {
		i, ct := i, ct
		g.Go(func() error {
			if err := o.generateOne(gctx, job, ct); err != nil {
				o.log.Error().Err(err).
					Str("job_id", job.ID).
					Str("content_type", string(ct)).
					Msg("artifact generation failed")
				results[i] = &artifactFailure{contentType: ct, cause: err}
				return nil
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
			o.log.Info().
				Str("job_id", job.ID).
				Str("content_type", string(ct)).
				Msg("artifact generated")
			return nil
		})
	}
	_ = g.Wait()

	// Preserve the requested order so aggregated error messages are stable.
	for _, f := range results {
		if f != nil {
			failures = append(failures, *f)
		}
	}
	return succeeded, failures
}

func (o *Orchestrator) generateOne(ctx context.Context, job *domain.Job, ct domain.ContentType) error {
	res, err := o.registry.ForType(ct).Generate(ctx, GenerationRequest{Job: job, ContentType: ct})
	if err != nil {
		return err
	}
	output := &domain.Output{
		ID:          uuid.NewString(),
		JobID:       job.ID,
		ContentType: ct,
		Content:     res.Content,
		FilePath:    res.FilePath,
	}
	// A failed append counts as the whole attempt failing; the outer task
	// retry re-generates the artifact.
	if err := o.outputs.Append(ctx, output); err != nil {
		return fmt.Errorf("persist output: %w", err)
	}
	return nil
}

// finalize applies the asymmetric completion rule: any output at all means
// the job completed; only a fully empty job fails, carrying every content
// type's reason.
func (o *Orchestrator) finalize(ctx context.Context, jobID string, totalOutputs int, failures []artifactFailure) error {
	if totalOutputs > 0 {
		if err := o.jobs.MarkCompleted(ctx, jobID); err != nil {
			return fmt.Errorf("mark completed: %w", err)
		}
		o.cacheStatus(ctx, jobID, domain.JobStatusCompleted)
		o.log.Info().Str("job_id", jobID).Int("outputs", totalOutputs).Int("failed_artifacts", len(failures)).Msg("job completed")
		return nil
	}

	msg := aggregateFailureMessage(failures)
	if err := o.jobs.MarkFailed(ctx, jobID, msg); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	o.cacheStatus(ctx, jobID, domain.JobStatusFailed)
	o.log.Warn().Str("job_id", jobID).Str("reason", msg).Msg("job failed, no artifacts produced")
	return nil
}

func (o *Orchestrator) cacheStatus(ctx context.Context, jobID string, status domain.JobStatus) {
	if o.statusCache == nil {
		return
	}
	if err := o.statusCache.SetStatus(ctx, jobID, status); err != nil {
		o.log.Warn().Err(err).Str("job_id", jobID).Msg("status cache update failed")
	}
}

func missingTypes(requested []domain.ContentType, done map[domain.ContentType]bool) []domain.ContentType {
	seen := make(map[domain.ContentType]bool, len(requested))
	var pending []domain.ContentType
	for _, ct := range requested {
		if seen[ct] || done[ct] {
			continue
		}
		seen[ct] = true
		pending = append(pending, ct)
	}
	return pending
}

func aggregateFailureMessage(failures []artifactFailure) string {
	if len(failures) == 0 {
		return "no content types requested"
	}
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = fmt.Sprintf("%s: %v", f.contentType, f.cause)
	}
	return "all artifacts failed: " + strings.Join(parts, "; ")
}
