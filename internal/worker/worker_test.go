package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"repurposer/internal/domain"
)

type fakeQueue struct {
	mu       sync.Mutex
	acked    []string
	delayed  map[string][]time.Duration
	enqErr   error
	ackErr   error
	pending   []string
	dequeued  int
	reapCalls int
}

func newFakeQueue(pending ...string) *fakeQueue {
	return &fakeQueue{pending: pending, delayed: make(map[string][]time.Duration)}
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, jobID)
	return nil
}

func (q *fakeQueue) EnqueueAfter(ctx context.Context, jobID string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqErr != nil {
		return q.enqErr
	}
	q.delayed[jobID] = append(q.delayed[jobID], delay)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (string, error) {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		<-ctx.Done()
		return "", context.Canceled
	}
	defer q.mu.Unlock()
	jobID := q.pending[0]
	q.pending = q.pending[1:]
	q.dequeued++
	return jobID, nil
}

func (q *fakeQueue) ReapStale(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reapCalls++
	return 0, nil
}

func (q *fakeQueue) reapCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reapCalls
}

func (q *fakeQueue) Ack(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ackErr != nil {
		return q.ackErr
	}
	q.acked = append(q.acked, jobID)
	return nil
}

func (q *fakeQueue) ackedIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.acked...)
}

func (q *fakeQueue) delays(jobID string) []time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]time.Duration(nil), q.delayed[jobID]...)
}

type fakeJobs struct {
	mu       sync.Mutex
	attempts map[string]int
	incErr   error
	failErr  error
	failed   map[string]string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{attempts: make(map[string]int), failed: make(map[string]string)}
}

func (f *fakeJobs) Create(ctx context.Context, job *domain.Job) error { return nil }

func (f *fakeJobs) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeJobs) ClaimProcessing(ctx context.Context, jobID string) (bool, error) {
	return false, nil
}

func (f *fakeJobs) MarkCompleted(ctx context.Context, jobID string) error { return nil }

func (f *fakeJobs) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.failed[jobID] = errMsg
	return nil
}

func (f *fakeJobs) IncrementAttempts(ctx context.Context, jobID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return 0, f.incErr
	}
	f.attempts[jobID]++
	return f.attempts[jobID], nil
}

type fakeProcessor struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeProcessor) Process(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func newTestWorker(q *fakeQueue, jobs *fakeJobs, proc *fakeProcessor, policy Policy) *Worker {
	return New(q, jobs, proc, policy, 1, zerolog.Nop())
}

func TestHandleAcksOnSuccess(t *testing.T) {
	q := newFakeQueue()
	jobs := newFakeJobs()
	proc := &fakeProcessor{}

	w := newTestWorker(q, jobs, proc, DefaultPolicy())
	w.Handle(context.Background(), "job-1")

	if got := q.ackedIDs(); len(got) != 1 || got[0] != "job-1" {
		t.Fatalf("acked = %v, want [job-1]", got)
	}
	if len(q.delays("job-1")) != 0 {
		t.Fatal("successful handling must not schedule a redelivery")
	}
	if jobs.attempts["job-1"] != 0 {
		t.Fatal("successful handling must not count an attempt")
	}
}

func TestHandleSchedulesRedeliveryWithBackoff(t *testing.T) {
	q := newFakeQueue()
	jobs := newFakeJobs()
	proc := &fakeProcessor{err: errors.New("db unreachable")}
	policy := Policy{MaxAttempts: 3, RetryBase: 10 * time.Second, MaxDelay: 15 * time.Minute}

	w := newTestWorker(q, jobs, proc, policy)
	w.Handle(context.Background(), "job-2")

	delays := q.delays("job-2")
	if len(delays) != 1 {
		t.Fatalf("redeliveries = %d, want 1", len(delays))
	}
	// First attempt: base with 0.8-1.2 jitter.
	if delays[0] < 8*time.Second || delays[0] > 12*time.Second {
		t.Fatalf("first delay = %v, want within jitter of 10s", delays[0])
	}
	if got := q.ackedIDs(); len(got) != 1 {
		t.Fatalf("acked = %v, redelivered task must be acked", got)
	}
	if jobs.attempts["job-2"] != 1 {
		t.Fatalf("attempts = %d, want 1", jobs.attempts["job-2"])
	}
}

type fakeStatusCache struct {
	mu       sync.Mutex
	statuses map[string]domain.JobStatus
}

func newFakeStatusCache() *fakeStatusCache {
	return &fakeStatusCache{statuses: make(map[string]domain.JobStatus)}
}

func (f *fakeStatusCache) SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[jobID] = status
	return nil
}

func (f *fakeStatusCache) GetStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[jobID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return status, nil
}

func TestHandleCeilingMarksFailedAndAcks(t *testing.T) {
	q := newFakeQueue()
	jobs := newFakeJobs()
	jobs.attempts["job-3"] = 2
	proc := &fakeProcessor{err: errors.New("db unreachable")}

	w := newTestWorker(q, jobs, proc, Policy{MaxAttempts: 3, RetryBase: time.Second, MaxDelay: time.Minute})
	w.Handle(context.Background(), "job-3")

	msg, ok := jobs.failed["job-3"]
	if !ok {
		t.Fatal("job not marked failed at the retry ceiling")
	}
	if !strings.HasPrefix(msg, "infrastructure error:") {
		t.Fatalf("failure message = %q, want infrastructure error prefix", msg)
	}
	if !strings.Contains(msg, "db unreachable") {
		t.Fatalf("failure message = %q, missing the cause", msg)
	}
	if len(q.delays("job-3")) != 0 {
		t.Fatal("exhausted task must not be redelivered")
	}
	if got := q.ackedIDs(); len(got) != 1 {
		t.Fatalf("acked = %v, exhausted task must be acked", got)
	}
}

func TestHandleIncrementFailureRedeliversWithBaseDelay(t *testing.T) {
	q := newFakeQueue()
	jobs := newFakeJobs()
	jobs.incErr = errors.New("db unreachable")
	proc := &fakeProcessor{err: errors.New("processing failed")}
	policy := Policy{MaxAttempts: 3, RetryBase: 5 * time.Second, MaxDelay: time.Minute}

	w := newTestWorker(q, jobs, proc, policy)
	w.Handle(context.Background(), "job-4")

	delays := q.delays("job-4")
	if len(delays) != 1 || delays[0] != policy.RetryBase {
		t.Fatalf("delays = %v, want [%v]", delays, policy.RetryBase)
	}
	if _, failed := jobs.failed["job-4"]; failed {
		t.Fatal("job must not be marked failed when the attempt could not be counted")
	}
}

func TestHandleRedeliveryEnqueueFailureLeavesTaskInFlight(t *testing.T) {
	q := newFakeQueue()
	q.enqErr = errors.New("redis down")
	jobs := newFakeJobs()
	proc := &fakeProcessor{err: errors.New("processing failed")}

	w := newTestWorker(q, jobs, proc, DefaultPolicy())
	w.Handle(context.Background(), "job-5")

	if got := q.ackedIDs(); len(got) != 0 {
		t.Fatalf("acked = %v, task must stay in-flight when redelivery fails", got)
	}
}

func TestBackoffGrowthAndCap(t *testing.T) {
	policy := Policy{MaxAttempts: 10, RetryBase: 10 * time.Second, MaxDelay: time.Minute}

	within := func(d, center time.Duration) bool {
		lo := time.Duration(float64(center) * 0.8)
		hi := time.Duration(float64(center) * 1.2)
		return d >= lo && d <= hi
	}

	if d := policy.Backoff(1); !within(d, 10*time.Second) {
		t.Errorf("Backoff(1) = %v, want ~10s", d)
	}
	if d := policy.Backoff(2); !within(d, 20*time.Second) {
		t.Errorf("Backoff(2) = %v, want ~20s", d)
	}
	if d := policy.Backoff(3); !within(d, 40*time.Second) {
		t.Errorf("Backoff(3) = %v, want ~40s", d)
	}
	// Growth past the cap clamps to MaxDelay before jitter.
	if d := policy.Backoff(8); !within(d, time.Minute) {
		t.Errorf("Backoff(8) = %v, want ~1m", d)
	}
	if d := policy.Backoff(0); !within(d, 10*time.Second) {
		t.Errorf("Backoff(0) = %v, want ~10s", d)
	}
}

func TestHandleCeilingWritesThroughStatusCache(t *testing.T) {
	q := newFakeQueue()
	jobs := newFakeJobs()
	jobs.attempts["job-6"] = 2
	cache := newFakeStatusCache()
	_ = cache.SetStatus(context.Background(), "job-6", domain.JobStatusProcessing)
	proc := &fakeProcessor{err: errors.New("db unreachable")}

	w := New(q, jobs, proc, Policy{MaxAttempts: 3, RetryBase: time.Second, MaxDelay: time.Minute},
		1, zerolog.Nop(), WithStatusCache(cache))
	w.Handle(context.Background(), "job-6")

	got, err := cache.GetStatus(context.Background(), "job-6")
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if got != domain.JobStatusFailed {
		t.Fatalf("cached status = %s, want failed after ceiling transition", got)
	}
}

func TestHandleRedeliveryDoesNotCacheTerminalStatus(t *testing.T) {
	q := newFakeQueue()
	jobs := newFakeJobs()
	cache := newFakeStatusCache()
	proc := &fakeProcessor{err: errors.New("db unreachable")}

	w := New(q, jobs, proc, Policy{MaxAttempts: 3, RetryBase: time.Second, MaxDelay: time.Minute},
		1, zerolog.Nop(), WithStatusCache(cache))
	w.Handle(context.Background(), "job-7")

	if _, err := cache.GetStatus(context.Background(), "job-7"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cache written on a non-terminal redelivery: %v", err)
	}
}

func TestRunReapsStaleTasksOnStartup(t *testing.T) {
	q := newFakeQueue()
	jobs := newFakeJobs()
	proc := &fakeProcessor{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w := newTestWorker(q, jobs, proc, DefaultPolicy())
	_ = w.Run(ctx)

	if got := q.reapCount(); got < 1 {
		t.Fatalf("ReapStale called %d times, want at least once at startup", got)
	}
}
