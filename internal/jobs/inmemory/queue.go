package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/pocket-pulse/internal/jobs"
)

// DefaultWorkers is the number of concurrent handlers started by Start.
const DefaultWorkers = 5

// Queue is an in-process Publisher and Consumer backed by a buffered
// channel. It suits single-instance deployments and tests.
type Queue struct {
	jobChan   chan *jobs.ProcessRecurringJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool

	// Workers is the number of concurrent handlers; DefaultWorkers when zero.
	Workers int
	// Backoff returns the delay before retry n (1-based). Linear seconds by
	// default.
	Backoff func(retry int) time.Duration
	// Now stamps job timestamps.
	Now func() time.Time
}

// NewQueue creates a queue holding up to bufferSize pending jobs. store may
// be nil.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.ProcessRecurringJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		Workers:   DefaultWorkers,
		Backoff:   func(retry int) time.Duration { return time.Duration(retry) * time.Second },
		Now:       time.Now,
	}
}

// PublishProcessRecurring implements jobs.Publisher. It fills in the ID,
// status, creation time and retry budget when unset.
func (q *Queue) PublishProcessRecurring(ctx context.Context, job *jobs.ProcessRecurringJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return jobs.ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = q.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = jobs.DefaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishProcessRecurring: saving job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start implements jobs.Consumer. It returns once the workers are running.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return jobs.ErrQueueClosed
	}

	workers := q.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs the handler once and either completes the job, fails it,
// or schedules a retry.
func (q *Queue) processJob(ctx context.Context, job *jobs.ProcessRecurringJob, handler jobs.JobHandler) {
	started := q.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &started
	job.CompletedAt = nil
	q.save(ctx, job)

	err := handler(ctx, job)

	completed := q.Now()
	job.CompletedAt = &completed

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		q.save(ctx, job)

		retry := *job
		time.AfterFunc(q.Backoff(job.RetryCount), func() {
			retry.Status = jobs.JobStatusPending
			retry.StartedAt = nil
			retry.CompletedAt = nil
			_ = q.PublishProcessRecurring(ctx, &retry)
		})
		return
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
	}

	q.save(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.ProcessRecurringJob) {
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop implements jobs.Consumer. It waits for in-flight jobs until ctx is
// done.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
