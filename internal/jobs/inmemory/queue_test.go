package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/jobs"
)

// waitForStatus polls the store until the job reaches status or the
// deadline passes.
func waitForStatus(t *testing.T, s *Store, id string, status jobs.JobStatus) *jobs.ProcessRecurringJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.GetJob(context.Background(), id)
		if err == nil && job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := s.GetJob(context.Background(), id)
	t.Fatalf("job %s never reached %s, last state %+v", id, status, job)
	return nil
}

func TestQueue_PublishFillsDefaults(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	job := &jobs.ProcessRecurringJob{UserID: "alice"}
	if err := q.PublishProcessRecurring(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if job.JobID == "" || job.Status != jobs.JobStatusPending || job.CreatedAt.IsZero() {
		t.Errorf("defaults not applied: %+v", job)
	}
	if job.MaxRetries != jobs.DefaultMaxRetries {
		t.Errorf("MaxRetries = %d", job.MaxRetries)
	}
	if _, err := store.GetJob(context.Background(), job.JobID); err != nil {
		t.Errorf("job not saved: %v", err)
	}
}

func TestQueue_ProcessesJobs(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled atomic.Int32
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		handled.Add(1)
		job.(*jobs.ProcessRecurringJob).Created = 2
		return nil
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ProcessRecurringJob{UserID: "alice"}
	if err := q.PublishProcessRecurring(ctx, job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.Created != 2 || done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("completed job = %+v", done)
	}
	if handled.Load() != 1 {
		t.Errorf("handled %d times", handled.Load())
	}

	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := q.PublishProcessRecurring(context.Background(), &jobs.ProcessRecurringJob{UserID: "bob"}); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("publish after stop: err = %v, want ErrQueueClosed", err)
	}
	if err := q.Start(ctx, nil); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("start after stop: err = %v, want ErrQueueClosed", err)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	q.Backoff = func(int) time.Duration { return time.Millisecond }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer q.Close()

	var attempts atomic.Int32
	q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("store unavailable")
		}
		return nil
	})

	job := &jobs.ProcessRecurringJob{UserID: "alice"}
	if err := q.PublishProcessRecurring(ctx, job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", done.RetryCount)
	}
	if done.Error != "" {
		t.Errorf("Error should be cleared on success, got %q", done.Error)
	}
}

func TestQueue_GivesUpAfterMaxRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	q.Backoff = func(int) time.Duration { return time.Millisecond }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer q.Close()

	var attempts atomic.Int32
	q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		attempts.Add(1)
		return errors.New("boom")
	})

	job := &jobs.ProcessRecurringJob{UserID: "alice", MaxRetries: 2}
	if err := q.PublishProcessRecurring(ctx, job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.Error != "boom" || failed.RetryCount != 2 {
		t.Errorf("failed job = %+v", failed)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}
