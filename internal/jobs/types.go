package jobs

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrJobNotFound is returned by JobStore lookups for unknown IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueClosed is returned when publishing to or starting a stopped queue.
	ErrQueueClosed = errors.New("queue is closed")
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessRecurring runs one recurring pass for a user.
	JobTypeProcessRecurring JobType = "process_recurring"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries applies when a published job does not set MaxRetries.
const DefaultMaxRetries = 3

// ProcessRecurringJob asks a worker to materialize the due recurring
// transactions of one user.
type ProcessRecurringJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// UserID owns the ledger to process.
	UserID string `json:"user_id"`

	// Trigger records who asked for the pass ("scheduler", "api", "cli").
	Trigger string `json:"trigger,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Created is the number of transactions the last attempt materialized.
	Created int `json:"created"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ProcessRecurringJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ProcessRecurringJob) GetType() JobType {
	return JobTypeProcessRecurring
}

// GetStatus implements the Job interface.
func (j *ProcessRecurringJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs. Implementations may be in-process or backed by a
// hosted queue.
type Publisher interface {
	PublishProcessRecurring(ctx context.Context, job *ProcessRecurringJob) error
	Close() error
}

// Consumer delivers queued jobs to a handler.
type Consumer interface {
	// Start begins consuming jobs from the queue. The handler function is
	// called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error schedules a retry until
// the job's MaxRetries is exhausted.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so it can be reported over the API.
type JobStore interface {
	SaveJob(ctx context.Context, job *ProcessRecurringJob) error
	GetJob(ctx context.Context, jobID string) (*ProcessRecurringJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessRecurringJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs. Zero fields impose no constraint.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
