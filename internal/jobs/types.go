// Package jobs describes asynchronous statement extraction work and the queue and store
// contracts that carry it.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeExtractStatement runs one document through the profiling pipeline.
	JobTypeExtractStatement JobType = "extract_statement"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is waiting to be re-enqueued.
	JobStatusRetrying JobStatus = "retrying"
)

// ExtractStatementJob carries one uploaded document and, once done, its result.
type ExtractStatementJob struct {
	JobID    string `json:"job_id"`
	TenantID string `json:"tenant_id"`
	Filename string `json:"filename,omitempty"`

	// Raw is the uploaded document. It is never serialised.
	Raw         []byte `json:"-"`
	MIMEType    string `json:"mime_type,omitempty"`
	Monthly     bool   `json:"monthly,omitempty"`
	MonthOffset int    `json:"month_offset,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`

	Result *pipeline.Result `json:"result,omitempty"`
}

// Input converts the job into a pipeline input.
func (j *ExtractStatementJob) Input() pipeline.Input {
	return pipeline.Input{
		TenantID:    j.TenantID,
		Filename:    j.Filename,
		Raw:         j.Raw,
		MIMEType:    j.MIMEType,
		Monthly:     j.Monthly,
		MonthOffset: j.MonthOffset,
	}
}

// Publisher enqueues jobs. Implementations other than the in-memory queue (Cloud Tasks,
// Pub/Sub) can sit behind the same interface.
type Publisher interface {
	PublishExtractStatement(ctx context.Context, job *ExtractStatementJob) error
	Close() error
}

// Consumer runs a handler over queued jobs.
type Consumer interface {
	// Start launches the workers and returns immediately.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error triggers a retry unless it is Permanent.
type JobHandler func(ctx context.Context, job *ExtractStatementJob) error

// JobStore keeps job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *ExtractStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ExtractStatementJob, error)
	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExtractStatementJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	TenantID string
	Status   JobStatus
	Limit    int
	Offset   int
}

// ErrJobNotFound is returned by stores for unknown ids.
var ErrJobNotFound = errors.New("job not found")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
