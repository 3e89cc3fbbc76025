package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPollTimeout is returned by PollJob when the job is still running after
// the configured timeout.
var ErrPollTimeout = errors.New("timed out waiting for job to finish")

// JobError ties a failure to the job it happened on, so callers can clean up.
type JobError struct {
	JobID string
	Step  string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s: %s failed: %v", e.JobID, e.Step, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// AbortAndDeleteJob aborts a job and then deletes it. If the abort fails the
// delete is never attempted.
func (c *Client) AbortAndDeleteJob(ctx context.Context, jobID string) error {
	if _, err := c.AbortJob(ctx, jobID); err != nil {
		return err
	}
	return c.DeleteJob(ctx, jobID)
}

// RunJob creates a job, uploads records into it and marks the upload complete.
// A failure after creation is returned as a *JobError carrying the job ID.
func (c *Client) RunJob(ctx context.Context, object, externalIDFieldName string, records any, opts ...JobOption) (*JobStatus, error) {
	log := c.logger.With(zap.String("run_id", uuid.NewString()))

	job, err := c.CreateJob(ctx, object, externalIDFieldName, opts...)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("job_id", job.JobID))

	settings := c.defaults
	for _, opt := range opts {
		opt(&settings)
	}

	err = c.UploadRecords(ctx, job.JobID, records,
		WithEncodeLineEnding(settings.LineEnding),
		WithEncodeDelimiter(settings.ColumnDelimiter))
	if err != nil {
		log.Error("Upload failed", zap.Error(err))
		return nil, &JobError{JobID: job.JobID, Step: "upload", Err: err}
	}

	started, err := c.StartJob(ctx, job.JobID)
	if err != nil {
		log.Error("Start failed", zap.Error(err))
		return nil, &JobError{JobID: job.JobID, Step: "start", Err: err}
	}

	log.Info("Bulk job submitted", zap.String("state", string(started.Status)))
	return started, nil
}

// PollJob fetches the job status every cfg.Interval until it reaches a
// terminal state. Request errors stop polling immediately.
func (c *Client) PollJob(ctx context.Context, jobID string, cfg PollConfig) (*JobStatus, error) {
	if jobID == "" {
		return nil, ErrJobIDRequired
	}
	if cfg.Interval <= 0 || cfg.Timeout <= 0 {
		def := DefaultPollConfig()
		if cfg.Interval <= 0 {
			cfg.Interval = def.Interval
		}
		if cfg.Timeout <= 0 {
			cfg.Timeout = def.Timeout
		}
	}

	errRunning := errors.New("job still running")
	var last *JobStatus

	op := func() (*JobStatus, error) {
		job, err := c.GetStatus(ctx, jobID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		last = job
		if !job.Status.IsTerminal() {
			c.logger.Debug("Waiting for bulk job",
				zap.String("job_id", jobID),
				zap.String("state", string(job.Status)))
			return nil, errRunning
		}
		return job, nil
	}

	job, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.Interval)),
		backoff.WithMaxElapsedTime(cfg.Timeout))
	if err != nil {
		if errors.Is(err, errRunning) {
			if last != nil {
				return last, fmt.Errorf("%w (last state %s)", ErrPollTimeout, last.Status)
			}
			return nil, ErrPollTimeout
		}
		return nil, err
	}
	return job, nil
}
