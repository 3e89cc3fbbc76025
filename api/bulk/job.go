package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/open-cli-collective/sfbulk/api"
)

const ingestPath = "/jobs/ingest/"

func jobPath(jobID string) string {
	return ingestPath + url.PathEscape(jobID)
}

// CreateJob creates a new bulk ingest job for object, keyed on
// externalIDFieldName. Settings not overridden by opts come from the
// client's JobDefaults.
func (c *Client) CreateJob(ctx context.Context, object, externalIDFieldName string, opts ...JobOption) (*JobStatus, error) {
	if object == "" {
		return nil, ErrObjectRequired
	}

	settings := c.defaults
	for _, opt := range opts {
		opt(&settings)
	}

	req := createJobRequest{
		Object:              object,
		ExternalIDFieldName: externalIDFieldName,
		ContentType:         settings.ContentType,
		Operation:           settings.Operation,
		LineEnding:          settings.LineEnding,
		ColumnDelimiter:     settings.ColumnDelimiter,
	}

	body, err := c.doRequest(ctx, http.MethodPost, ingestPath, req)
	if err != nil {
		return nil, err
	}

	job, err := decodeStatus("create job", body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Bulk job created",
		zap.String("job_id", job.JobID),
		zap.String("object", object),
		zap.String("operation", string(settings.Operation)),
		zap.String("state", string(job.Status)))

	return job, nil
}

// UploadBatch uploads CSV data to an open job. The payload is sent as-is.
func (c *Client) UploadBatch(ctx context.Context, jobID string, payload []byte) error {
	if jobID == "" {
		return ErrJobIDRequired
	}

	path := jobPath(jobID) + "/batches/"
	if _, err := c.doRequest(ctx, http.MethodPut, path, payload); err != nil {
		return err
	}

	c.logger.Info("Batch uploaded",
		zap.String("job_id", jobID),
		zap.Int("bytes", len(payload)))
	return nil
}

// UploadRecords encodes records with EncodeRecords and uploads the result.
// The client's line ending and delimiter apply unless opts override them.
func (c *Client) UploadRecords(ctx context.Context, jobID string, records any, opts ...EncodeOption) error {
	base := []EncodeOption{
		WithEncodeLineEnding(c.defaults.LineEnding),
		WithEncodeDelimiter(c.defaults.ColumnDelimiter),
	}
	payload, err := EncodeRecords(records, append(base, opts...)...)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return c.UploadBatch(ctx, jobID, payload)
}

// SetState requests a state transition. The server rejects illegal
// transitions; that rejection is returned as an *api.APIError.
func (c *Client) SetState(ctx context.Context, jobID string, state State) (*JobStatus, error) {
	if jobID == "" {
		return nil, ErrJobIDRequired
	}

	body, err := c.doRequest(ctx, http.MethodPatch, jobPath(jobID), updateJobRequest{State: state})
	if err != nil {
		return nil, err
	}

	job, err := decodeStatus("set state", body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Bulk job state changed",
		zap.String("job_id", job.JobID),
		zap.String("requested", string(state)),
		zap.String("state", string(job.Status)))

	return job, nil
}

// StartJob marks a job as UploadComplete to start processing.
func (c *Client) StartJob(ctx context.Context, jobID string) (*JobStatus, error) {
	return c.SetState(ctx, jobID, StateUploadComplete)
}

// AbortJob aborts a bulk job.
func (c *Client) AbortJob(ctx context.Context, jobID string) (*JobStatus, error) {
	return c.SetState(ctx, jobID, StateAborted)
}

// GetStatus retrieves the current state of a bulk ingest job.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	if jobID == "" {
		return nil, ErrJobIDRequired
	}

	body, err := c.doRequest(ctx, http.MethodGet, jobPath(jobID), nil)
	if err != nil {
		return nil, err
	}

	return decodeStatus("get status", body)
}

// DeleteJob deletes a bulk job. The server requires a terminal state.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	if jobID == "" {
		return ErrJobIDRequired
	}

	if _, err := c.doRequest(ctx, http.MethodDelete, jobPath(jobID), nil); err != nil {
		return err
	}

	c.logger.Info("Bulk job deleted", zap.String("job_id", jobID))
	return nil
}

// ListJobs lists bulk ingest jobs.
func (c *Client) ListJobs(ctx context.Context) (*JobsResponse, error) {
	body, err := c.doRequest(ctx, http.MethodGet, ingestPath, nil)
	if err != nil {
		return nil, err
	}

	var resp JobsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &api.MalformedResponseError{Operation: "list jobs", Body: string(body), Err: err}
	}

	return &resp, nil
}

// GetSuccessfulResults retrieves successful results from a completed job.
func (c *Client) GetSuccessfulResults(ctx context.Context, jobID string) ([]byte, error) {
	return c.results(ctx, jobID, "successfulResults")
}

// GetFailedResults retrieves failed results from a completed job.
func (c *Client) GetFailedResults(ctx context.Context, jobID string) ([]byte, error) {
	return c.results(ctx, jobID, "failedResults")
}

// GetUnprocessedRecords retrieves unprocessed records from a job.
func (c *Client) GetUnprocessedRecords(ctx context.Context, jobID string) ([]byte, error) {
	return c.results(ctx, jobID, "unprocessedrecords")
}

func (c *Client) results(ctx context.Context, jobID, kind string) ([]byte, error) {
	if jobID == "" {
		return nil, ErrJobIDRequired
	}
	return c.doCSVRequest(ctx, http.MethodGet, jobPath(jobID)+"/"+kind+"/")
}
