// Package bulk provides a client for Salesforce Bulk API 2.0 ingest jobs.
package bulk

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation represents a bulk job operation type.
type Operation string

// Bulk job operations.
const (
	OperationInsert     Operation = "insert"
	OperationUpdate     Operation = "update"
	OperationUpsert     Operation = "upsert"
	OperationDelete     Operation = "delete"
	OperationHardDelete Operation = "hardDelete"
)

// State represents a bulk job state. The server owns the lifecycle; these
// values are not enforced client-side.
type State string

// Bulk job states.
const (
	StateOpen           State = "Open"
	StateUploadComplete State = "UploadComplete"
	StateInProgress     State = "InProgress"
	StateJobComplete    State = "JobComplete"
	StateFailed         State = "Failed"
	StateAborted        State = "Aborted"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateJobComplete, StateFailed, StateAborted:
		return true
	}
	return false
}

// ContentType represents the content type for bulk data.
type ContentType string

// ContentTypeCSV is the only content type Bulk API 2.0 ingest accepts.
const ContentTypeCSV ContentType = "CSV"

// LineEnding is the record separator declared for uploaded data.
type LineEnding string

// Line endings.
const (
	LineEndingLF   LineEnding = "LF"
	LineEndingCRLF LineEnding = "CRLF"
)

// ColumnDelimiter is the field separator declared for uploaded data.
type ColumnDelimiter string

// Column delimiters.
const (
	DelimiterComma     ColumnDelimiter = "COMMA"
	DelimiterTab       ColumnDelimiter = "TAB"
	DelimiterPipe      ColumnDelimiter = "PIPE"
	DelimiterSemicolon ColumnDelimiter = "SEMICOLON"
	DelimiterCaret     ColumnDelimiter = "CARET"
	DelimiterBackquote ColumnDelimiter = "BACKQUOTE"
)

// Rune returns the separator character, or ',' for an empty or unknown delimiter.
func (d ColumnDelimiter) Rune() rune {
	switch d {
	case DelimiterTab:
		return '\t'
	case DelimiterPipe:
		return '|'
	case DelimiterSemicolon:
		return ';'
	case DelimiterCaret:
		return '^'
	case DelimiterBackquote:
		return '`'
	default:
		return ','
	}
}

// timestampLayout is the format Salesforce uses for createdDate and systemModstamp.
const timestampLayout = "2006-01-02T15:04:05.000-0700"

// Timestamp is a time with offset as returned by the Bulk API.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts Salesforce's "+0000" offset form and RFC3339.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		if string(data) == "null" {
			t.Time = time.Time{}
			return nil
		}
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{timestampLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unable to parse timestamp: %s", s)
}

// MarshalJSON writes the Salesforce layout, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(timestampLayout))
}

// JobStatus is a snapshot of a job as last reported by the server. Every
// call that returns one fetches it fresh.
type JobStatus struct {
	JobID                  string          `json:"id"`
	Status                 State           `json:"state"`
	JobType                string          `json:"jobType,omitempty"`
	Operation              Operation       `json:"operation,omitempty"`
	Object                 string          `json:"object,omitempty"`
	ExternalIDFieldName    string          `json:"externalIdFieldName,omitempty"`
	ContentType            ContentType     `json:"contentType,omitempty"`
	ColumnDelimiter        ColumnDelimiter `json:"columnDelimiter,omitempty"`
	LineEnding             LineEnding      `json:"lineEnding,omitempty"`
	CreatedDate            Timestamp       `json:"createdDate"`
	ModifiedDate           Timestamp       `json:"systemModstamp"`
	CreatedByID            string          `json:"createdById,omitempty"`
	ConcurrencyMode        string          `json:"concurrencyMode,omitempty"`
	APIVersion             float64         `json:"apiVersion,omitempty"`
	NumberRecordsProcessed int             `json:"numberRecordsProcessed,omitempty"`
	NumberRecordsFailed    int             `json:"numberRecordsFailed,omitempty"`
	ErrorMessage           string          `json:"errorMessage,omitempty"`
}

// String renders the fields a console user cares about.
func (s JobStatus) String() string {
	return fmt.Sprintf("JobStatus{JobId=%s, Status=%s, Operation=%s, Object=%s, ExternalIdFieldName=%s, CreatedDate=%s}",
		s.JobID, s.Status, s.Operation, s.Object, s.ExternalIDFieldName, s.CreatedDate.Format(time.RFC3339))
}

// JobsResponse represents a page of bulk ingest jobs.
type JobsResponse struct {
	Done           bool        `json:"done"`
	Records        []JobStatus `json:"records"`
	NextRecordsURL string      `json:"nextRecordsUrl,omitempty"`
}

// createJobRequest is the body of a create call. Field order matches the wire
// contract: object, externalIdFieldName, contentType, operation, lineEnding.
type createJobRequest struct {
	Object              string          `json:"object"`
	ExternalIDFieldName string          `json:"externalIdFieldName,omitempty"`
	ContentType         ContentType     `json:"contentType"`
	Operation           Operation       `json:"operation"`
	LineEnding          LineEnding      `json:"lineEnding"`
	ColumnDelimiter     ColumnDelimiter `json:"columnDelimiter,omitempty"`
}

// updateJobRequest is the body of a state change.
type updateJobRequest struct {
	State State `json:"state"`
}

// JobDefaults are the create-time settings applied when a call does not
// override them.
type JobDefaults struct {
	ContentType     ContentType
	Operation       Operation
	LineEnding      LineEnding
	ColumnDelimiter ColumnDelimiter
}

// DefaultJobDefaults returns CSV, upsert, CRLF with the server's default delimiter.
func DefaultJobDefaults() JobDefaults {
	return JobDefaults{
		ContentType: ContentTypeCSV,
		Operation:   OperationUpsert,
		LineEnding:  LineEndingCRLF,
	}
}

// JobOption overrides a single create-time setting.
type JobOption func(*JobDefaults)

// WithContentType sets the declared content type.
func WithContentType(ct ContentType) JobOption {
	return func(d *JobDefaults) { d.ContentType = ct }
}

// WithOperation sets the job operation.
func WithOperation(op Operation) JobOption {
	return func(d *JobDefaults) { d.Operation = op }
}

// WithLineEnding sets the declared line ending.
func WithLineEnding(le LineEnding) JobOption {
	return func(d *JobDefaults) { d.LineEnding = le }
}

// WithColumnDelimiter sets the declared column delimiter.
func WithColumnDelimiter(cd ColumnDelimiter) JobOption {
	return func(d *JobDefaults) { d.ColumnDelimiter = cd }
}

// PollConfig contains configuration for polling job status.
type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultPollConfig returns default polling configuration.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval: 5 * time.Second,
		Timeout:  10 * time.Minute,
	}
}
