// Package jobcmd provides commands for Salesforce Bulk API 2.0 ingest jobs.
package jobcmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/api/bulk"
	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
	"github.com/open-cli-collective/sfbulk/internal/view"
)

// Register registers the job command with the root command.
func Register(parent *cobra.Command, opts *root.Options) {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage Bulk API 2.0 ingest jobs",
		Long: `Create, load, and manage Salesforce Bulk API 2.0 ingest jobs.

A job moves Open -> UploadComplete -> InProgress -> JobComplete (or Failed).
It can be aborted at any point before it finishes, and deleted once it has.

Examples:
  sfbulk job run Account --file accounts.csv --external-id External_Id__c --wait
  sfbulk job create Account --external-id External_Id__c
  sfbulk job upload 750xx000000001 --file accounts.csv
  sfbulk job start 750xx000000001
  sfbulk job status 750xx000000001
  sfbulk job abort-delete 750xx000000001`,
	}

	cmd.AddCommand(newCreateCommand(opts))
	cmd.AddCommand(newUploadCommand(opts))
	cmd.AddCommand(newStartCommand(opts))
	cmd.AddCommand(newAbortCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newAbortDeleteCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newWaitCommand(opts))
	cmd.AddCommand(newResultsCommand(opts))
	cmd.AddCommand(newRunCommand(opts))

	parent.AddCommand(cmd)
}

// jobFlags are the create-time settings shared by create and run.
type jobFlags struct {
	externalID string
	operation  string
	lineEnding string
	delimiter  string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.externalID, "external-id", "", "External ID field used to match records (required for upsert)")
	cmd.Flags().StringVar(&f.operation, "operation", string(bulk.OperationUpsert), "Operation: insert, update, upsert, delete, hardDelete")
	cmd.Flags().StringVar(&f.lineEnding, "line-ending", string(bulk.LineEndingCRLF), "Line ending of the uploaded data: LF, CRLF")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "Column delimiter: COMMA, TAB, PIPE, SEMICOLON, CARET, BACKQUOTE")
}

// options validates the flags and converts them to bulk.JobOption values.
func (f *jobFlags) options() ([]bulk.JobOption, error) {
	op, err := parseOperation(f.operation)
	if err != nil {
		return nil, err
	}
	if op == bulk.OperationUpsert && f.externalID == "" {
		return nil, fmt.Errorf("--external-id is required for upsert operation")
	}

	le, err := parseLineEnding(f.lineEnding)
	if err != nil {
		return nil, err
	}

	opts := []bulk.JobOption{bulk.WithOperation(op), bulk.WithLineEnding(le)}
	if f.delimiter != "" {
		d, err := parseDelimiter(f.delimiter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bulk.WithColumnDelimiter(d))
	}
	return opts, nil
}

func parseOperation(s string) (bulk.Operation, error) {
	for _, op := range []bulk.Operation{
		bulk.OperationInsert, bulk.OperationUpdate, bulk.OperationUpsert,
		bulk.OperationDelete, bulk.OperationHardDelete,
	} {
		if strings.EqualFold(s, string(op)) {
			return op, nil
		}
	}
	return "", fmt.Errorf("invalid operation: %s (must be insert, update, upsert, delete, or hardDelete)", s)
}

func parseLineEnding(s string) (bulk.LineEnding, error) {
	switch le := bulk.LineEnding(strings.ToUpper(s)); le {
	case bulk.LineEndingLF, bulk.LineEndingCRLF:
		return le, nil
	}
	return "", fmt.Errorf("invalid line ending: %s (must be LF or CRLF)", s)
}

func parseDelimiter(s string) (bulk.ColumnDelimiter, error) {
	switch d := bulk.ColumnDelimiter(strings.ToUpper(s)); d {
	case bulk.DelimiterComma, bulk.DelimiterTab, bulk.DelimiterPipe,
		bulk.DelimiterSemicolon, bulk.DelimiterCaret, bulk.DelimiterBackquote:
		return d, nil
	}
	return "", fmt.Errorf("invalid delimiter: %s (must be COMMA, TAB, PIPE, SEMICOLON, CARET, or BACKQUOTE)", s)
}

// readData reads a CSV payload from path, or from stdin when path is "-".
func readData(opts *root.Options, path string) ([]byte, error) {
	if path == "-" {
		var in io.Reader = os.Stdin
		if opts.Stdin != nil {
			in = opts.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func formatTime(t bulk.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

// renderJob prints a job as JSON or as a labelled block.
func renderJob(opts *root.Options, job *bulk.JobStatus) error {
	v := opts.View()
	if v.IsJSON() {
		return v.JSON(job)
	}

	fields := []view.Field{
		{Label: "Job ID", Value: job.JobID},
		{Label: "State", Value: string(job.Status)},
		{Label: "Object", Value: job.Object},
		{Label: "Operation", Value: string(job.Operation)},
		{Label: "External ID", Value: job.ExternalIDFieldName},
		{Label: "Line Ending", Value: string(job.LineEnding)},
		{Label: "Delimiter", Value: string(job.ColumnDelimiter)},
		{Label: "Created", Value: formatTime(job.CreatedDate)},
		{Label: "Modified", Value: formatTime(job.ModifiedDate)},
	}
	if job.Status.IsTerminal() || job.NumberRecordsProcessed > 0 {
		fields = append(fields,
			view.Field{Label: "Records Processed", Value: strconv.Itoa(job.NumberRecordsProcessed)},
			view.Field{Label: "Records Failed", Value: strconv.Itoa(job.NumberRecordsFailed)})
	}
	fields = append(fields, view.Field{Label: "Error", Value: job.ErrorMessage})

	if err := v.Details(fields); err != nil {
		return err
	}

	if job.NumberRecordsFailed > 0 {
		v.Warning("Use 'sfbulk job results %s --failed' to see failed records.", job.JobID)
	}
	return nil
}
