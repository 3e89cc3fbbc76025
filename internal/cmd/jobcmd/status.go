package jobcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/api/bulk"
	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
	"github.com/open-cli-collective/sfbulk/internal/config"
	"github.com/open-cli-collective/sfbulk/internal/view"
)

func newStatusCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Get job status",
		Long: `Get the current state of an ingest job.

Examples:
  sfbulk job status 750xx000000001
  sfbulk job status 750xx000000001 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), opts, args[0])
		},
	}
}

func runStatus(ctx context.Context, opts *root.Options, jobID string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	job, err := client.GetStatus(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	return renderJob(opts, job)
}

func newListCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recent ingest jobs",
		Long: `List recent Bulk API 2.0 ingest jobs.

Examples:
  sfbulk job list
  sfbulk job list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts)
		},
	}
}

func runList(ctx context.Context, opts *root.Options) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	resp, err := client.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	v := opts.View()
	if len(resp.Records) == 0 && !v.IsJSON() {
		v.Info("No bulk jobs found")
		return nil
	}

	headers := []string{"ID", "Object", "Operation", "State", "Processed", "Failed", "Created"}
	rows := make([][]string, 0, len(resp.Records))
	for _, job := range resp.Records {
		rows = append(rows, []string{
			job.JobID,
			view.Truncate(job.Object, 40),
			string(job.Operation),
			string(job.Status),
			strconv.Itoa(job.NumberRecordsProcessed),
			strconv.Itoa(job.NumberRecordsFailed),
			formatTime(job.CreatedDate),
		})
	}

	if err := v.Render(headers, rows, resp); err != nil {
		return err
	}

	if !v.IsJSON() && v.Format != view.FormatPlain {
		v.Info("\n%d job(s)", len(resp.Records))
	}
	return nil
}

func newWaitCommand(opts *root.Options) *cobra.Command {
	var (
		interval time.Duration
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait <job-id>",
		Short: "Wait for a job to finish",
		Long: `Poll an ingest job until it is JobComplete, Failed, or Aborted.

Examples:
  sfbulk job wait 750xx000000001
  sfbulk job wait 750xx000000001 --interval 10s --timeout 30m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWait(cmd.Context(), opts, args[0], bulk.PollConfig{Interval: interval, Timeout: timeout})
		},
	}

	def := bulk.DefaultPollConfig()
	cmd.Flags().DurationVar(&interval, "interval", def.Interval, "Time between status checks")
	cmd.Flags().DurationVar(&timeout, "timeout", def.Timeout, "Give up after this long")

	return cmd
}

func runWait(ctx context.Context, opts *root.Options, jobID string, cfg bulk.PollConfig) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	return waitAndRender(ctx, opts, client, jobID, cfg)
}

// waitAndRender polls jobID and renders the final state. A Failed or Aborted
// job is reported as an error so the exit status reflects it.
func waitAndRender(ctx context.Context, opts *root.Options, client *bulk.Client, jobID string, cfg bulk.PollConfig) error {
	opts.View().Progress("Waiting for job %s...", jobID)

	job, err := client.PollJob(ctx, jobID, cfg)
	if err != nil {
		if errors.Is(err, bulk.ErrPollTimeout) && job != nil {
			_ = renderJob(opts, job)
		}
		return fmt.Errorf("failed waiting for job: %w", err)
	}

	if err := renderJob(opts, job); err != nil {
		return err
	}
	if job.Status != bulk.StateJobComplete {
		return fmt.Errorf("job %s finished in state %s", job.JobID, job.Status)
	}
	return nil
}

func newResultsCommand(opts *root.Options) *cobra.Command {
	var (
		failed      bool
		unprocessed bool
		file        string
	)

	cmd := &cobra.Command{
		Use:   "results <job-id>",
		Short: "Download job results as CSV",
		Long: `Download the per-record results of a finished ingest job.

By default the successful records are returned. Use --failed for records that
were rejected (with sf__Error) or --unprocessed for records never attempted.

Examples:
  sfbulk job results 750xx000000001
  sfbulk job results 750xx000000001 --failed --file errors.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(cmd.Context(), opts, args[0], failed, unprocessed, file)
		},
	}

	cmd.Flags().BoolVar(&failed, "failed", false, "Return failed records")
	cmd.Flags().BoolVar(&unprocessed, "unprocessed", false, "Return unprocessed records")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("failed", "unprocessed")

	return cmd
}

func runResults(ctx context.Context, opts *root.Options, jobID string, failed, unprocessed bool, file string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	var data []byte
	switch {
	case failed:
		data, err = client.GetFailedResults(ctx, jobID)
	case unprocessed:
		data, err = client.GetUnprocessedRecords(ctx, jobID)
	default:
		data, err = client.GetSuccessfulResults(ctx, jobID)
	}
	if err != nil {
		return fmt.Errorf("failed to get results: %w", err)
	}

	if file != "" {
		if err := os.WriteFile(file, data, config.FilePerm); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		opts.View().Success("Results written to %s", file)
		return nil
	}

	_, err = opts.View().Out.Write(data)
	return err
}
