package jobcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/api/bulk"
	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
)

type runFlags struct {
	jobFlags
	file    string
	wait    bool
	cleanup bool
	poll    bulk.PollConfig
}

func newRunCommand(opts *root.Options) *cobra.Command {
	flags := runFlags{poll: bulk.DefaultPollConfig()}

	cmd := &cobra.Command{
		Use:   "run <object>",
		Short: "Create a job, upload a CSV file, and start processing",
		Long: `Create an ingest job, upload one CSV file to it, and mark the upload complete.

The CSV file must have a header row with field names of the object. Its line
endings and delimiter must match --line-ending and --delimiter.

Operations:
  insert      - Create new records
  update      - Update existing records (requires Id column)
  upsert      - Insert or update based on --external-id
  delete      - Delete records (requires Id column)
  hardDelete  - Delete records bypassing the recycle bin

Examples:
  sfbulk job run Account --file accounts.csv --external-id External_Id__c
  sfbulk job run Contact --file contacts.csv --operation insert --line-ending LF --wait
  sfbulk job run Account --file ids.csv --operation delete --cleanup`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), opts, args[0], &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Path to CSV file, or - for stdin (required)")
	cmd.Flags().BoolVar(&flags.wait, "wait", false, "Wait for the job to finish")
	cmd.Flags().BoolVar(&flags.cleanup, "cleanup", false, "Abort and delete the job if the upload or start fails")
	cmd.Flags().DurationVar(&flags.poll.Interval, "interval", flags.poll.Interval, "Time between status checks with --wait")
	cmd.Flags().DurationVar(&flags.poll.Timeout, "timeout", flags.poll.Timeout, "Give up waiting after this long")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runRun(ctx context.Context, opts *root.Options, object string, flags *runFlags) error {
	jobOpts, err := flags.options()
	if err != nil {
		return err
	}

	data, err := readData(opts, flags.file)
	if err != nil {
		return err
	}

	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	v := opts.View()

	v.Progress("Creating %s job for %s...", flags.operation, object)
	job, err := client.CreateJob(ctx, object, flags.externalID, jobOpts...)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	jobID := job.JobID
	v.Progress("Job created: %s", jobID)

	v.Progress("Uploading %d bytes...", len(data))
	if err := client.UploadBatch(ctx, jobID, data); err != nil {
		return abandon(ctx, opts, client, jobID, flags.cleanup, fmt.Errorf("failed to upload data: %w", err))
	}

	v.Progress("Starting job processing...")
	job, err = client.StartJob(ctx, jobID)
	if err != nil {
		return abandon(ctx, opts, client, jobID, flags.cleanup, fmt.Errorf("failed to start job: %w", err))
	}

	if !flags.wait {
		if v.IsJSON() {
			return v.JSON(job)
		}
		v.Success("Job %s is processing. Use 'sfbulk job wait %s' to follow it.", job.JobID, job.JobID)
		return nil
	}

	return waitAndRender(ctx, opts, client, job.JobID, flags.poll)
}

// abandon handles a failure on a job that already exists. With cleanup the
// job is aborted and deleted; otherwise the user is told how to do it.
func abandon(ctx context.Context, opts *root.Options, client *bulk.Client, jobID string, cleanup bool, cause error) error {
	v := opts.View()
	if !cleanup {
		v.Warning("Job %s was left open. Remove it with 'sfbulk job abort-delete %s'.", jobID, jobID)
		return cause
	}

	if err := client.AbortAndDeleteJob(ctx, jobID); err != nil {
		v.Warning("Cleanup of job %s failed: %v", jobID, err)
		return cause
	}
	v.Progress("Job %s aborted and deleted", jobID)
	return cause
}
