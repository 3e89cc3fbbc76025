package jobcmd

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
)

func newStartCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "start <job-id>",
		Short: "Mark the upload complete and start processing",
		Long: `Move an Open job to UploadComplete so Salesforce starts processing it.
No more data can be uploaded afterwards.

Examples:
  sfbulk job start 750xx000000001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), opts, args[0])
		},
	}
}

func runStart(ctx context.Context, opts *root.Options, jobID string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	job, err := client.StartJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}

	v := opts.View()
	if v.IsJSON() {
		return v.JSON(job)
	}
	v.Success("Job %s is %s", job.JobID, job.Status)
	return nil
}

func newAbortCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "abort <job-id>",
		Short: "Abort a job",
		Long: `Abort an ingest job that has not finished. Records already processed are not rolled back.

Examples:
  sfbulk job abort 750xx000000001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAbort(cmd.Context(), opts, args[0])
		},
	}
}

func runAbort(ctx context.Context, opts *root.Options, jobID string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	job, err := client.AbortJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to abort job: %w", err)
	}

	v := opts.View()
	if v.IsJSON() {
		return v.JSON(job)
	}
	v.Success("Job %s aborted", job.JobID)
	return nil
}

func newDeleteCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a finished job",
		Long: `Delete an ingest job and its data. The job must be JobComplete, Failed, or Aborted.

Examples:
  sfbulk job delete 750xx000000001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), opts, args[0])
		},
	}
}

func runDelete(ctx context.Context, opts *root.Options, jobID string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	if err := client.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	opts.View().Success("Job %s deleted", jobID)
	return nil
}

// maxParallelCleanups bounds concurrent abort-delete requests.
const maxParallelCleanups = 4

func newAbortDeleteCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "abort-delete <job-id>...",
		Short: "Abort jobs and then delete them",
		Long: `Abort each ingest job, then delete it. A job is not deleted if its abort is rejected.
Several jobs are cleaned up concurrently.

Examples:
  sfbulk job abort-delete 750xx000000001
  sfbulk job abort-delete 750xx000000001 750xx000000002`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAbortDelete(cmd.Context(), opts, args)
		},
	}
}

func runAbortDelete(ctx context.Context, opts *root.Options, jobIDs []string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	done := make([]bool, len(jobIDs))
	p := pool.New().WithMaxGoroutines(maxParallelCleanups).WithErrors()
	for i, jobID := range jobIDs {
		p.Go(func() error {
			if err := client.AbortAndDeleteJob(ctx, jobID); err != nil {
				return fmt.Errorf("job %s: %w", jobID, err)
			}
			done[i] = true
			return nil
		})
	}
	err = p.Wait()

	v := opts.View()
	for i, jobID := range jobIDs {
		if done[i] {
			v.Success("Job %s aborted and deleted", jobID)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to abort and delete job: %w", err)
	}
	return nil
}
