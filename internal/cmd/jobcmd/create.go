package jobcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
)

func newCreateCommand(opts *root.Options) *cobra.Command {
	var flags jobFlags

	cmd := &cobra.Command{
		Use:   "create <object>",
		Short: "Create an ingest job",
		Long: `Create a new Bulk API 2.0 ingest job in the Open state.

Upload data with 'sfbulk job upload', then start processing with 'sfbulk job start'.

Examples:
  sfbulk job create Account --external-id External_Id__c
  sfbulk job create Contact --operation insert --line-ending LF
  sfbulk job create Account --operation delete -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd.Context(), opts, args[0], &flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runCreate(ctx context.Context, opts *root.Options, object string, flags *jobFlags) error {
	jobOpts, err := flags.options()
	if err != nil {
		return err
	}

	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	job, err := client.CreateJob(ctx, object, flags.externalID, jobOpts...)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	v := opts.View()
	if v.IsJSON() {
		return v.JSON(job)
	}
	v.Success("Job %s created for %s (%s)", job.JobID, job.Object, job.Operation)
	return nil
}
