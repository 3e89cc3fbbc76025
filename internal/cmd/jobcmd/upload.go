package jobcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
)

func newUploadCommand(opts *root.Options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "upload <job-id>",
		Short: "Upload CSV data to an open job",
		Long: `Upload a CSV batch to an Open ingest job.

The file is sent as-is. Its header row must name fields of the job's object, and
its line endings and delimiter must match the ones the job was created with.
Pass --file - to read from stdin.

Examples:
  sfbulk job upload 750xx000000001 --file accounts.csv
  cat accounts.csv | sfbulk job upload 750xx000000001 --file -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), opts, args[0], file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to CSV file, or - for stdin (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runUpload(ctx context.Context, opts *root.Options, jobID, file string) error {
	data, err := readData(opts, file)
	if err != nil {
		return err
	}

	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	if err := client.UploadBatch(ctx, jobID, data); err != nil {
		return fmt.Errorf("failed to upload data: %w", err)
	}

	opts.View().Success("Uploaded %d bytes to job %s", len(data), jobID)
	return nil
}
