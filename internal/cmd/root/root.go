// Package root provides the root command and global options.
package root

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/open-cli-collective/sfbulk/api/auth"
	"github.com/open-cli-collective/sfbulk/api/bulk"
	"github.com/open-cli-collective/sfbulk/internal/config"
	"github.com/open-cli-collective/sfbulk/internal/version"
	"github.com/open-cli-collective/sfbulk/internal/view"
)

// Options contains global options for commands
type Options struct {
	Output     string
	NoColor    bool
	Verbose    bool
	APIVersion string
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer

	// HTTPClient is used for token and API requests; http.DefaultClient when nil
	HTTPClient *http.Client

	logger *zap.Logger
	// testBulkClient is used for testing; if set, BulkClient() returns this instead
	testBulkClient *bulk.Client
}

// View returns a configured View instance
func (o *Options) View() *view.View {
	v := view.NewWithFormat(o.Output, o.NoColor)
	if o.Stdout != nil {
		v.Out = o.Stdout
	}
	if o.Stderr != nil {
		v.Err = o.Stderr
	}
	return v
}

// Logger returns a development logger writing to Stderr when --verbose is
// set, and a no-op logger otherwise.
func (o *Options) Logger() *zap.Logger {
	if o.logger != nil {
		return o.logger
	}
	if !o.Verbose {
		o.logger = zap.NewNop()
		return o.logger
	}

	var w io.Writer = os.Stderr
	if o.Stderr != nil {
		w = o.Stderr
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	o.logger = zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zap.DebugLevel))
	return o.logger
}

// Authenticate loads the stored configuration and exchanges the refresh
// token for API credentials.
func (o *Options) Authenticate(ctx context.Context) (*auth.Credentials, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	conf, err := cfg.Configuration()
	if err != nil {
		return nil, fmt.Errorf("%w - run 'sfbulk init' or set SFBULK_* environment variables", err)
	}

	apiVersion := o.APIVersion
	if apiVersion == "" {
		apiVersion = cfg.APIVersion
	}

	return auth.Authenticate(ctx, conf,
		auth.WithHTTPClient(o.HTTPClient),
		auth.WithAPIVersion(apiVersion),
		auth.WithLogger(o.Logger()))
}

// BulkClient authenticates and returns a Bulk API client.
func (o *Options) BulkClient(ctx context.Context) (*bulk.Client, error) {
	if o.testBulkClient != nil {
		return o.testBulkClient, nil
	}

	creds, err := o.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	return bulk.New(bulk.ClientConfig{
		Credentials: creds,
		HTTPClient:  o.HTTPClient,
		UserAgent:   version.UserAgent(),
		Logger:      o.Logger(),
	})
}

// SetBulkClient sets a test bulk client (for testing only)
func (o *Options) SetBulkClient(client *bulk.Client) {
	o.testBulkClient = client
}

// NewCmd creates the root command and returns the options struct
func NewCmd() (*cobra.Command, *Options) {
	opts := &Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd := &cobra.Command{
		Use:   "sfbulk",
		Short: "A CLI for Salesforce Bulk API 2.0 ingest jobs",
		Long: `sfbulk creates, loads, and manages Salesforce Bulk API 2.0 ingest jobs.

It authenticates with a Connected App refresh token.
Run 'sfbulk init' to set up authentication.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return view.ValidateFormat(opts.Output)
		},
	}

	// Global flags - bound to opts struct
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json, plain")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log requests to stderr")
	cmd.PersistentFlags().StringVar(&opts.APIVersion, "api-version", "", "Salesforce API version (default: "+auth.DefaultAPIVersion+")")

	return cmd, opts
}

// RegisterCommands registers subcommands with the root command
func RegisterCommands(root *cobra.Command, opts *Options, registrars ...func(*cobra.Command, *Options)) {
	for _, register := range registrars {
		register(root, opts)
	}
}
