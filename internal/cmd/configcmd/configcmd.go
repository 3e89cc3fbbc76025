// Package configcmd provides the config command and subcommands.
package configcmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
	"github.com/open-cli-collective/sfbulk/internal/config"
	"github.com/open-cli-collective/sfbulk/internal/keychain"
	"github.com/open-cli-collective/sfbulk/internal/view"
)

const notConfigured = "Not configured"

// Register registers the config command with the parent command.
func Register(parent *cobra.Command, opts *root.Options) {
	parent.AddCommand(NewCommand(opts))
}

// NewCommand returns the config command with subcommands.
func NewCommand(opts *root.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View, test, and manage sfbulk configuration.",
	}

	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newTestCommand(opts))
	cmd.AddCommand(newClearCommand(opts))

	return cmd
}

func newShowCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration after applying environment variables.
Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts)
		},
	}
}

func newTestCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Verify authentication works",
		Long:  "Request an access token with the configured refresh token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts)
		},
	}
}

func newClearCommand(opts *root.Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored credentials",
		Long:  "Remove the config file and any secrets in the Keychain or secret-tool. Environment variables are not affected.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runShow(opts *root.Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		configPath = "(unable to determine)"
	}

	a := cfg.Salesforce.Authentication
	configured := config.IsConfigured()
	storage := string(keychain.GetStorageBackend())

	v := opts.View()
	if v.IsJSON() {
		return v.JSON(map[string]any{
			"configured":    configured,
			"baseUrl":       cfg.Salesforce.BaseURL,
			"clientId":      maskSecret(a.ClientID),
			"clientSecret":  maskSecret(a.ClientSecret),
			"refreshToken":  maskSecret(a.RefreshToken),
			"apiVersion":    cfg.APIVersion,
			"configFile":    config.ShortenPath(configPath),
			"secretStorage": storage,
		})
	}

	err = v.Details([]view.Field{
		{Label: "Base URL", Value: orNotConfigured(cfg.Salesforce.BaseURL)},
		{Label: "Client ID", Value: orNotConfigured(maskSecret(a.ClientID))},
		{Label: "Client Secret", Value: orNotConfigured(maskSecret(a.ClientSecret))},
		{Label: "Refresh Token", Value: orNotConfigured(maskSecret(a.RefreshToken))},
		{Label: "API Version", Value: cfg.APIVersion},
		{Label: "Config file", Value: config.ShortenPath(configPath)},
		{Label: "Secrets stored in", Value: storage},
	})
	if err != nil {
		return err
	}

	if !configured {
		v.Warning("Configuration is incomplete. Run 'sfbulk init' to set it up.")
	}
	return nil
}

func runTest(ctx context.Context, opts *root.Options) error {
	v := opts.View()
	v.Info("Testing Salesforce connection...")

	creds, err := opts.Authenticate(ctx)
	if err != nil {
		v.Error("Authentication failed")
		return err
	}

	v.Success("Authenticated")
	return v.Details([]view.Field{
		{Label: "Instance URL", Value: creds.InstanceURL},
		{Label: "API Version", Value: creds.APIVersion},
	})
}

func runClear(opts *root.Options, force bool) error {
	v := opts.View()

	if !force {
		var confirmed bool
		err := huh.NewConfirm().
			Title("This will remove all stored credentials. Continue?").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			v.Info("Cancelled.")
			return nil
		}
	}

	if err := config.Clear(); err != nil {
		return fmt.Errorf("failed to clear config: %w", err)
	}

	v.Success("Configuration cleared. Run 'sfbulk init' to reconfigure.")
	return nil
}

// maskSecret masks a value for display, showing only first and last 4 chars.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func orNotConfigured(s string) string {
	if s == "" {
		return notConfigured
	}
	return s
}
