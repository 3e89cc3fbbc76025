// Package initcmd provides the init command for connection setup.
package initcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/api/auth"
	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
	"github.com/open-cli-collective/sfbulk/internal/config"
	"github.com/open-cli-collective/sfbulk/internal/keychain"
)

// DefaultBaseURL is offered when nothing is configured yet.
const DefaultBaseURL = "https://login.salesforce.com"

type initFlags struct {
	baseURL      string
	clientID     string
	clientSecret string
	refreshToken string
	noVerify     bool
	noInput      bool
}

// Register registers the init command with the parent command.
func Register(parent *cobra.Command, opts *root.Options) {
	parent.AddCommand(NewCommand(opts))
}

// NewCommand returns the init command.
func NewCommand(opts *root.Options) *cobra.Command {
	var flags initFlags

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up Salesforce authentication",
		Long: `Guided setup for refresh-token authentication against a Connected App.

The client secret and refresh token are saved to the macOS Keychain or
Linux secret-tool when available, otherwise to the sfbulk config file
(readable by you only). The setup is verified by requesting an access token.
Values from environment variables or .env are never saved.

Prerequisites:
  1. Create a Connected App in Salesforce Setup
  2. Enable OAuth Settings with the api and refresh_token scopes
  3. Note the Consumer Key (Client ID) and Consumer Secret
  4. Obtain a refresh token for the integration user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), opts, &flags)
		},
	}

	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Login URL (e.g., https://login.salesforce.com or https://test.salesforce.com)")
	cmd.Flags().StringVar(&flags.clientID, "client-id", "", "Connected App Consumer Key")
	cmd.Flags().StringVar(&flags.clientSecret, "client-secret", "", "Connected App Consumer Secret")
	cmd.Flags().StringVar(&flags.refreshToken, "refresh-token", "", "OAuth refresh token")
	cmd.Flags().BoolVar(&flags.noVerify, "no-verify", false, "Skip token verification after setup")
	cmd.Flags().BoolVar(&flags.noInput, "no-input", false, "Don't prompt; use flags and existing values only")

	return cmd
}

func runInit(ctx context.Context, opts *root.Options, flags *initFlags) error {
	v := opts.View()

	// Environment and .env values are not persisted.
	cfg, err := config.LoadStored()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cfg, flags)

	if !flags.noInput {
		if err := runForm(cfg); err != nil {
			return err
		}
	}
	cfg.Salesforce.BaseURL = normalizeURL(cfg.Salesforce.BaseURL)

	if _, err := cfg.Configuration(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	path, _ := config.GetConfigPath()
	v.Success("Configuration saved to %s", config.ShortenPath(path))
	v.Info("Client secret and refresh token stored in %s", keychain.GetStorageBackend())

	if flags.noVerify {
		return nil
	}

	v.Info("Verifying credentials...")
	creds, err := opts.Authenticate(ctx)
	if err != nil {
		v.Error("Token request failed")
		return err
	}
	v.Success("Authenticated to %s (API %s)", creds.InstanceURL, creds.APIVersion)
	v.Info("\nSetup complete! Try: sfbulk job list")
	return nil
}

// applyFlags overlays non-empty flag values. Priority: flag > existing value.
func applyFlags(cfg *config.Config, flags *initFlags) {
	if flags.baseURL != "" {
		cfg.Salesforce.BaseURL = flags.baseURL
	}
	if flags.clientID != "" {
		cfg.Salesforce.Authentication.ClientID = flags.clientID
	}
	if flags.clientSecret != "" {
		cfg.Salesforce.Authentication.ClientSecret = flags.clientSecret
	}
	if flags.refreshToken != "" {
		cfg.Salesforce.Authentication.RefreshToken = flags.refreshToken
	}
}

func runForm(cfg *config.Config) error {
	if cfg.Salesforce.BaseURL == "" {
		cfg.Salesforce.BaseURL = DefaultBaseURL
	}
	a := &cfg.Salesforce.Authentication

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Login URL").
				Description("Production: https://login.salesforce.com | Sandbox: https://test.salesforce.com").
				Value(&cfg.Salesforce.BaseURL).
				Validate(required(auth.FieldBaseURL)),

			huh.NewInput().
				Title("Client ID").
				Description("Connected App Consumer Key from Setup → App Manager").
				Value(&a.ClientID).
				Validate(required(auth.FieldClientID)),

			huh.NewInput().
				Title("Client Secret").
				Description("Connected App Consumer Secret").
				EchoMode(huh.EchoModePassword).
				Value(&a.ClientSecret).
				Validate(required(auth.FieldClientSecret)),

			huh.NewInput().
				Title("Refresh Token").
				EchoMode(huh.EchoModePassword).
				Value(&a.RefreshToken).
				Validate(required(auth.FieldRefreshToken)),
		),
	)

	return form.Run()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// normalizeURL ensures the URL has an https:// prefix and no trailing slash.
func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return strings.TrimSuffix(url, "/")
}
