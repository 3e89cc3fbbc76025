package root

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/sfbulk/api"
	"github.com/open-cli-collective/sfbulk/internal/keychain"
)

// setEnv isolates config loading and points it at baseURL.
func setEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Cleanup(keychain.UseMemoryStore())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, name := range []string{
		"SALESFORCE_BASE_URL", "SALESFORCE_CLIENT_ID", "SALESFORCE_CLIENT_SECRET",
		"SALESFORCE_REFRESH_TOKEN", "SALESFORCE_API_VERSION", "SFBULK_API_VERSION",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("SFBULK_BASE_URL", baseURL)
	t.Setenv("SFBULK_CLIENT_ID", "client-id")
	t.Setenv("SFBULK_CLIENT_SECRET", "client-secret")
	t.Setenv("SFBULK_REFRESH_TOKEN", "refresh-token")
}

func TestNewCmd(t *testing.T) {
	cmd, opts := NewCmd()

	assert.Equal(t, "sfbulk", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Version)

	// Check global flags exist
	assert.NotNil(t, cmd.PersistentFlags().Lookup("output"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("api-version"))

	// Check default values
	assert.Equal(t, "table", opts.Output)
	assert.False(t, opts.NoColor)
	assert.False(t, opts.Verbose)
}

func TestNewCmd_InvalidOutput(t *testing.T) {
	cmd, _ := NewCmd()
	cmd.AddCommand(&cobra.Command{Use: "noop", RunE: func(*cobra.Command, []string) error { return nil }})
	cmd.SetArgs([]string{"noop", "--output", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestOptions_View(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	opts := &Options{
		Output:  "json",
		NoColor: true,
		Stdout:  stdout,
		Stderr:  stderr,
	}

	v := opts.View()
	require.NotNil(t, v)
	assert.True(t, v.IsJSON())

	v.Info("hello")
	assert.Equal(t, "hello\n", stdout.String())
}

func TestOptions_Logger(t *testing.T) {
	t.Run("quiet", func(t *testing.T) {
		stderr := &bytes.Buffer{}
		opts := &Options{Stderr: stderr}

		opts.Logger().Info("hidden")
		assert.Empty(t, stderr.String())
	})

	t.Run("verbose", func(t *testing.T) {
		stderr := &bytes.Buffer{}
		opts := &Options{Verbose: true, Stderr: stderr}

		opts.Logger().Debug("shown")
		assert.Contains(t, stderr.String(), "shown")
		assert.Same(t, opts.Logger(), opts.Logger())
	})
}

func TestOptions_BulkClient(t *testing.T) {
	var tokenCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh-token", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"T","instance_url":"https://i.my.salesforce.com","token_type":"Bearer"}`))
	}))
	defer server.Close()
	setEnv(t, server.URL)

	opts := &Options{HTTPClient: server.Client(), APIVersion: "v60.0"}
	client, err := opts.BulkClient(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "v60.0", client.APIVersion())
	assert.Equal(t, 1, tokenCalls)
}

func TestOptions_BulkClient_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"expired access/refresh token"}`))
	}))
	defer server.Close()
	setEnv(t, server.URL)

	opts := &Options{HTTPClient: server.Client()}
	_, err := opts.BulkClient(context.Background())
	assert.ErrorIs(t, err, api.ErrAuthenticationFailed)
}

func TestOptions_BulkClient_NotConfigured(t *testing.T) {
	setEnv(t, "")

	opts := &Options{}
	_, err := opts.BulkClient(context.Background())
	require.ErrorIs(t, err, api.ErrMissingConfigValue)
	assert.Contains(t, err.Error(), "BaseUrl")
}

func TestOptions_SetBulkClient(t *testing.T) {
	opts := &Options{}
	opts.SetBulkClient(nil)
	assert.Nil(t, opts.testBulkClient)
}

func TestRegisterCommands(t *testing.T) {
	cmd, opts := NewCmd()

	called := false
	registrar := func(parent *cobra.Command, o *Options) {
		called = true
		assert.Same(t, cmd, parent)
		assert.Same(t, opts, o)
	}

	RegisterCommands(cmd, opts, registrar)
	assert.True(t, called)
}

func TestRegisterCommands_Multiple(t *testing.T) {
	cmd, opts := NewCmd()

	callCount := 0
	registrar1 := func(parent *cobra.Command, o *Options) { callCount++ }
	registrar2 := func(parent *cobra.Command, o *Options) { callCount++ }
	registrar3 := func(parent *cobra.Command, o *Options) { callCount++ }

	RegisterCommands(cmd, opts, registrar1, registrar2, registrar3)
	assert.Equal(t, 3, callCount)
}
