package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/sfbulk/api"
)

func fullBuilder() *Builder {
	return NewBuilder().
		WithBaseURL("https://login.salesforce.com").
		WithClientID("client-id").
		WithClientSecret("client-secret").
		WithRefreshToken("refresh-token")
}

func TestBuild(t *testing.T) {
	cfg, err := fullBuilder().Build()
	require.NoError(t, err)

	assert.Equal(t, "https://login.salesforce.com", cfg.BaseURL())
	assert.Equal(t, "client-id", cfg.ClientID())
	assert.Equal(t, "client-secret", cfg.ClientSecret())
	assert.Equal(t, "refresh-token", cfg.RefreshToken())
	assert.Equal(t, "https://login.salesforce.com/services/oauth2/token", cfg.LoginURL())
}

func TestBuild_MissingField(t *testing.T) {
	tests := []struct {
		field string
		blank func(*Builder, string) *Builder
	}{
		{FieldBaseURL, (*Builder).WithBaseURL},
		{FieldClientID, (*Builder).WithClientID},
		{FieldClientSecret, (*Builder).WithClientSecret},
		{FieldRefreshToken, (*Builder).WithRefreshToken},
	}

	for _, tt := range tests {
		for _, value := range []string{"", "   ", "\t\n"} {
			t.Run(tt.field+"/"+strings.ReplaceAll(value, "\n", `\n`), func(t *testing.T) {
				_, err := tt.blank(fullBuilder(), value).Build()
				require.Error(t, err)
				assert.ErrorIs(t, err, api.ErrMissingConfigValue)

				var mc *api.MissingConfigError
				require.True(t, errors.As(err, &mc))
				assert.Equal(t, tt.field, mc.Field)
			})
		}
	}
}

func TestBuild_EmptyBuilderReportsBaseURLFirst(t *testing.T) {
	_, err := NewBuilder().Build()

	var mc *api.MissingConfigError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, FieldBaseURL, mc.Field)
}

func TestLoginURL_TrimsTrailingSlash(t *testing.T) {
	cfg, err := NewConfiguration("https://test.salesforce.com/", "id", "secret", "token")
	require.NoError(t, err)

	assert.Equal(t, "https://test.salesforce.com/services/oauth2/token", cfg.LoginURL())
}

func TestWithSource_Viper(t *testing.T) {
	v := viper.New()
	v.Set("salesforce.baseUrl", "https://mycompany.my.salesforce.com")
	v.Set("salesforce.authentication.clientId", "viper-id")
	v.Set("salesforce.authentication.clientSecret", "viper-secret")
	v.Set("salesforce.authentication.refreshToken", "viper-token")

	cfg, err := NewBuilder().WithSource(v, DefaultKeys()).Build()
	require.NoError(t, err)

	assert.Equal(t, "https://mycompany.my.salesforce.com", cfg.BaseURL())
	assert.Equal(t, "viper-id", cfg.ClientID())
	assert.Equal(t, "viper-secret", cfg.ClientSecret())
	assert.Equal(t, "viper-token", cfg.RefreshToken())
}

func TestWithSource_MissingKey(t *testing.T) {
	v := viper.New()
	v.Set("salesforce.baseUrl", "https://login.salesforce.com")
	v.Set("salesforce.authentication.clientId", "viper-id")
	v.Set("salesforce.authentication.refreshToken", "viper-token")

	_, err := NewBuilder().WithSource(v, DefaultKeys()).Build()

	var mc *api.MissingConfigError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, FieldClientSecret, mc.Field)
}

type mapSource map[string]string

func (m mapSource) GetString(key string) string { return m[key] }

func TestWithSource_CustomKeysAndOverride(t *testing.T) {
	src := mapSource{
		"SF_URL":    "https://login.salesforce.com",
		"SF_ID":     "id",
		"SF_SECRET": "secret",
	}

	cfg, err := NewBuilder().
		WithRefreshToken("injected-token").
		WithSource(src, Keys{BaseURL: "SF_URL", ClientID: "SF_ID", ClientSecret: "SF_SECRET"}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "injected-token", cfg.RefreshToken())
	assert.Equal(t, "secret", cfg.ClientSecret())
}
