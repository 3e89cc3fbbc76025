// Package auth builds the Salesforce connection configuration and exchanges
// a refresh token for short-lived API credentials.
package auth

import (
	"strings"

	"github.com/open-cli-collective/sfbulk/api"
)

// TokenPath is the OAuth token endpoint path appended to the login base URL.
const TokenPath = "/services/oauth2/token"

// Field names reported by MissingConfigError.
const (
	FieldBaseURL      = "BaseUrl"
	FieldClientID     = "ClientId"
	FieldClientSecret = "ClientSecret"
	FieldRefreshToken = "RefreshToken"
)

// Configuration holds the values needed to authenticate. Build one with Builder.
type Configuration struct {
	baseURL      string
	clientID     string
	clientSecret string
	refreshToken string
}

// NewConfiguration validates the four values and returns a Configuration.
func NewConfiguration(baseURL, clientID, clientSecret, refreshToken string) (Configuration, error) {
	return NewBuilder().
		WithBaseURL(baseURL).
		WithClientID(clientID).
		WithClientSecret(clientSecret).
		WithRefreshToken(refreshToken).
		Build()
}

// BaseURL returns the login host, e.g. https://login.salesforce.com.
func (c Configuration) BaseURL() string { return c.baseURL }

// ClientID returns the Connected App consumer key.
func (c Configuration) ClientID() string { return c.clientID }

// ClientSecret returns the Connected App consumer secret.
func (c Configuration) ClientSecret() string { return c.clientSecret }

// RefreshToken returns the OAuth refresh token exchanged for access tokens.
func (c Configuration) RefreshToken() string { return c.refreshToken }

// LoginURL returns the OAuth token endpoint derived from the base URL.
func (c Configuration) LoginURL() string {
	return strings.TrimSuffix(c.baseURL, "/") + TokenPath
}

// Source looks up configuration values by key. *viper.Viper satisfies it.
type Source interface {
	GetString(key string) string
}

// Keys names the Source keys the Builder reads.
type Keys struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// DefaultKeys returns the key layout used by sfbulk config files:
//
//	salesforce:
//	  baseUrl: ...
//	  authentication:
//	    clientId: ...
//	    clientSecret: ...
//	    refreshToken: ...
func DefaultKeys() Keys {
	return Keys{
		BaseURL:      "salesforce.baseUrl",
		ClientID:     "salesforce.authentication.clientId",
		ClientSecret: "salesforce.authentication.clientSecret",
		RefreshToken: "salesforce.authentication.refreshToken",
	}
}

// Builder collects configuration values before validation.
type Builder struct {
	baseURL      string
	clientID     string
	clientSecret string
	refreshToken string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSource reads the four values from src. A blank key name leaves the
// corresponding value untouched.
func (b *Builder) WithSource(src Source, keys Keys) *Builder {
	if keys.BaseURL != "" {
		b.baseURL = src.GetString(keys.BaseURL)
	}
	if keys.ClientID != "" {
		b.clientID = src.GetString(keys.ClientID)
	}
	if keys.ClientSecret != "" {
		b.clientSecret = src.GetString(keys.ClientSecret)
	}
	if keys.RefreshToken != "" {
		b.refreshToken = src.GetString(keys.RefreshToken)
	}
	return b
}

// WithBaseURL sets the login host.
func (b *Builder) WithBaseURL(v string) *Builder {
	b.baseURL = v
	return b
}

// WithClientID sets the Connected App consumer key.
func (b *Builder) WithClientID(v string) *Builder {
	b.clientID = v
	return b
}

// WithClientSecret sets the Connected App consumer secret.
func (b *Builder) WithClientSecret(v string) *Builder {
	b.clientSecret = v
	return b
}

// WithRefreshToken sets the OAuth refresh token.
func (b *Builder) WithRefreshToken(v string) *Builder {
	b.refreshToken = v
	return b
}

// Build returns the Configuration, or a *api.MissingConfigError naming the
// first field that is empty or whitespace-only.
func (b *Builder) Build() (Configuration, error) {
	fields := []struct {
		name  string
		value string
	}{
		{FieldBaseURL, b.baseURL},
		{FieldClientID, b.clientID},
		{FieldClientSecret, b.clientSecret},
		{FieldRefreshToken, b.refreshToken},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return Configuration{}, &api.MissingConfigError{Field: f.name}
		}
	}

	return Configuration{
		baseURL:      strings.TrimSpace(b.baseURL),
		clientID:     strings.TrimSpace(b.clientID),
		clientSecret: strings.TrimSpace(b.clientSecret),
		refreshToken: strings.TrimSpace(b.refreshToken),
	}, nil
}
