package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/open-cli-collective/sfbulk/api"
)

// DefaultAPIVersion is used when the token response does not name a version.
const DefaultAPIVersion = "v62.0"

// Credentials are the result of one successful token exchange. They are never
// refreshed; callers authenticate again when a request fails with 401.
type Credentials struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	APIVersion  string `json:"api_version"`
}

type options struct {
	httpClient *http.Client
	apiVersion string
	logger     *zap.Logger
}

// Option configures Authenticate.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for the token request.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithAPIVersion sets the version used when the server does not supply one.
func WithAPIVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.apiVersion = v
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// OAuthConfig returns the oauth2 configuration for a refresh-token grant
// against cfg.LoginURL. Client credentials are sent as form parameters.
func OAuthConfig(cfg Configuration) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID(),
		ClientSecret: cfg.ClientSecret(),
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.LoginURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Authenticate performs a single refresh_token grant POST and returns the
// resulting credentials. Failures are returned as *api.AuthError.
func Authenticate(ctx context.Context, cfg Configuration, opts ...Option) (*Credentials, error) {
	o := options{
		apiVersion: DefaultAPIVersion,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	o.logger.Debug("Requesting access token", zap.String("url", cfg.LoginURL()))

	src := OAuthConfig(cfg).TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken()})
	tok, err := src.Token()
	if err != nil {
		authErr := toAuthError(err)
		o.logger.Error("Token request failed",
			zap.Int("status_code", authErr.StatusCode),
			zap.Error(err))
		return nil, authErr
	}

	instanceURL := extraString(tok, "instance_url")
	if instanceURL == "" {
		return nil, &api.AuthError{Err: errors.New("token response missing instance_url")}
	}

	apiVersion := extraString(tok, "api_version")
	if apiVersion == "" {
		apiVersion = o.apiVersion
	}
	if !strings.HasPrefix(apiVersion, "v") {
		apiVersion = "v" + apiVersion
	}

	o.logger.Info("Authenticated",
		zap.String("instance_url", instanceURL),
		zap.String("api_version", apiVersion))

	return &Credentials{
		AccessToken: tok.AccessToken,
		InstanceURL: strings.TrimSuffix(instanceURL, "/"),
		APIVersion:  apiVersion,
	}, nil
}

func toAuthError(err error) *api.AuthError {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		authErr := &api.AuthError{Body: string(re.Body), Err: err}
		if re.Response != nil {
			authErr.StatusCode = re.Response.StatusCode
		}
		return authErr
	}
	return &api.AuthError{Err: fmt.Errorf("token request: %w", err)}
}

// extraString reads a string field from the raw token response. Numeric
// versions such as 59.0 are rendered with one decimal place.
func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.1f", v)
	default:
		return ""
	}
}
