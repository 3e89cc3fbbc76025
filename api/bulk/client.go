package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/open-cli-collective/sfbulk/api"
	"github.com/open-cli-collective/sfbulk/api/auth"
)

// Validation errors
var (
	ErrCredentialsRequired = errors.New("credentials are required")
	ErrAccessTokenRequired = errors.New("access token is required")
	ErrInstanceURLRequired = errors.New("instance URL is required")
	ErrJobIDRequired       = errors.New("job ID is required")
	ErrObjectRequired      = errors.New("object is required")
)

// Client is a Salesforce Bulk API 2.0 ingest client. It is bound to one set
// of credentials for its lifetime and never re-authenticates.
type Client struct {
	httpClient  *http.Client
	credentials auth.Credentials
	baseURL     string
	defaults    JobDefaults
	userAgent   string
	logger      *zap.Logger
}

// ClientConfig contains configuration for creating a new Bulk API client.
type ClientConfig struct {
	// Credentials from auth.Authenticate
	Credentials *auth.Credentials

	// HTTPClient is optional; requests use a plain http.Client when nil
	HTTPClient *http.Client

	// Defaults applied by CreateJob; DefaultJobDefaults when nil
	Defaults *JobDefaults

	// UserAgent is sent with every request when set
	UserAgent string

	Logger *zap.Logger
}

// New creates a new Bulk API client.
func New(cfg ClientConfig) (*Client, error) {
	if cfg.Credentials == nil {
		return nil, ErrCredentialsRequired
	}
	if cfg.Credentials.AccessToken == "" {
		return nil, ErrAccessTokenRequired
	}
	if cfg.Credentials.InstanceURL == "" {
		return nil, ErrInstanceURLRequired
	}

	creds := *cfg.Credentials
	creds.InstanceURL = strings.TrimSuffix(creds.InstanceURL, "/")
	if creds.APIVersion == "" {
		creds.APIVersion = auth.DefaultAPIVersion
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	defaults := DefaultJobDefaults()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient:  httpClient,
		credentials: creds,
		baseURL:     fmt.Sprintf("%s/services/data/%s", creds.InstanceURL, creds.APIVersion),
		defaults:    defaults,
		userAgent:   cfg.UserAgent,
		logger:      logger,
	}, nil
}

// Defaults returns the create-time settings this client applies.
func (c *Client) Defaults() JobDefaults {
	return c.defaults
}

// APIVersion returns the version the client routes requests to.
func (c *Client) APIVersion() string {
	return c.credentials.APIVersion
}

// doRequest performs an HTTP request and returns the response body.
// []byte and string bodies are sent as text/csv, anything else as JSON.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	contentType := "application/json"

	if body != nil {
		switch v := body.(type) {
		case string:
			bodyReader = strings.NewReader(v)
			contentType = "text/csv"
		case []byte:
			bodyReader = bytes.NewReader(v)
			contentType = "text/csv"
		default:
			jsonBody, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewReader(jsonBody)
		}
	}

	return c.send(ctx, method, path, bodyReader, contentType, "application/json")
}

// doCSVRequest performs an HTTP request expecting CSV response.
func (c *Client) doCSVRequest(ctx context.Context, method, path string) ([]byte, error) {
	return c.send(ctx, method, path, nil, "", "text/csv")
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType, accept string) ([]byte, error) {
	fullURL := path
	if !strings.HasPrefix(path, "http") {
		fullURL = c.baseURL + path
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.credentials.AccessToken)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Making bulk API request",
		zap.String("method", method),
		zap.String("url", fullURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Bulk API request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.String("response", string(respBody)))
		return nil, api.ParseAPIError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// decodeStatus parses a JobStatus and rejects bodies without id or state.
func decodeStatus(operation string, body []byte) (*JobStatus, error) {
	var status JobStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &api.MalformedResponseError{Operation: operation, Body: string(body), Err: err}
	}
	if status.JobID == "" {
		return nil, &api.MalformedResponseError{Operation: operation, Body: string(body), Err: errors.New("missing id")}
	}
	if status.Status == "" {
		return nil, &api.MalformedResponseError{Operation: operation, Body: string(body), Err: errors.New("missing state")}
	}
	return &status, nil
}
