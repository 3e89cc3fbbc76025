// Package api holds the error kinds shared by the sfbulk client packages.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common API error conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized - check your OAuth token")
	ErrForbidden      = errors.New("forbidden - insufficient permissions")
	ErrBadRequest     = errors.New("bad request")
	ErrRateLimited    = errors.New("rate limited - try again later")
	ErrServerError    = errors.New("server error")
	ErrInvalidSession = errors.New("invalid session - token may be expired")
)

// Error kinds surfaced by the client. Every typed error below unwraps to one of these.
var (
	ErrMissingConfigValue   = errors.New("missing configuration value")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRemoteRequestFailed  = errors.New("remote request failed")
	ErrMalformedResponse    = errors.New("malformed response")
)

// MissingConfigError reports a configuration field that was empty or whitespace-only.
type MissingConfigError struct {
	Field string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("no Salesforce %s provided", e.Field)
}

func (e *MissingConfigError) Unwrap() error {
	return ErrMissingConfigValue
}

// AuthError is returned when the OAuth token exchange fails, either with a
// non-2xx status or with a body that lacks the expected fields.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString("authentication failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	case e.Body != "":
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthenticationFailed}
	}
	return []error{ErrAuthenticationFailed, e.Err}
}

// MalformedResponseError is returned when a 2xx body cannot be decoded or
// lacks fields the caller depends on.
type MalformedResponseError struct {
	Operation string
	Body      string
	Err       error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("malformed %s response", e.Operation)
}

func (e *MalformedResponseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedResponse}
	}
	return []error{ErrMalformedResponse, e.Err}
}

// APIError represents a non-2xx Salesforce API response.
// Salesforce returns errors as an array: [{"errorCode": "...", "message": "...", "fields": [...]}]
type APIError struct {
	StatusCode int
	Body       string
	Errors     []SalesforceError
}

// SalesforceError represents a single error from the Salesforce API
type SalesforceError struct {
	ErrorCode string   `json:"errorCode"`
	Message   string   `json:"message"`
	Fields    []string `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msg := err.Message
		if err.ErrorCode != "" {
			msg = fmt.Sprintf("%s: %s", err.ErrorCode, err.Message)
		}
		if len(err.Fields) > 0 {
			msg = fmt.Sprintf("%s (fields: %s)", msg, strings.Join(err.Fields, ", "))
		}
		msgs = append(msgs, msg)
	}
	return fmt.Sprintf("API error: HTTP %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}

// Unwrap returns ErrRemoteRequestFailed plus the sentinel matching the status code.
func (e *APIError) Unwrap() []error {
	errs := []error{ErrRemoteRequestFailed}
	if s := e.statusSentinel(); s != nil {
		errs = append(errs, s)
	}
	return errs
}

func (e *APIError) statusSentinel() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		for _, err := range e.Errors {
			if err.ErrorCode == "INVALID_SESSION_ID" {
				return ErrInvalidSession
			}
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		if e.StatusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// IsNotFound returns true if the error indicates a resource was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error indicates an authentication failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInvalidSession)
}

// IsBadRequest returns true if the error indicates a bad request
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsServerError returns true if the error indicates a server error
func IsServerError(err error) bool {
	return errors.Is(err, ErrServerError)
}

// IsRemoteRequestFailed returns true for any non-2xx job operation response.
func IsRemoteRequestFailed(err error) bool {
	return errors.Is(err, ErrRemoteRequestFailed)
}

// StatusCode extracts the HTTP status from an APIError or AuthError in the chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	return 0
}

// ParseAPIError builds an APIError from a response status and body.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	// Try to parse as Salesforce error array
	var sfErrors []SalesforceError
	if err := json.Unmarshal(body, &sfErrors); err == nil && len(sfErrors) > 0 {
		apiErr.Errors = sfErrors
		return apiErr
	}

	// Try to parse as single error object
	var sfError SalesforceError
	if err := json.Unmarshal(body, &sfError); err == nil && sfError.ErrorCode != "" {
		apiErr.Errors = []SalesforceError{sfError}
		return apiErr
	}

	// Fall back to raw body as message
	if len(body) > 0 {
		apiErr.Errors = []SalesforceError{{Message: string(body)}}
	}

	return apiErr
}
