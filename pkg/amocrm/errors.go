package amocrm

import (
	"errors"
	"fmt"
	"net/http"

	httpclient "github.com/natserract/amocrm/pkg/http"
)

var (
	// ErrInvalidArgument is matched by every *InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnexpectedResponse reports a 2xx response whose body does not have the expected shape.
	ErrUnexpectedResponse = errors.New("unexpected API response")

	// ErrClosed is returned by operations on a closed Session.
	ErrClosed = httpclient.ErrClosed
)

// TransportError reports a request that never got an HTTP response.
type TransportError = httpclient.TransportError

// AuthenticationError is returned when the login / API key exchange is rejected.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// APIError represents an HTTP error status returned by the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// InvalidArgumentError is returned without any network call when an operation is called
// with arguments it cannot send, such as an empty write payload.
type InvalidArgumentError struct {
	Op     string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid argument: %s", e.Op, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// newAPIError extracts the server message from a decoded error body.
func newAPIError(statusCode int, decoded any) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	if root, ok := decoded.(map[string]any); ok {
		apiErr.Message = stringField(root, "message")
		if resp, ok := root["response"].(map[string]any); ok {
			if apiErr.Message == "" {
				apiErr.Message = stringField(resp, "error")
			}
			apiErr.Code = stringField(resp, "error_code")
		}
		if apiErr.Message == "" {
			apiErr.Message = stringField(root, "error")
		}
		if apiErr.Code == "" {
			apiErr.Code = stringField(root, "code")
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// IsAuthError checks if the error is an authentication error.
func IsAuthError(err error) bool {
	var e *AuthenticationError
	return errors.As(err, &e)
}

// IsAPIError checks if the error carries an HTTP error status.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

// IsTransportError checks if the request failed before a response arrived.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNotFound checks if the API answered 404.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}
