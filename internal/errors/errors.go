package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the DocuSign MCP server
var (
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// Session errors
	ErrCredentialLoad = errors.New("credential load error")
	ErrAuthentication = errors.New("authentication error")
	ErrDiscovery      = errors.New("discovery error")

	// Remote API errors
	ErrRemoteAPI = errors.New("remote api error")

	// Tool argument errors
	ErrInvalidArgument = errors.New("invalid argument")
)

// ConsentHint is appended to token exchange failures, the most common cause
// being a missing admin or individual consent grant.
const ConsentHint = "Ensure admin consent is granted for the integration key."

// APIError describes a non-2xx response from the eSignature REST API.
type APIError struct {
	StatusCode int    // HTTP status code
	ErrorCode  string // DocuSign errorCode, e.g. ENVELOPE_DOES_NOT_EXIST
	Message    string // DocuSign message
	Operation  string // Operation that failed, e.g. "get envelope"
}

func (e *APIError) Error() string {
	status := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	switch {
	case e.ErrorCode != "" && e.Message != "":
		return fmt.Sprintf("%s failed (%s): %s: %s", e.Operation, status, e.ErrorCode, e.Message)
	case e.ErrorCode != "":
		return fmt.Sprintf("%s failed (%s): %s", e.Operation, status, e.ErrorCode)
	case e.Message != "":
		return fmt.Sprintf("%s failed (%s): %s", e.Operation, status, e.Message)
	}
	return fmt.Sprintf("%s failed (%s)", e.Operation, status)
}

func (e *APIError) Unwrap() error {
	return ErrRemoteAPI
}

// IsUnauthorized reports whether the remote rejected the bearer token.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
