package vnc

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy. Every failure returned by the client matches exactly one
// of these sentinels with errors.Is.
var (
	ErrConnectionFailure     = errors.New("connection failure")
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrNotFound              = errors.New("resource not found")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrOverQuota             = errors.New("over quota")
	ErrRefsExist             = errors.New("conflicting reference exists")
	ErrRequestTooLarge       = errors.New("request too large")
	ErrBadRequest            = errors.New("bad request")
	ErrGatewayTimeout        = errors.New("gateway timeout")
	ErrServiceUnavailable    = errors.New("service unavailable")
	ErrHTTP                  = errors.New("unknown HTTP error")
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrUnresolvableAction  = errors.New("action not advertised by API server")
	ErrUnresolvableType    = errors.New("resource type not advertised by API server")
	ErrResourceTypeUnknown = errors.New("unknown resource type")
	ErrNoRootURL           = errors.New("unable to retrieve the API server root URL")
)

// HTTPError is returned for every non-success status the server answers with.
type HTTPError struct {
	// Kind is the taxonomy sentinel the status maps to.
	Kind       error
	StatusCode int
	Method     string
	URL        string
	Payload    string
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Kind == ErrNotFound {
		return fmt.Sprintf("%v: oper %s url %s body %s response %s", e.Kind, e.Method, e.URL, e.Payload, e.Body)
	}

	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Body)
}

// Unwrap returns the taxonomy sentinel.
func (e *HTTPError) Unwrap() error {
	return e.Kind
}

// KindForStatus maps a non-success HTTP status to its taxonomy sentinel.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrAuthenticationFailure
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusPreconditionFailed:
		return ErrOverQuota
	case http.StatusConflict:
		return ErrRefsExist
	case http.StatusRequestEntityTooLarge:
		return ErrRequestTooLarge
	case http.StatusGatewayTimeout:
		return ErrGatewayTimeout
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		return ErrHTTP
	}
}

// NewHTTPError builds an HTTPError for the given exchange.
func NewHTTPError(status int, method, url, payload, body string) *HTTPError {
	return &HTTPError{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Method:     method,
		URL:        url,
		Payload:    payload,
		Body:       body,
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrAuthenticationFailure)
}

// IsForbidden checks if the error is a permission denied error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsServiceUnavailable checks if the error is a retried-out 502/503.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsConnectionFailure checks if the error is a transport-level failure.
func IsConnectionFailure(err error) bool {
	return errors.Is(err, ErrConnectionFailure)
}
