// Package auth obtains and caches the bearer token sent to the API server.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Manager is an authentication strategy.
type Manager interface {
	// Login obtains a fresh token and returns a copy of headers carrying it.
	Login(ctx context.Context, headers http.Header) (http.Header, error)
	// Token returns the cached token, or "".
	Token() string
	// Strategy names the strategy.
	Strategy() vnc.AuthStrategy
}

// NoAuth sends requests without a token.
type NoAuth struct{}

// NewNoAuth creates the pass-through strategy.
func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

// Login returns headers unchanged.
func (NoAuth) Login(_ context.Context, headers http.Header) (http.Header, error) {
	return headers, nil
}

// Token always returns "".
func (NoAuth) Token() string {
	return ""
}

// Strategy returns vnc.AuthNone.
func (NoAuth) Strategy() vnc.AuthStrategy {
	return vnc.AuthNone
}

// restyLogger adapts vnc.Logger to resty.Logger.
type restyLogger struct {
	log vnc.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...), nil)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...), nil)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), nil)
}
