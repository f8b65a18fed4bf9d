package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/internal/session"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// attemptState tracks whether the call has already re-authenticated.
type attemptState int

const (
	firstAttempt attemptState = iota
	postReauth
)

// Do implements vnc.Client.Do.
func (c *Client) Do(ctx context.Context, req *vnc.Request) (*vnc.Response, error) {
	err := c.cfg.Interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request interceptor: %w", err)
	}

	resp, err := c.do(ctx, req)

	observed := resp
	if observed == nil {
		observed = &vnc.Response{}
	}

	observed.Error = err

	ierr := c.cfg.Interceptors.ExecuteResponseInterceptors(ctx, req, observed)
	if err != nil {
		return nil, err
	}

	if ierr != nil {
		return nil, fmt.Errorf("response interceptor: %w", ierr)
	}

	return resp, nil
}

// requestServer is the guarded entry used by resource and action calls: the
// discovery document must have been fetched at least once.
func (c *Client) requestServer(ctx context.Context, req *vnc.Request) (*vnc.Response, error) {
	err := c.resolver.EnsureLoaded(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading discovery document: %w", err)
	}

	if c.resolver.Table().RootURL() == "" {
		return nil, vnc.ErrNoRootURL
	}

	return c.Do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *vnc.Request) (*vnc.Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	url := c.endpoint + req.URI
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	budget := req.RetryBudget
	if budget <= 0 {
		budget = c.cfg.RetryBudget
	}

	req = detachUserToken(req)

	state := firstAttempt
	if req.UserToken != "" {
		state = postReauth
	}

	retried := 0

	for {
		headers := c.composeHeaders(req)

		sresp, err := c.dispatch(ctx, &session.Request{
			Method: req.Method,
			URL:    url,
			Header: headers,
			Body:   body,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s %s: %w", req.Method, req.URI, ctx.Err())
			}

			if req.NoRetry || budget <= 0 {
				c.metrics.ObserveRequest(req.Method, 0)

				return nil, err
			}

			c.logger.Warn("API server connection failed, retrying", map[string]interface{}{
				"method": req.Method,
				"uri":    req.URI,
				"budget": budget,
				"error":  err.Error(),
			})
			c.metrics.ObserveRetry("connection")

			err = c.sleep(ctx)
			if err != nil {
				return nil, err
			}

			c.pool.Reset()
			budget--

			continue
		}

		switch sresp.StatusCode {
		case http.StatusOK, http.StatusAccepted:
			c.metrics.ObserveRequest(req.Method, sresp.StatusCode)

			return c.success(req, sresp)

		case http.StatusUnauthorized:
			if state == firstAttempt && !c.tokenIsFixed() {
				err = c.reauthenticate(ctx)
				if err != nil {
					return nil, err
				}

				state = postReauth
				retried = 0

				continue
			}

		case http.StatusBadGateway, http.StatusServiceUnavailable:
			if req.NoRetry {
				break
			}

			retried++
			if retried >= budget {
				break
			}

			c.logger.Warn("API server unavailable, retrying", map[string]interface{}{
				"method":  req.Method,
				"uri":     req.URI,
				"status":  sresp.StatusCode,
				"retried": retried,
			})
			c.metrics.ObserveRetry(fmt.Sprintf("status_%d", sresp.StatusCode))

			err = c.sleep(ctx)
			if err != nil {
				return nil, err
			}

			continue
		}

		c.metrics.ObserveRequest(req.Method, sresp.StatusCode)

		return nil, vnc.NewHTTPError(sresp.StatusCode, req.Method, url, string(body), string(sresp.Body))
	}
}

// composeHeaders builds the header set of one attempt. A per-call user token
// replaces the service token.
func (c *Client) composeHeaders(req *vnc.Request) http.Header {
	headers := c.headerSnapshot()

	for k, values := range req.Headers {
		headers.Del(k)

		for _, v := range values {
			headers.Add(k, v)
		}
	}

	if req.UserToken != "" {
		headers.Set(constants.HeaderAuthToken, req.UserToken)
	}

	return headers
}

// detachUserToken returns a copy of req with canonical header keys and a
// forwarded X-USER-TOKEN header moved into UserToken. The caller's request is
// left untouched so the token cannot outlive the call.
func detachUserToken(req *vnc.Request) *vnc.Request {
	call := *req
	call.Headers = make(http.Header, len(req.Headers))

	for k, values := range req.Headers {
		for _, v := range values {
			call.Headers.Add(k, v)
		}
	}

	if call.UserToken == "" {
		call.UserToken = call.Headers.Get(constants.HeaderUserToken)
	}

	call.Headers.Del(constants.HeaderUserToken)

	return &call
}

func (c *Client) dispatch(ctx context.Context, req *session.Request) (*session.Response, error) {
	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	resp, err := c.pool.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("dispatching request: %w", err)
	}

	return resp, nil
}

func (c *Client) reauthenticate(ctx context.Context) error {
	c.logger.Info("API server rejected token, re-authenticating", map[string]interface{}{
		"strategy": string(c.auth.Strategy()),
	})

	headers, err := c.auth.Login(ctx, c.headerSnapshot())
	if err != nil {
		return fmt.Errorf("re-authenticating: %w", err)
	}

	c.setHeaders(headers)
	c.metrics.Reauths.Inc()

	return nil
}

func (c *Client) success(req *vnc.Request, sresp *session.Response) (*vnc.Response, error) {
	resp := &vnc.Response{
		StatusCode: sresp.StatusCode,
		Header:     sresp.Header,
		Body:       sresp.Body,
	}

	if req.Method == http.MethodGet && sresp.StatusCode == http.StatusOK && len(sresp.Body) > 0 {
		err := json.Unmarshal(sresp.Body, &resp.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", req.URI, err)
		}
	}

	return resp, nil
}

func (c *Client) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.cfg.BackoffUnit)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backing off: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		return data, nil
	}
}

// isStatus reports whether err carries the given HTTP status.
func isStatus(err error, status int) bool {
	httpErr := &vnc.HTTPError{}

	return errors.As(err, &httpErr) && httpErr.StatusCode == status
}
