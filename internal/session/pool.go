// Package session owns the per-host connection contexts and the active-host
// failover logic.
package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

const noActive = -1

// Request is one attempt against a pool host.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a completed exchange. Any status code is a completed exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Host is the pool host that answered.
	Host string
}

// RequestLogger records each attempt and its response.
type RequestLogger interface {
	LogRequest(method, url string, header http.Header, body []byte)
	LogResponse(status int, header http.Header, body []byte)
}

type host struct {
	name      string
	transport *http.Transport
	client    *retryablehttp.Client
}

// Pool is an ordered, immutable set of hosts plus the active-host pointer.
type Pool struct {
	mu     sync.Mutex
	hosts  []*host
	active int

	loadBalance bool
	reqLogger   RequestLogger
	logger      vnc.Logger
	onFailover  func(from, to string)
}

type options struct {
	tlsConfig        *tls.Config
	maxPools         int
	maxConnsPerPool  int
	timeout          time.Duration
	transportRetries int
	loadBalance      bool
	reqLogger        RequestLogger
	logger           vnc.Logger
	onFailover       func(from, to string)
}

// Option configures a Pool.
type Option func(*options)

// WithTLSConfig sets the TLS context shared by every host.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) { o.tlsConfig = cfg }
}

// WithPoolSizing bounds idle connections overall and per host.
func WithPoolSizing(maxPools, maxConnsPerPool int) Option {
	return func(o *options) {
		if maxPools > 0 {
			o.maxPools = maxPools
		}

		if maxConnsPerPool > 0 {
			o.maxConnsPerPool = maxConnsPerPool
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTransportRetries retries transport errors on the same host n times
// before the host is considered failed.
func WithTransportRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.transportRetries = n
		}
	}
}

// WithLoadBalance rotates the active host before every dispatch.
func WithLoadBalance(enabled bool) Option {
	return func(o *options) { o.loadBalance = enabled }
}

// WithRequestLogger records every attempt.
func WithRequestLogger(l RequestLogger) Option {
	return func(o *options) { o.reqLogger = l }
}

// WithLogger sets the structured logger.
func WithLogger(l vnc.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFailoverHook is called whenever a sweep adopts a different host.
func WithFailoverHook(fn func(from, to string)) Option {
	return func(o *options) { o.onFailover = fn }
}

// New creates one persistent connection context per host.
func New(hosts []string, opts ...Option) (*Pool, error) {
	if len(hosts) == 0 {
		return nil, constants.ErrNoHosts
	}

	o := &options{
		maxPools:         constants.DefaultMaxPools,
		maxConnsPerPool:  constants.DefaultMaxConnsPerPool,
		timeout:          constants.DefaultHTTPTimeout,
		transportRetries: constants.DefaultTransportRetries,
		logger:           vnc.NopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}

	p := &Pool{
		hosts:       make([]*host, 0, len(hosts)),
		active:      noActive,
		loadBalance: o.loadBalance,
		reqLogger:   o.reqLogger,
		logger:      o.logger,
		onFailover:  o.onFailover,
	}

	for _, name := range hosts {
		p.hosts = append(p.hosts, newHost(name, o))
	}

	return p, nil
}

func newHost(name string, o *options) *host {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     o.tlsConfig,
		MaxIdleConns:        o.maxPools,
		MaxIdleConnsPerHost: o.maxConnsPerPool,
		IdleConnTimeout:     90 * time.Second,
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   o.timeout,
	}
	rc.RetryMax = o.transportRetries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.Logger = leveledLogger{log: o.logger}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		// Status codes belong to the request orchestrator.
		return err != nil, nil
	}

	return &host{name: name, transport: transport, client: rc}
}

// Hosts returns the configured host list.
func (p *Pool) Hosts() []string {
	out := make([]string, len(p.hosts))
	for i, h := range p.hosts {
		out[i] = h.name
	}

	return out
}

// Active returns the active host, or "" when none is cached.
func (p *Pool) Active() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == noActive {
		return ""
	}

	return p.hosts[p.active].name
}

// RoundRobin advances the active pointer to the next host in list order,
// starting from the first host when none is active.
func (p *Pool) RoundRobin() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.roundRobinLocked()
}

func (p *Pool) roundRobinLocked() string {
	next := p.active + 1
	if next >= len(p.hosts) {
		next = 0
	}

	p.active = next

	return p.hosts[next].name
}

// Do sends req to the active host, sweeping every host in order when it
// fails at the transport level. The first host that answers becomes active.
func (p *Pool) Do(ctx context.Context, req *Request) (*Response, error) {
	p.mu.Lock()
	if p.loadBalance {
		p.roundRobinLocked()
	}
	active := p.active
	p.mu.Unlock()

	if active != noActive {
		resp, err := p.send(ctx, p.hosts[active], req)
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("sending request: %w", ctx.Err())
		}

		p.logger.Warn("active API server unreachable", map[string]interface{}{
			"host":  p.hosts[active].name,
			"error": err.Error(),
		})

		p.mu.Lock()
		if p.active == active {
			p.active = noActive
		}
		p.mu.Unlock()
	}

	var lastErr error

	for i, h := range p.hosts {
		resp, err := p.send(ctx, h, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("sending request: %w", ctx.Err())
			}

			lastErr = err

			continue
		}

		p.adopt(active, i)

		return resp, nil
	}

	return nil, fmt.Errorf("%w: all %d API servers failed: %w", vnc.ErrConnectionFailure, len(p.hosts), lastErr)
}

func (p *Pool) adopt(previous, next int) {
	p.mu.Lock()
	p.active = next
	p.mu.Unlock()

	if previous == next {
		return
	}

	from := ""
	if previous != noActive {
		from = p.hosts[previous].name
	}

	p.logger.Info("adopted API server", map[string]interface{}{
		"from": from,
		"to":   p.hosts[next].name,
	})

	if p.onFailover != nil {
		p.onFailover(from, p.hosts[next].name)
	}
}

func (p *Pool) send(ctx context.Context, h *host, req *Request) (*Response, error) {
	target, err := RewriteHost(req.URL, h.name)
	if err != nil {
		return nil, err
	}

	var body interface{}
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}

	if p.reqLogger != nil {
		p.reqLogger.LogRequest(req.Method, target, httpReq.Header, req.Body)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, fmt.Errorf("%s %s: %w", req.Method, target, err)
	}

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if p.reqLogger != nil {
		p.reqLogger.LogResponse(resp.StatusCode, resp.Header, data)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Host:       h.name,
	}, nil
}

// Reset drops idle connections of every host.
func (p *Pool) Reset() {
	for _, h := range p.hosts {
		h.transport.CloseIdleConnections()
	}
}

// RewriteHost replaces the hostname of rawURL, keeping the port, path and
// query. A pool host written as host:port replaces the port as well.
func RewriteHost(rawURL, hostname string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}

	if _, _, splitErr := net.SplitHostPort(hostname); splitErr == nil {
		u.Host = hostname
	} else if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(hostname, port)
	} else {
		u.Host = hostname
	}

	return u.String(), nil
}
