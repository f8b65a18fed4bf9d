package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/vnc-client/internal/auth"
	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/internal/discovery"
	"github.com/fivetwenty-io/vnc-client/internal/logging"
	"github.com/fivetwenty-io/vnc-client/internal/metrics"
	"github.com/fivetwenty-io/vnc-client/internal/registry"
	"github.com/fivetwenty-io/vnc-client/internal/session"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Client implements the vnc.Client interface.
type Client struct {
	cfg      vnc.Config
	pool     *session.Pool
	auth     auth.Manager
	resolver *discovery.Resolver
	registry *registry.Registry
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	logger   vnc.Logger
	curl     *logging.CurlLogger

	// endpoint is scheme://host:port of the first host; the pool rewrites
	// the host part on every attempt.
	endpoint string

	mu           sync.RWMutex
	headers      http.Header
	fixedToken   bool
	excludeHrefs bool
}

// Option customizes a Client.
type Option func(*Client)

// WithAuthManager replaces the strategy derived from Config.Auth.
func WithAuthManager(m auth.Manager) Option {
	return func(c *Client) { c.auth = m }
}

// New creates a client from an already normalized config. It does not
// contact the API server; see Connect.
func New(cfg *vnc.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, vnc.ErrConfigRequired
	}

	c := &Client{
		cfg:          *cfg,
		logger:       cfg.Logger,
		excludeHrefs: cfg.ExcludeHrefs,
		fixedToken:   cfg.AuthToken != "",
	}
	applyDefaults(&c.cfg)

	if c.logger == nil {
		c.logger = vnc.NopLogger{}
	}

	for _, opt := range opts {
		opt(c)
	}

	c.metrics = metrics.New(c.cfg.MetricsRegisterer)
	c.registry = registry.New(c.cfg.Types)
	c.headers = c.baselineHeaders()
	c.endpoint = endpoint(&c.cfg)

	if c.cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.cfg.RateLimit), c.cfg.RateBurst)
	}

	err := c.initCurlLogger()
	if err != nil {
		return nil, err
	}

	err = c.initPool()
	if err != nil {
		return nil, err
	}

	if c.auth == nil {
		c.auth, err = c.newAuthManager()
		if err != nil {
			return nil, err
		}
	}

	c.resolver = discovery.NewResolver(discovery.NewTable(), c.fetchHomepage)

	return c, nil
}

func applyDefaults(cfg *vnc.Config) {
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = []string{constants.DefaultWebServer}
	}

	if cfg.Port == 0 {
		cfg.Port = constants.DefaultWebPort
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultBaseURL
	}

	if cfg.MaxPools == 0 {
		cfg.MaxPools = constants.DefaultMaxPools
	}

	if cfg.MaxConnsPerPool == 0 {
		cfg.MaxConnsPerPool = constants.DefaultMaxConnsPerPool
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}

	if cfg.RetryBudget == 0 {
		cfg.RetryBudget = constants.DefaultRetryBudget
	}

	if cfg.ConnectRetries == 0 {
		cfg.ConnectRetries = constants.DefaultConnectRetries
	}

	if cfg.BackoffUnit == 0 {
		cfg.BackoffUnit = constants.DefaultBackoffUnit
	}

	if cfg.RateBurst == 0 {
		cfg.RateBurst = 1
	}

	if cfg.Auth.Strategy == "" {
		cfg.Auth.Strategy = vnc.AuthNone
		if cfg.Auth.Username != "" {
			cfg.Auth.Strategy = vnc.AuthKeystone
		}
	}

	if cfg.Types == nil {
		cfg.Types = vnc.BuiltinTypes()
	}
}

func endpoint(cfg *vnc.Config) string {
	scheme := constants.DefaultAPIProtocol
	if cfg.UseSSL {
		scheme = constants.SSLAPIProtocol
	}

	host := cfg.Hosts[0]
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(cfg.Port))
	}

	return scheme + "://" + host
}

// baselineHeaders composes the header set sent with every API call.
func (c *Client) baselineHeaders() http.Header {
	h := make(http.Header)
	h.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	h.Set(constants.HeaderVNCAgent, agentName())

	if c.cfg.UserAgent != "" {
		h.Set(constants.HeaderUserAgent, c.cfg.UserAgent)
	}

	if c.cfg.Auth.Strategy == vnc.AuthKeystone {
		tenant := c.cfg.Auth.Tenant
		if tenant == "" {
			tenant = constants.DefaultAuthTenant
		}

		h.Set(constants.HeaderTenantName, tenant)
	}

	if c.cfg.AuthToken != "" {
		h.Set(constants.HeaderAuthToken, c.cfg.AuthToken)
	}

	if info := c.cfg.UserInfo; info != nil {
		if info.UserID != "" {
			h.Set(constants.HeaderAPIUserID, info.UserID)
		}

		if info.User != "" {
			h.Set(constants.HeaderAPIUser, info.User)
		}

		if info.Role != "" {
			h.Set(constants.HeaderAPIRole, info.Role)
		}
	}

	return h
}

// agentName identifies this process as hostname:program.
func agentName() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	return hostname + ":" + filepath.Base(os.Args[0])
}

func (c *Client) initCurlLogger() error {
	if c.cfg.CurlLogFile == "" {
		return nil
	}

	curl, err := logging.New(c.cfg.CurlLogFile)
	if err != nil {
		return fmt.Errorf("creating curl logger: %w", err)
	}

	c.curl = curl

	return nil
}

func (c *Client) initPool() error {
	tlsConfig, err := loadTLSConfig(c.cfg.Insecure, c.cfg.CAFile, c.cfg.CertFile, c.cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("loading API server TLS config: %w", err)
	}

	opts := []session.Option{
		session.WithPoolSizing(c.cfg.MaxPools, c.cfg.MaxConnsPerPool),
		session.WithTimeout(c.cfg.Timeout),
		session.WithTransportRetries(c.cfg.TransportRetries),
		session.WithLoadBalance(c.cfg.LoadBalance),
		session.WithLogger(c.logger),
		session.WithFailoverHook(c.metrics.ObserveFailover),
	}

	if tlsConfig != nil {
		opts = append(opts, session.WithTLSConfig(tlsConfig))
	}

	if c.curl != nil {
		opts = append(opts, session.WithRequestLogger(c.curl))
	}

	c.pool, err = session.New(c.cfg.Hosts, opts...)
	if err != nil {
		return fmt.Errorf("creating session pool: %w", err)
	}

	return nil
}

func loadTLSConfig(insecure bool, caFile, certFile, keyFile string) (*tls.Config, error) {
	if !insecure && caFile == "" && certFile == "" {
		return nil, nil //nolint:nilnil // no TLS customization requested
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, // #nosec G402 -- explicitly requested by configuration
	}

	if caFile != "" {
		pem, err := os.ReadFile(caFile) // #nosec G304 -- path comes from configuration
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidCABundle, caFile)
		}

		cfg.RootCAs = pool
	}

	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}

		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

func (c *Client) newAuthManager() (auth.Manager, error) {
	switch c.cfg.Auth.Strategy {
	case vnc.AuthNone:
		return auth.NewNoAuth(), nil
	case vnc.AuthKeystone:
		a := c.cfg.Auth

		baseline := make(http.Header)
		baseline.Set(constants.HeaderContentType, constants.ContentTypeJSON)
		baseline.Set(constants.HeaderVNCAgent, agentName())

		k, err := auth.NewKeystone(auth.KeystoneConfig{
			Protocol: a.Protocol,
			Host:     a.Host,
			Port:     a.Port,
			Path:     a.Path,
			TokenURL: a.TokenURL,
			Username: a.Username,
			Password: a.Password,
			Tenant:   a.Tenant,
			Domain:   a.Domain,
			Insecure: a.Insecure,
			CAFile:   a.CAFile,
			CertFile: a.CertFile,
			KeyFile:  a.KeyFile,
			Headers:  baseline,
			Timeout:  a.Timeout,
			Logger:   c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating keystone authenticator: %w", err)
		}

		return k, nil
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedStrategy, c.cfg.Auth.Strategy)
	}
}

// Auth returns the authentication strategy.
func (c *Client) Auth() auth.Manager {
	return c.auth
}

// Metrics returns the client collectors.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// Config returns the normalized configuration.
func (c *Client) Config() vnc.Config {
	return c.cfg
}

// Capabilities returns the parsed discovery table.
func (c *Client) Capabilities() *discovery.Table {
	return c.resolver.Table()
}

// Close flushes the curl trace.
func (c *Client) Close() error {
	c.pool.Reset()

	if c.curl != nil {
		_ = c.curl.Sync()
	}

	return nil
}

// ActiveHost implements vnc.Client.ActiveHost.
func (c *Client) ActiveHost() string {
	return c.pool.Active()
}

func (c *Client) headerSnapshot() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.headers.Clone()
}

func (c *Client) setHeaders(h http.Header) {
	c.mu.Lock()
	c.headers = h.Clone()
	c.mu.Unlock()
}

func (c *Client) tokenIsFixed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.fixedToken
}

func (c *Client) hrefsExcluded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.excludeHrefs
}

// GetAuthToken implements vnc.Client.GetAuthToken.
func (c *Client) GetAuthToken(ctx context.Context) (string, error) {
	headers, err := c.auth.Login(ctx, c.headerSnapshot())
	if err != nil {
		return "", fmt.Errorf("getting auth token: %w", err)
	}

	c.setHeaders(headers)

	return headers.Get(constants.HeaderAuthToken), nil
}

// SetAuthToken implements vnc.Client.SetAuthToken.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.headers.Set(constants.HeaderAuthToken, token)
	c.fixedToken = true
}

// SetUserRoles implements vnc.Client.SetUserRoles.
func (c *Client) SetUserRoles(roles []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.headers.Set(constants.HeaderAPIRole, strings.Join(roles, ","))
}

// SetExcludeHrefs implements vnc.Client.SetExcludeHrefs.
func (c *Client) SetExcludeHrefs() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.excludeHrefs = true
}

// Resource implements vnc.Client.Resource.
func (c *Client) Resource(objType string) (vnc.ResourceClient, error) {
	desc, err := c.registry.Lookup(objType)
	if err != nil {
		return nil, err
	}

	return &ResourceClient{client: c, desc: desc}, nil
}

var _ vnc.Client = (*Client)(nil)
