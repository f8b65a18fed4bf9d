package auth

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Variant is the identity protocol wire format.
type Variant int

const (
	// V3 sends the identity/scope envelope and reads the token from the
	// X-Subject-Token response header.
	V3 Variant = iota
	// V2 sends the passwordCredentials envelope and reads the token from
	// access.token.id of the response body.
	V2
)

// String returns "v2" or "v3".
func (v Variant) String() string {
	if v == V2 {
		return "v2"
	}

	return "v3"
}

// KeystoneConfig configures the token-issuing strategy.
type KeystoneConfig struct {
	Protocol string
	Host     string
	Port     int
	// Path selects the variant: containing "v2" means V2, anything else V3.
	// When empty, Discover probes V3 and falls back to V2.
	Path string
	// TokenURL, when set, is posted to instead of Protocol://Host:Port/Path.
	TokenURL string
	Username string
	Password string
	Tenant   string
	Domain   string

	Insecure bool
	CAFile   string
	CertFile string
	KeyFile  string

	// Headers is the fixed baseline header set sent with every login.
	Headers http.Header
	Timeout time.Duration
	Logger  vnc.Logger
}

// Keystone mints tokens from a keystone-style identity provider.
type Keystone struct {
	mu      sync.RWMutex
	cfg     KeystoneConfig
	client  *resty.Client
	variant Variant
	path    string
	token   string
	probe   bool
}

// NewKeystone creates the token-issuing strategy.
func NewKeystone(cfg KeystoneConfig) (*Keystone, error) {
	if cfg.Protocol == "" {
		cfg.Protocol = constants.DefaultAuthProtocol
	}

	if cfg.Host == "" {
		cfg.Host = constants.DefaultAuthServer
	}

	if cfg.Port == 0 {
		cfg.Port = constants.DefaultAuthPort
	}

	if cfg.Tenant == "" {
		cfg.Tenant = constants.DefaultAuthTenant
	}

	if cfg.Domain == "" {
		cfg.Domain = constants.DefaultDomainName
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = constants.ShortHTTPTimeout
	}

	if cfg.Logger == nil {
		cfg.Logger = vnc.NopLogger{}
	}

	client := resty.New().SetTimeout(cfg.Timeout).SetLogger(restyLogger{log: cfg.Logger})

	if cfg.Insecure {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402 -- explicitly requested by configuration
	}

	if cfg.CAFile != "" {
		client.SetRootCertificate(cfg.CAFile)
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading identity provider client certificate: %w", err)
		}

		client.SetCertificates(cert)
	}

	k := &Keystone{cfg: cfg, client: client}

	switch {
	case cfg.Path == "":
		k.variant, k.path, k.probe = V3, constants.V3TokensPath, true
	case strings.Contains(cfg.Path, "v2"):
		k.variant, k.path = V2, cfg.Path
	default:
		k.variant, k.path = V3, cfg.Path
	}

	return k, nil
}

// Strategy returns vnc.AuthKeystone.
func (k *Keystone) Strategy() vnc.AuthStrategy {
	return vnc.AuthKeystone
}

// Token returns the cached token.
func (k *Keystone) Token() string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.token
}

// Variant returns the active wire variant.
func (k *Keystone) Variant() Variant {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.variant
}

// Endpoint returns the URL logins are posted to.
func (k *Keystone) Endpoint() string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.endpointLocked()
}

func (k *Keystone) endpointLocked() string {
	if k.cfg.TokenURL != "" {
		return k.cfg.TokenURL
	}

	return fmt.Sprintf("%s://%s:%d%s", k.cfg.Protocol, k.cfg.Host, k.cfg.Port, k.path)
}

// Discover settles the variant when no login path was configured. The v3
// probe is a real login; only an unreachable provider selects v2.
func (k *Keystone) Discover(ctx context.Context) error {
	k.mu.RLock()
	probe := k.probe
	k.mu.RUnlock()

	if !probe {
		return nil
	}

	_, err := k.Login(ctx, nil)

	k.mu.Lock()
	defer k.mu.Unlock()

	k.probe = false

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("probing identity provider: %w", ctx.Err())
	case errors.Is(err, constants.ErrIdentityUnreachable):
		k.variant, k.path = V2, constants.V2TokensPath
		k.cfg.Logger.Info("identity provider v3 unreachable, using v2", map[string]interface{}{
			"endpoint": k.endpointLocked(),
		})
	default:
		k.cfg.Logger.Warn("identity provider v3 probe rejected, keeping v3", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return nil
}

// Login posts the credential envelope with the baseline headers and caches
// the returned token. The cached token is never sent.
func (k *Keystone) Login(ctx context.Context, headers http.Header) (http.Header, error) {
	k.mu.RLock()
	variant := k.variant
	endpoint := k.endpointLocked()
	k.mu.RUnlock()

	body, err := json.Marshal(k.envelope(variant))
	if err != nil {
		return nil, fmt.Errorf("encoding credentials: %w", err)
	}

	req := k.client.R().SetContext(ctx).SetBody(body)
	for name, values := range k.cfg.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if req.Header.Get(constants.HeaderContentType) == "" {
		req.SetHeader(constants.HeaderContentType, constants.ContentTypeJSON)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("logging in: %w", ctx.Err())
		}

		return nil, fmt.Errorf("%w (%s): %w", constants.ErrIdentityUnreachable, endpoint, err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, &vnc.HTTPError{
			Kind:       vnc.ErrAuthenticationFailure,
			StatusCode: resp.StatusCode(),
			Method:     http.MethodPost,
			URL:        endpoint,
			Body:       resp.String(),
		}
	}

	token, err := extractToken(variant, resp)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	k.token = token
	k.mu.Unlock()

	out := headers.Clone()
	if out == nil {
		out = make(http.Header)
	}

	out.Set(constants.HeaderAuthToken, token)

	return out, nil
}

func extractToken(variant Variant, resp *resty.Response) (string, error) {
	if variant == V3 {
		token := resp.Header().Get(constants.HeaderSubjectTok)
		if token == "" {
			return "", fmt.Errorf("%w: %w", vnc.ErrAuthenticationFailure, constants.ErrTokenMissing)
		}

		return token, nil
	}

	var reply v2Reply

	err := json.Unmarshal(resp.Body(), &reply)
	if err != nil {
		return "", fmt.Errorf("%w: decoding token reply: %w", vnc.ErrAuthenticationFailure, err)
	}

	if reply.Access.Token.ID == "" {
		return "", fmt.Errorf("%w: %w", vnc.ErrAuthenticationFailure, constants.ErrTokenMissing)
	}

	return reply.Access.Token.ID, nil
}
