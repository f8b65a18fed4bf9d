package vnc

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// AuthStrategy selects how the client obtains a bearer token.
type AuthStrategy string

const (
	// AuthNone sends requests without a token.
	AuthNone AuthStrategy = "noauth"
	// AuthKeystone mints tokens from a keystone-style identity provider.
	AuthKeystone AuthStrategy = "keystone"
)

// AAAMode is the server-wide authorization mode.
type AAAMode string

// Supported AAA modes.
const (
	AAAModeNoAuth     AAAMode = "no-auth"
	AAAModeCloudAdmin AAAMode = "cloud-admin"
	AAAModeRBAC       AAAMode = "rbac"
)

// Valid reports whether m is one of the supported AAA modes.
func (m AAAMode) Valid() bool {
	switch m {
	case AAAModeNoAuth, AAAModeCloudAdmin, AAAModeRBAC:
		return true
	default:
		return false
	}
}

// AuthConfig configures the identity provider used by the keystone strategy.
type AuthConfig struct {
	// Strategy defaults to AuthKeystone when Username is set, AuthNone
	// otherwise. An ini file without AUTHN_TYPE therefore only authenticates
	// when AUTHN_USER is present; set AuthKeystone explicitly to require
	// keystone regardless of the credentials.
	Strategy AuthStrategy
	// Protocol, Host and Port locate the identity provider.
	Protocol string
	Host     string
	Port     int
	// Path is the token endpoint path. A path containing "v2" selects the v2
	// envelope; any other non-empty path selects v3. When empty, the client
	// probes v3 and falls back to v2 if the provider is unreachable.
	Path string
	// TokenURL overrides Protocol/Host/Port/Path with a full URL.
	TokenURL string
	Username string
	Password string
	// Tenant is the project name the token is scoped to. It is also sent to
	// the API server in the X-Tenant-Name header.
	Tenant string
	// Domain is the identity domain name used by the v3 envelope.
	Domain string
	// Insecure disables TLS verification against the identity provider.
	Insecure bool
	CAFile   string
	CertFile string
	KeyFile  string
	// Timeout bounds each identity provider call.
	Timeout time.Duration
}

// UserInfo carries delegated identity forwarded to the API server.
type UserInfo struct {
	UserID string
	User   string
	Role   string
}

// Config represents client configuration for building a vnc.Client.
//
// # Hosts and failover
//
// Hosts is an ordered list of API server hosts sharing Port, BaseURL and TLS
// settings. Requests go to the active host; when it refuses a connection the
// client sweeps the list in order and adopts the first host that answers.
//
// # Retries
//
// A 502 or 503 answer is retried after BackoffUnit until RetryBudget attempts
// have failed. Transport-level failures are retried the same way once every
// host in the pool has failed. During construction the discovery document is
// fetched without retries; a 503 is retried ConnectRetries times, or forever
// when WaitForConnect is set.
type Config struct {
	// Hosts: API server hosts. Defaults to ["127.0.0.1"].
	Hosts []string
	// Port: API server port. Defaults to 8082.
	Port int
	// BaseURL: path of the discovery document. Defaults to "/".
	BaseURL string
	// UseSSL: connect with https.
	UseSSL bool
	// Insecure: skip TLS verification against the API server.
	Insecure bool
	// CAFile, CertFile, KeyFile: PEM files for the API server TLS context.
	CAFile   string
	CertFile string
	KeyFile  string
	// MaxPools and MaxConnsPerPool size the idle connection pools.
	MaxPools        int
	MaxConnsPerPool int
	// Timeout: per-attempt HTTP timeout. Defaults to 30s.
	Timeout time.Duration

	// RetryBudget: 502/503 and connection-failure retries per call. Defaults to 30.
	RetryBudget int
	// ConnectRetries: construction-time retries on 503. Defaults to 6.
	ConnectRetries int
	// WaitForConnect: retry construction-time 503 indefinitely.
	WaitForConnect bool
	// BackoffUnit: sleep between retries. Defaults to 1s.
	BackoffUnit time.Duration
	// TransportRetries: same-host retries on transport errors before failing over.
	TransportRetries int
	// LoadBalance: rotate the active host before every request.
	LoadBalance bool
	// RateLimit: maximum requests per second, 0 disables limiting.
	RateLimit float64
	// RateBurst: burst size for RateLimit. Defaults to 1.
	RateBurst int

	// Auth configures the identity provider.
	Auth AuthConfig
	// AuthToken: a fixed externally issued token. The client never
	// re-authenticates when it is set.
	AuthToken string
	// UserInfo: optional delegated identity headers.
	UserInfo *UserInfo
	// ExcludeHrefs: ask the server to omit hrefs in read and list replies.
	ExcludeHrefs bool

	// UserAgent: optional User-Agent header.
	UserAgent string
	// Logger: optional structured logger.
	Logger Logger
	// CurlLogFile: when set, every attempt is written there as a curl command.
	CurlLogFile string
	// MetricsRegisterer: optional prometheus registerer for client metrics.
	MetricsRegisterer prometheus.Registerer
	// Interceptors: optional request/response hooks run once per call.
	Interceptors *InterceptorChain
	// Types: resource type catalog. Defaults to BuiltinTypes().
	Types []TypeDescription
}

// Request is one logical call against the API server.
type Request struct {
	Method string
	// URI is relative to the server root, e.g. "/virtual-networks".
	URI string
	// Query is sent as the query string. GET payloads travel here.
	Query url.Values
	// Body is JSON-encoded unless it is already []byte or string.
	Body interface{}
	// Headers are merged over the client's composed header set.
	Headers http.Header
	// UserToken replaces X-AUTH-TOKEN for this call only. A 401 against it
	// is never retried with the service's own credentials.
	UserToken string
	// NoRetry surfaces connection failures and 502/503 immediately.
	NoRetry bool
	// RetryBudget overrides Config.RetryBudget when positive.
	RetryBudget int
}

// Response is the successful outcome of a Request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Data holds the decoded JSON body of a GET answered with 200.
	Data interface{}
	// Error is set for response interceptors when the call failed.
	Error error
}

// ReadOptions identifies one object. Exactly one of ID, FQName and FQNameStr
// must be set.
type ReadOptions struct {
	ID        string
	FQName    []string
	FQNameStr string
	// Fields restricts the reply to the named fields.
	Fields []string
	// IncludeBackRefs and IncludeChildren apply when Fields is empty.
	IncludeBackRefs bool
	IncludeChildren bool
}

// ListOptions filters a collection listing.
type ListOptions struct {
	ParentID     []string
	ParentFQName []string
	// BackRefID set to a non-nil empty slice yields an empty result.
	BackRefID []string
	// ObjUUIDs set to a non-nil empty slice yields an empty result.
	ObjUUIDs []string
	FQNames  [][]string
	Fields   []string
	Detail   bool
	Count    bool
	Shared   bool
	// Filters map a field to one value or a slice of values.
	Filters map[string]interface{}
	// Token is forwarded as the caller's own token for this listing.
	Token string
}

// ListResult is the outcome of a listing.
type ListResult struct {
	// Count is set when ListOptions.Count was requested.
	Count int
	// Objects is set when ListOptions.Detail was requested.
	Objects []*Object
	// Raw is the decoded reply for non-detail listings.
	Raw map[string]interface{}
}

// RefUpdate adds or removes one reference between two objects.
type RefUpdate struct {
	Type      string
	UUID      string
	RefType   string
	RefUUID   string
	RefFQName []string
	// Operation is "ADD" or "DELETE".
	Operation string
	Attr      interface{}
}

// Reference update operations.
const (
	RefOperationAdd    = "ADD"
	RefOperationDelete = "DELETE"
)

// ShareEntry grants a tenant access to an object.
type ShareEntry struct {
	Tenant       string `json:"tenant"`
	TenantAccess int    `json:"tenant_access"`
}

// ChmodOptions changes object permissions. Nil fields are left untouched.
type ChmodOptions struct {
	Owner        string
	OwnerAccess  *int
	Share        []ShareEntry
	GlobalAccess *int
}

// TagValue describes one tag type in a set-tag call. A nil *TagValue removes
// every tag of that type.
type TagValue struct {
	IsGlobal     bool     `json:"is_global,omitempty"`
	Value        string   `json:"value,omitempty"`
	AddValues    []string `json:"add_values,omitempty"`
	DeleteValues []string `json:"delete_values,omitempty"`
}

// JobRequest starts a job template on the server.
type JobRequest struct {
	TemplateFQName []string
	TemplateID     string
	Input          map[string]interface{}
	DeviceList     []string
}

// ResourceClient performs CRUD against one resource type.
type ResourceClient interface {
	Type() string
	Create(ctx context.Context, obj *Object) (string, error)
	Read(ctx context.Context, opts ReadOptions) (*Object, error)
	ReadDraft(ctx context.Context, opts ReadOptions) (*Object, error)
	Update(ctx context.Context, obj *Object) ([]byte, error)
	Delete(ctx context.Context, opts ReadOptions) error
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	DefaultID(ctx context.Context) (string, error)
}

// NameClient resolves between names and identifiers.
type NameClient interface {
	FQNameToID(ctx context.Context, objType string, fqName []string) (string, error)
	IDToFQName(ctx context.Context, id string) ([]string, error)
	IDToFQNameType(ctx context.Context, id string) ([]string, string, error)
}

// RefClient edits references.
type RefClient interface {
	RefUpdate(ctx context.Context, update RefUpdate) (string, error)
	RefRelaxForDelete(ctx context.Context, id, refID string) (string, error)
}

// PropCollectionClient edits list and map properties element-wise.
type PropCollectionClient interface {
	PropListAdd(ctx context.Context, id, field string, value interface{}, position string) error
	PropListModify(ctx context.Context, id, field string, value interface{}, position string) error
	PropListDelete(ctx context.Context, id, field, position string) error
	PropListGet(ctx context.Context, id, field, position string) (interface{}, error)
	PropMapSet(ctx context.Context, id, field string, value interface{}, key string) error
	PropMapDelete(ctx context.Context, id, field, key string) error
	PropMapGet(ctx context.Context, id, field, key string) (interface{}, error)
}

// IntPoolClient manages server-side integer pools.
type IntPoolClient interface {
	CreateIntPool(ctx context.Context, pool string, start, end int) error
	DeleteIntPool(ctx context.Context, pool string) error
	AllocateInt(ctx context.Context, pool, owner string) (int, error)
	SetInt(ctx context.Context, pool string, value int, owner string) error
	DeallocateInt(ctx context.Context, pool string, value int) error
	GetIntOwner(ctx context.Context, pool string, value int) (string, error)
}

// KeyValueClient stores user-agent key/value pairs.
type KeyValueClient interface {
	KVStore(ctx context.Context, key, value string) error
	KVRetrieve(ctx context.Context, key string) (interface{}, error)
	KVDelete(ctx context.Context, key string) error
}

// PermsClient inspects and edits ownership and permissions.
type PermsClient interface {
	ObjPerms(ctx context.Context, token, id string) (map[string]interface{}, error)
	IsCloudAdminRole(ctx context.Context) (bool, error)
	IsGlobalReadOnlyRole(ctx context.Context) (bool, error)
	Chown(ctx context.Context, id, owner string) error
	Chmod(ctx context.Context, id string, opts ChmodOptions) error
	SetAAAMode(ctx context.Context, mode AAAMode) (map[string]interface{}, error)
	GetAAAMode(ctx context.Context) (map[string]interface{}, error)
}

// SecurityClient tags objects and manages pending security drafts.
type SecurityClient interface {
	SetTags(ctx context.Context, objType, id string, tags map[string]*TagValue) (map[string]interface{}, error)
	SetTag(ctx context.Context, objType, id, tagType, value string, isGlobal bool) (map[string]interface{}, error)
	UnsetTag(ctx context.Context, objType, id, tagType string) (map[string]interface{}, error)
	CommitSecurity(ctx context.Context, scopeID string) error
	DiscardSecurity(ctx context.Context, scopeID string) error
}

// Client is the API client.
type Client interface {
	NameClient
	RefClient
	PropCollectionClient
	IntPoolClient
	KeyValueClient
	PermsClient
	SecurityClient

	// Resource returns the CRUD client for a resource type.
	Resource(objType string) (ResourceClient, error)
	// Do runs one call through the status and retry policy.
	Do(ctx context.Context, req *Request) (*Response, error)
	// Homepage returns the discovery document.
	Homepage(ctx context.Context) (*DiscoveryDocument, error)
	// Refresh refetches the discovery document.
	Refresh(ctx context.Context) error
	FetchRecords(ctx context.Context) (interface{}, error)
	ExecuteJob(ctx context.Context, job JobRequest) (map[string]interface{}, error)

	// GetAuthToken logs in and returns the fresh token.
	GetAuthToken(ctx context.Context) (string, error)
	// SetAuthToken parks a fixed token. The client stops re-authenticating.
	SetAuthToken(token string)
	// SetUserRoles forwards roles in the X-API-ROLE header.
	SetUserRoles(roles []string)
	// SetExcludeHrefs asks the server to omit hrefs from read and list replies.
	SetExcludeHrefs()
	// ActiveHost returns the host currently serving requests.
	ActiveHost() string
	// Close releases idle connections.
	Close() error
}
