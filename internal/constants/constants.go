package constants

import "time"

// API server connection defaults.
const (
	// DefaultWebServer is the API server host used when none is configured.
	DefaultWebServer = "127.0.0.1"

	// DefaultWebPort is the default API server port.
	DefaultWebPort = 8082

	// DefaultBaseURL is where the client's view of the API begins.
	DefaultBaseURL = "/"

	// DefaultAPIProtocol is used unless SSL is enabled.
	DefaultAPIProtocol = "http"

	// SSLAPIProtocol is used when SSL is enabled.
	SSLAPIProtocol = "https"
)

// Connection pool sizing.
const (
	// DefaultMaxPools bounds the idle connections kept per pool.
	DefaultMaxPools = 100

	// DefaultMaxConnsPerPool bounds the idle connections kept per host.
	DefaultMaxConnsPerPool = 100
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for identity provider calls.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry and backoff limits.
const (
	// DefaultRetryBudget bounds 502/503 and connection-failure retries per call.
	DefaultRetryBudget = 30

	// DefaultConnectRetries bounds construction-time retries on 503.
	DefaultConnectRetries = 6

	// DefaultBackoffUnit is the sleep between retries.
	DefaultBackoffUnit = 1 * time.Second

	// DefaultTransportRetries is the number of same-host retries on
	// transport errors before the host is considered failed.
	DefaultTransportRetries = 0
)

// Identity provider defaults.
const (
	// DefaultAuthProtocol is the identity provider scheme.
	DefaultAuthProtocol = "http"

	// DefaultAuthServer is the identity provider host.
	DefaultAuthServer = DefaultWebServer

	// DefaultAuthPort is the identity provider admin port.
	DefaultAuthPort = 35357

	// DefaultAuthTenant is the project the service token is scoped to.
	DefaultAuthTenant = "default-tenant"

	// DefaultDomainName is the identity domain.
	DefaultDomainName = "default"

	// V3TokensPath is the token-issuing endpoint of identity protocol v3.
	V3TokensPath = "/v3/auth/tokens"

	// V2TokensPath is the token-issuing endpoint of identity protocol v2.
	V2TokensPath = "/v2.0/tokens"
)

// Header names.
const (
	HeaderContentType = "Content-Type"
	HeaderUserAgent   = "User-Agent"
	HeaderVNCAgent    = "X-Contrail-Useragent"
	HeaderAuthToken   = "X-AUTH-TOKEN"
	HeaderUserToken   = "X-USER-TOKEN"
	HeaderTenantName  = "X-Tenant-Name"
	HeaderAPIUserID   = "X-API-USER-ID"
	HeaderAPIUser     = "X-API-USER"
	HeaderAPIRole     = "X-API-ROLE"
	HeaderSubjectTok  = "X-Subject-Token"

	// ContentTypeJSON is sent on every API and identity request.
	ContentTypeJSON = `application/json; charset="UTF-8"`
)

// Listing.
const (
	// PostForListThreshold is the number of ids beyond which a list is
	// issued as POST on the list-bulk-collection action instead of GET.
	PostForListThreshold = 25

	// DraftPolicyManagement is the fq-name element holding pending
	// security resources.
	DraftPolicyManagement = "draft-policy-management"
)

// Well-known action names advertised on the discovery document.
const (
	ActionNameToID           = "name-to-id"
	ActionIDToName           = "id-to-name"
	ActionRefUpdate          = "ref-update"
	ActionRefRelaxForDelete  = "ref-relax-for-delete"
	ActionPropCollectionGet  = "prop-collection-get"
	ActionPropCollectionPost = "prop-collection-update"
	ActionIntPools           = "int-pools"
	ActionIntPool            = "int-pool"
	ActionUserAgentKV        = "useragent-keyvalue"
	ActionFetchRecords       = "fetch-records"
	ActionListBulkCollection = "list-bulk-collection"
	ActionExecuteJob         = "execute-job"
	ActionChown              = "chown"
	ActionChmod              = "chmod"
	ActionAAAMode            = "aaa-mode"
	ActionSetTag             = "set-tag"
	ActionSecurityDraft      = "security-policy-draft"
)

// ObjPermsURI is a fixed server path, not advertised on the discovery document.
const ObjPermsURI = "/obj-perms"

// File and directory permissions.
const (
	// LogDirPerm is the permission for the request log directory.
	LogDirPerm = 0750

	// DefaultConfigFile is read by the CLI when --config is not given.
	DefaultConfigFile = "/etc/contrail/vnc_api_lib.ini"

	// DefaultLogDir holds the request log when only a file name is given.
	DefaultLogDir = "/var/log/contrail"

	// FallbackLogDir is used when DefaultLogDir cannot be created.
	FallbackLogDir = "/var/tmp/contrail_vnc_lib"
)
