package constants

import "errors"

// Configuration errors.
var (
	ErrNoHosts             = errors.New("at least one API server host is required")
	ErrUnsupportedStrategy = errors.New("unsupported authentication strategy")
	ErrInvalidAAAMode      = errors.New("invalid AAA mode")
	ErrInvalidCABundle     = errors.New("no certificates found in CA file")
)

// Identity provider errors.
var (
	ErrIdentityUnreachable = errors.New("unable to connect to identity provider")
	ErrTokenMissing        = errors.New("identity provider response carried no token")
)

// Resource argument errors.
var (
	ErrNoIdentifier        = errors.New("at least one of id, fq_name or fq_name_str has to be provided")
	ErrTooManyIdentifiers  = errors.New("only one of id, fq_name or fq_name_str should be provided")
	ErrNotSecurityType     = errors.New("draft versions exist only for security resources")
	ErrJobTemplateRequired = errors.New("either job template fq_name or id must be specified")
	ErrInvalidDraftAction  = errors.New("only commit or discard actions are supported")
)
