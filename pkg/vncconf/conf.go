// Package vncconf reads client settings from a vnc_api_lib.ini style file.
//
// The file has a [global] section for the API servers and an [auth] section
// for the identity provider. Every key can be overridden from the
// environment as VNC_<SECTION>_<KEY>, e.g. VNC_GLOBAL_WEB_SERVER or
// VNC_AUTH_AUTHN_PASSWORD.
package vncconf

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VNC"

// Keys of the [global] section.
const (
	KeyWebServer       = "global.web_server"
	KeyWebPort         = "global.web_port"
	KeyBaseURL         = "global.base_url"
	KeyUseSSL          = "global.use_ssl"
	KeyInsecure        = "global.insecure"
	KeyCertFile        = "global.certfile"
	KeyKeyFile         = "global.keyfile"
	KeyCAFile          = "global.cafile"
	KeyMaxPools        = "global.max_pools"
	KeyMaxConnsPerPool = "global.max_conns_per_pool"
	KeyCurlLog         = "global.curl_log"
)

// Keys of the [auth] section.
const (
	KeyAuthType     = "auth.authn_type"
	KeyAuthProtocol = "auth.authn_protocol"
	KeyAuthServer   = "auth.authn_server"
	KeyAuthPort     = "auth.authn_port"
	KeyAuthURL      = "auth.authn_url"
	KeyAuthUser     = "auth.authn_user"
	KeyAuthPassword = "auth.authn_password"
	KeyAuthTenant   = "auth.authn_tenant"
	KeyAuthDomain   = "auth.authn_domain"
	KeyAuthTokenURL = "auth.authn_token_url"
	KeyAuthInsecure = "auth.insecure"
	KeyAuthCertFile = "auth.certfile"
	KeyAuthKeyFile  = "auth.keyfile"
	KeyAuthCAFile   = "auth.cafile"
)

// NewViper returns a viper instance with VNC_ environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads path and returns the resulting configuration. An empty path
// reads constants.DefaultConfigFile. A missing file yields the environment
// overrides on top of the built-in defaults.
func Load(path string) (*vnc.Config, error) {
	v := NewViper()

	err := Read(v, path)
	if err != nil {
		return nil, err
	}

	return FromViper(v)
}

// Read merges the sections of the ini file at path into v, tolerating its
// absence.
func Read(v *viper.Viper, path string) error {
	if path == "" {
		path = constants.DefaultConfigFile
	}

	file, err := ini.LoadSources(ini.LoadOptions{Loose: true}, path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	sections := make(map[string]interface{})

	for _, section := range file.Sections() {
		keys := section.Keys()
		if len(keys) == 0 {
			continue
		}

		values := make(map[string]interface{}, len(keys))
		for _, key := range keys {
			values[key.Name()] = key.Value()
		}

		sections[section.Name()] = values
	}

	err = v.MergeConfigMap(sections)
	if err != nil {
		return fmt.Errorf("merging config file %s: %w", path, err)
	}

	return nil
}

// FromViper maps the [global] and [auth] keys of v onto a vnc.Config. Keys
// that are not set keep the client defaults.
func FromViper(v *viper.Viper) (*vnc.Config, error) {
	cfg := &vnc.Config{
		BaseURL:         v.GetString(KeyBaseURL),
		Port:            v.GetInt(KeyWebPort),
		UseSSL:          v.GetBool(KeyUseSSL),
		Insecure:        v.GetBool(KeyInsecure),
		CertFile:        v.GetString(KeyCertFile),
		KeyFile:         v.GetString(KeyKeyFile),
		CAFile:          v.GetString(KeyCAFile),
		MaxPools:        v.GetInt(KeyMaxPools),
		MaxConnsPerPool: v.GetInt(KeyMaxConnsPerPool),
		CurlLogFile:     v.GetString(KeyCurlLog),
	}

	cfg.Hosts = splitHosts(v.GetString(KeyWebServer))

	// API server certificates only apply over SSL.
	if !cfg.UseSSL {
		cfg.CAFile, cfg.CertFile, cfg.KeyFile = "", "", ""
	}

	strategy := vnc.AuthStrategy(strings.ToLower(v.GetString(KeyAuthType)))
	switch strategy {
	case "", vnc.AuthNone, vnc.AuthKeystone:
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedStrategy, strategy)
	}

	cfg.Auth = vnc.AuthConfig{
		Strategy: strategy,
		Protocol: v.GetString(KeyAuthProtocol),
		Host:     v.GetString(KeyAuthServer),
		Port:     v.GetInt(KeyAuthPort),
		Path:     v.GetString(KeyAuthURL),
		TokenURL: v.GetString(KeyAuthTokenURL),
		Username: v.GetString(KeyAuthUser),
		Password: v.GetString(KeyAuthPassword),
		Tenant:   v.GetString(KeyAuthTenant),
		Domain:   v.GetString(KeyAuthDomain),
		Insecure: v.GetBool(KeyAuthInsecure),
		CAFile:   v.GetString(KeyAuthCAFile),
		CertFile: v.GetString(KeyAuthCertFile),
		KeyFile:  v.GetString(KeyAuthKeyFile),
	}

	if !strings.EqualFold(cfg.Auth.Protocol, constants.SSLAPIProtocol) {
		cfg.Auth.CAFile, cfg.Auth.CertFile, cfg.Auth.KeyFile = "", "", ""
	}

	return cfg, nil
}

// splitHosts parses a comma-separated WEB_SERVER value.
func splitHosts(raw string) []string {
	var hosts []string

	for _, h := range strings.Split(raw, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			hosts = append(hosts, h)
		}
	}

	return hosts
}
