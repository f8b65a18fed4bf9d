package vncconf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
	"github.com/fivetwenty-io/vnc-client/pkg/vncconf"
)

const sampleINI = `[global]
WEB_SERVER = 10.0.0.1, 10.0.0.2:9100
WEB_PORT = 8082
BASE_URL = /
use_ssl = True
cafile = /etc/contrail/ssl/ca.pem
MAX_POOLS = 10
MAX_CONNS_PER_POOL = 20
curl_log = vnc-curl.log

[auth]
AUTHN_TYPE = keystone
AUTHN_PROTOCOL = http
AUTHN_SERVER = 10.0.0.9
AUTHN_PORT = 5000
AUTHN_URL = /v2.0/tokens
AUTHN_USER = admin
AUTHN_PASSWORD = secret
AUTHN_TENANT = demo
cafile = /etc/keystone/ca.pem
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vnc_api_lib.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestLoad(t *testing.T) {
	t.Run("reads both sections", func(t *testing.T) {
		cfg, err := vncconf.Load(writeConfig(t, sampleINI))
		require.NoError(t, err)

		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2:9100"}, cfg.Hosts)
		assert.Equal(t, 8082, cfg.Port)
		assert.Equal(t, "/", cfg.BaseURL)
		assert.True(t, cfg.UseSSL)
		assert.Equal(t, "/etc/contrail/ssl/ca.pem", cfg.CAFile)
		assert.Equal(t, 10, cfg.MaxPools)
		assert.Equal(t, 20, cfg.MaxConnsPerPool)
		assert.Equal(t, "vnc-curl.log", cfg.CurlLogFile)

		assert.Equal(t, vnc.AuthKeystone, cfg.Auth.Strategy)
		assert.Equal(t, "10.0.0.9", cfg.Auth.Host)
		assert.Equal(t, 5000, cfg.Auth.Port)
		assert.Equal(t, "/v2.0/tokens", cfg.Auth.Path)
		assert.Equal(t, "admin", cfg.Auth.Username)
		assert.Equal(t, "secret", cfg.Auth.Password)
		assert.Equal(t, "demo", cfg.Auth.Tenant)
		assert.Empty(t, cfg.Auth.CAFile, "identity certificates only apply over https")
	})

	t.Run("missing file keeps defaults", func(t *testing.T) {
		cfg, err := vncconf.Load(filepath.Join(t.TempDir(), "absent.ini"))
		require.NoError(t, err)
		assert.Empty(t, cfg.Hosts)
		assert.Zero(t, cfg.Port)
		assert.Empty(t, cfg.Auth.Strategy)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("VNC_GLOBAL_WEB_SERVER", "192.168.1.1")
		t.Setenv("VNC_AUTH_AUTHN_PASSWORD", "from-env")

		cfg, err := vncconf.Load(writeConfig(t, sampleINI))
		require.NoError(t, err)
		assert.Equal(t, []string{"192.168.1.1"}, cfg.Hosts)
		assert.Equal(t, "from-env", cfg.Auth.Password)
	})

	t.Run("api certificates need ssl", func(t *testing.T) {
		cfg, err := vncconf.Load(writeConfig(t, "[global]\ncafile = /ca.pem\n"))
		require.NoError(t, err)
		assert.False(t, cfg.UseSSL)
		assert.Empty(t, cfg.CAFile)
	})

	t.Run("unsupported strategy", func(t *testing.T) {
		_, err := vncconf.Load(writeConfig(t, "[auth]\nAUTHN_TYPE = ldap\n"))
		require.ErrorIs(t, err, constants.ErrUnsupportedStrategy)
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := vncconf.Load(writeConfig(t, "[global\nWEB_SERVER\n"))
		require.Error(t, err)
	})
}
