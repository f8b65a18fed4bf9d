package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// fakeAPI serves a discovery document for virtual-network plus the name
// actions.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		root := server.URL
		_ = json.NewEncoder(w).Encode(vnc.DiscoveryDocument{
			Href: root,
			Links: []vnc.LinkWrapper{
				{Link: vnc.Link{Rel: vnc.RelCollection, Name: "virtual-network", Href: root + "/virtual-networks"}},
				{Link: vnc.Link{Rel: vnc.RelResourceBase, Name: "virtual-network", Href: root + "/virtual-network"}},
				{Link: vnc.Link{Rel: vnc.RelAction, Name: "name-to-id", Href: root + "/fqname-to-id"}},
				{Link: vnc.Link{Rel: vnc.RelAction, Name: "id-to-name", Href: root + "/id-to-fqname"}},
			},
		})
	})
	mux.HandleFunc("GET /virtual-networks", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"virtual-networks": []map[string]interface{}{
				{"uuid": "vn-1", "fq_name": []string{"default-domain", "admin", "blue"}},
			},
		})
	})
	mux.HandleFunc("GET /virtual-network/vn-1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"virtual-network": map[string]interface{}{
				"uuid":         "vn-1",
				"fq_name":      []string{"default-domain", "admin", "blue"},
				"display_name": "blue",
			},
		})
	})
	mux.HandleFunc("DELETE /virtual-network/vn-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /fqname-to-id", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"uuid": "vn-1"})
	})
	mux.HandleFunc("POST /id-to-fqname", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"fq_name": []string{"default-domain", "admin", "blue"},
			"type":    "virtual-network",
		})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// run executes cmd against server with the given output format.
func run(t *testing.T, server *httptest.Server, format string, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set(KeyConfig, filepath.Join(t.TempDir(), "absent.ini"))
	viper.Set(KeyOutput, format)

	if server != nil {
		viper.Set(KeyHosts, []string{strings.TrimPrefix(server.URL, "http://")})
	}

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, nil, OutputFormatJSON, NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc","built":"today"}`, out)

	out, err = run(t, nil, OutputFormatTable, NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")

	_, err = run(t, nil, "xml", NewVersionCommand("1.2.3", "abc", "today"))
	require.ErrorIs(t, err, ErrUnknownOutputFormat)
}

func TestHomepageCommand(t *testing.T) {
	server := fakeAPI(t)

	out, err := run(t, server, OutputFormatTable, NewHomepageCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "virtual-network")
	assert.Contains(t, out, "name-to-id")
}

func TestListCommand(t *testing.T) {
	server := fakeAPI(t)

	out, err := run(t, server, OutputFormatTable, NewListCommand(), "virtual-network")
	require.NoError(t, err)
	assert.Contains(t, out, "vn-1")
	assert.Contains(t, out, "default-domain:admin:blue")

	_, err = run(t, server, OutputFormatTable, NewListCommand(), "virtual-network", "--filter", "broken")
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = run(t, server, OutputFormatTable, NewListCommand(), "flux-capacitor")
	require.ErrorIs(t, err, vnc.ErrResourceTypeUnknown)
}

func TestReadCommand(t *testing.T) {
	server := fakeAPI(t)

	out, err := run(t, server, OutputFormatYAML, NewReadCommand(), "virtual-network", "vn-1")
	require.NoError(t, err)
	assert.Contains(t, out, "uuid: vn-1")
	assert.Contains(t, out, "display_name: blue")

	out, err = run(t, server, OutputFormatTable, NewReadCommand(), "virtual-network", "default-domain:admin:blue", "--fq-name")
	require.NoError(t, err)
	assert.Contains(t, out, "display_name")
}

func TestDeleteCommand(t *testing.T) {
	server := fakeAPI(t)

	out, err := run(t, server, OutputFormatTable, NewDeleteCommand(), "virtual-network", "vn-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted virtual-network vn-1")

	_, err = run(t, server, OutputFormatTable, NewDeleteCommand(), "virtual-network", "vn-2")
	require.ErrorIs(t, err, vnc.ErrNotFound)
}

func TestNameCommands(t *testing.T) {
	server := fakeAPI(t)

	out, err := run(t, server, OutputFormatJSON, NewFQNameToIDCommand(), "virtual-network", "default-domain:admin:blue")
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"vn-1"}`, out)

	out, err = run(t, server, OutputFormatJSON, NewIDToFQNameCommand(), "vn-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fq_name":["default-domain","admin","blue"],"type":"virtual-network"}`, out)
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"is_shared=true", "display_name=a", "display_name=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"is_shared":    "true",
		"display_name": []string{"a", "b"},
	}, filters)

	filters, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, filters)
}

func TestTokenCommand(t *testing.T) {
	server := fakeAPI(t)

	logins := 0
	keystone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++

		assert.Equal(t, "/v3/auth/tokens", r.URL.Path)
		w.Header().Set("X-Subject-Token", "tok123")
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(keystone.Close)

	t.Setenv("VNC_AUTH_AUTHN_TYPE", "keystone")
	t.Setenv("VNC_AUTH_AUTHN_USER", "admin")
	t.Setenv("VNC_AUTH_AUTHN_PASSWORD", "secret")
	t.Setenv("VNC_AUTH_AUTHN_TOKEN_URL", keystone.URL+"/v3/auth/tokens")

	out, err := run(t, server, OutputFormatJSON, NewTokenCommand())
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"tok123"}`, out)
	assert.Equal(t, 2, logins, "one login settles the protocol, one mints the printed token")
}
