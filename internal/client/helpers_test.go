package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/vnc-client/internal/client"
	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Actions every fake server advertises, mounted at "/<name>".
var advertisedActions = []string{
	constants.ActionNameToID,
	constants.ActionIDToName,
	constants.ActionRefUpdate,
	constants.ActionRefRelaxForDelete,
	constants.ActionPropCollectionGet,
	constants.ActionPropCollectionPost,
	constants.ActionIntPools,
	constants.ActionIntPool,
	constants.ActionUserAgentKV,
	constants.ActionFetchRecords,
	constants.ActionListBulkCollection,
	constants.ActionExecuteJob,
	constants.ActionChown,
	constants.ActionChmod,
	constants.ActionAAAMode,
	constants.ActionSetTag,
	constants.ActionSecurityDraft,
}

// Resource types every fake server advertises.
var advertisedTypes = []string{"virtual-network", "project", "firewall-policy", "network-ipam"}

// recorded is one request seen by the fake server.
type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body.
func (r recorded) JSON(t *testing.T) map[string]interface{} {
	t.Helper()

	out := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(r.Body, &out))

	return out
}

// fakeServer is an API server with a discovery document and per-route handlers.
type fakeServer struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recorded
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{t: t, routes: make(map[string]http.HandlerFunc)}
	fs.server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.server.Close)

	fs.handle(http.MethodGet, "/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, fs.document())
	})

	return fs
}

func (fs *fakeServer) document() *vnc.DiscoveryDocument {
	root := fs.server.URL
	doc := &vnc.DiscoveryDocument{Href: root}

	for _, typ := range advertisedTypes {
		doc.Links = append(doc.Links,
			vnc.LinkWrapper{Link: vnc.Link{Rel: vnc.RelCollection, Name: typ, Href: root + "/" + typ + "s"}},
			vnc.LinkWrapper{Link: vnc.Link{Rel: vnc.RelResourceBase, Name: typ, Href: root + "/" + typ}},
		)
	}

	for _, name := range advertisedActions {
		doc.Links = append(doc.Links, vnc.LinkWrapper{Link: vnc.Link{Rel: vnc.RelAction, Name: name, Href: root + "/" + name}})
	}

	return doc
}

func (fs *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	fs.mu.Lock()
	fs.requests = append(fs.requests, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	handler, ok := fs.routes[r.Method+" "+r.URL.Path]
	fs.mu.Unlock()

	if !ok {
		http.NotFound(w, r)

		return
	}

	r.Body = io.NopCloser(strings.NewReader(string(body)))
	handler(w, r)
}

func (fs *fakeServer) handle(method, path string, handler http.HandlerFunc) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.routes[method+" "+path] = handler
}

// reply answers method path with a fixed status and JSON body.
func (fs *fakeServer) reply(method, path string, status int, body interface{}) {
	fs.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

// sequence answers method path with the given statuses in order; the last
// one repeats.
func (fs *fakeServer) sequence(method, path string, body interface{}, statuses ...int) {
	var (
		mu sync.Mutex
		n  int
	)

	fs.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		status := statuses[min(n, len(statuses)-1)]
		n++
		mu.Unlock()

		writeJSON(w, status, body)
	})
}

// host returns host:port of the fake server.
func (fs *fakeServer) host() string {
	return strings.TrimPrefix(fs.server.URL, "http://")
}

// seen returns the requests matching method and path.
func (fs *fakeServer) seen(method, path string) []recorded {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var out []recorded

	for _, r := range fs.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}

	return out
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// fakeAuth counts logins and hands out a fixed token.
type fakeAuth struct {
	mu     sync.Mutex
	logins int
	token  string
	err    error
}

func (f *fakeAuth) Login(_ context.Context, headers http.Header) (http.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logins++
	if f.err != nil {
		return nil, f.err
	}

	out := headers.Clone()
	out.Set(constants.HeaderAuthToken, f.token)

	return out, nil
}

func (f *fakeAuth) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.token
}

func (f *fakeAuth) Strategy() vnc.AuthStrategy {
	return vnc.AuthKeystone
}

func (f *fakeAuth) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.logins
}

// newTestClient builds a client against fs with millisecond backoff.
func newTestClient(t *testing.T, fs *fakeServer, mutate func(*vnc.Config), opts ...client.Option) *client.Client {
	t.Helper()

	cfg := &vnc.Config{
		Hosts:       []string{fs.host()},
		BackoffUnit: time.Millisecond,
	}

	if mutate != nil {
		mutate(cfg)
	}

	c, err := client.New(cfg, opts...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func decodeBody(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}
