package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/vnc-client/internal/constants"
	"github.com/fivetwenty-io/vnc-client/internal/session"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

type countingServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newCountingServer(t *testing.T, status int) *countingServer {
	t.Helper()

	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"host":"` + r.Host + `"}`))
	}))
	t.Cleanup(cs.Close)

	return cs
}

func (cs *countingServer) host() string {
	return strings.TrimPrefix(cs.URL, "http://")
}

// deadHost returns an address that refuses connections.
func deadHost(t *testing.T) string {
	t.Helper()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(server.URL, "http://")
	server.Close()

	return addr
}

func get(t *testing.T, pool *session.Pool) *session.Response {
	t.Helper()

	resp, err := pool.Do(context.Background(), &session.Request{
		Method: http.MethodGet,
		URL:    "http://placeholder:8082/",
	})
	require.NoError(t, err)

	return resp
}

func TestNew_NoHosts(t *testing.T) {
	t.Parallel()

	_, err := session.New(nil)
	require.ErrorIs(t, err, constants.ErrNoHosts)
}

func TestPool_FailoverToFirstAccepting(t *testing.T) {
	t.Parallel()

	b := newCountingServer(t, http.StatusOK)
	c := newCountingServer(t, http.StatusOK)
	a := deadHost(t)

	var failovers []string

	pool, err := session.New([]string{a, b.host(), c.host()},
		session.WithTimeout(2*time.Second),
		session.WithFailoverHook(func(from, to string) {
			failovers = append(failovers, from+">"+to)
		}),
	)
	require.NoError(t, err)

	resp := get(t, pool)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, b.host(), resp.Host)
	assert.Equal(t, b.host(), pool.Active())

	// Subsequent calls go straight to the adopted host.
	resp = get(t, pool)
	assert.Equal(t, b.host(), resp.Host)
	assert.Equal(t, int32(2), b.hits.Load())
	assert.Equal(t, int32(0), c.hits.Load())
	assert.Equal(t, []string{">" + b.host()}, failovers)
}

func TestPool_ActiveFailsOver(t *testing.T) {
	t.Parallel()

	b := newCountingServer(t, http.StatusOK)
	c := newCountingServer(t, http.StatusOK)

	pool, err := session.New([]string{b.host(), c.host()})
	require.NoError(t, err)

	assert.Equal(t, b.host(), get(t, pool).Host)

	b.Close()

	resp := get(t, pool)
	assert.Equal(t, c.host(), resp.Host)
	assert.Equal(t, c.host(), pool.Active())
}

func TestPool_StatusIsNotFailure(t *testing.T) {
	t.Parallel()

	b := newCountingServer(t, http.StatusServiceUnavailable)
	c := newCountingServer(t, http.StatusOK)

	pool, err := session.New([]string{b.host(), c.host()})
	require.NoError(t, err)

	resp := get(t, pool)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(0), c.hits.Load())
}

func TestPool_AllHostsFail(t *testing.T) {
	t.Parallel()

	pool, err := session.New([]string{deadHost(t), deadHost(t)})
	require.NoError(t, err)

	_, err = pool.Do(context.Background(), &session.Request{Method: http.MethodGet, URL: "http://x:1/"})
	require.ErrorIs(t, err, vnc.ErrConnectionFailure)
	assert.Empty(t, pool.Active())
}

func TestPool_ContextCancelled(t *testing.T) {
	t.Parallel()

	b := newCountingServer(t, http.StatusOK)

	pool, err := session.New([]string{b.host()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Do(ctx, &session.Request{Method: http.MethodGet, URL: "http://x:1/"})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, vnc.ErrConnectionFailure)
}

func TestPool_RoundRobin(t *testing.T) {
	t.Parallel()

	pool, err := session.New([]string{"a", "b", "c"})
	require.NoError(t, err)

	var visited []string
	for range make([]struct{}, 7) {
		visited = append(visited, pool.RoundRobin())
	}

	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, visited)
}

func TestPool_RoundRobinResumesAfterAdoptedHost(t *testing.T) {
	t.Parallel()

	b := newCountingServer(t, http.StatusOK)
	c := newCountingServer(t, http.StatusOK)
	a := deadHost(t)

	pool, err := session.New([]string{a, b.host(), c.host()})
	require.NoError(t, err)

	get(t, pool)
	require.Equal(t, b.host(), pool.Active())

	assert.Equal(t, c.host(), pool.RoundRobin())
	assert.Equal(t, a, pool.RoundRobin())
}

func TestPool_LoadBalance(t *testing.T) {
	t.Parallel()

	b := newCountingServer(t, http.StatusOK)
	c := newCountingServer(t, http.StatusOK)

	pool, err := session.New([]string{b.host(), c.host()}, session.WithLoadBalance(true))
	require.NoError(t, err)

	for range make([]struct{}, 4) {
		get(t, pool)
	}

	assert.Equal(t, int32(2), b.hits.Load())
	assert.Equal(t, int32(2), c.hits.Load())
}

type recordingLogger struct {
	mu        sync.Mutex
	requests  []string
	responses []int
}

func (r *recordingLogger) LogRequest(method, url string, _ http.Header, _ []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, method+" "+url)
}

func (r *recordingLogger) LogResponse(status int, _ http.Header, _ []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.responses = append(r.responses, status)
}

func TestPool_RequestLogger(t *testing.T) {
	t.Parallel()

	b := newCountingServer(t, http.StatusAccepted)
	a := deadHost(t)
	rec := &recordingLogger{}

	pool, err := session.New([]string{a, b.host()}, session.WithRequestLogger(rec))
	require.NoError(t, err)

	_, err = pool.Do(context.Background(), &session.Request{
		Method: http.MethodPost,
		URL:    "http://placeholder:8082/fqname-to-id?x=1",
		Body:   []byte(`{}`),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST http://" + a + "/fqname-to-id?x=1",
		"POST http://" + b.host() + "/fqname-to-id?x=1",
	}, rec.requests)
	assert.Equal(t, []int{http.StatusAccepted}, rec.responses)
}

func TestRewriteHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		host     string
		expected string
	}{
		{"keeps port and path", "http://10.0.0.1:8082/virtual-networks?detail=true", "10.0.0.2", "http://10.0.0.2:8082/virtual-networks?detail=true"},
		{"no port", "https://api.example.com/x", "api2.example.com", "https://api2.example.com/x"},
		{"host with port", "http://10.0.0.1:8082/x", "127.0.0.1:9000", "http://127.0.0.1:9000/x"},
		{"ipv6", "http://[::1]:8082/x", "::2", "http://[::2]:8082/x"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := session.RewriteHost(tt.url, tt.host)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
