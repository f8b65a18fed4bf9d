package client_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("fetches the document", func(t *testing.T) {
		t.Parallel()

		fs := newFakeServer(t)
		c := newTestClient(t, fs, nil)

		require.NoError(t, c.Connect(context.Background()))
		assert.Len(t, fs.seen(http.MethodGet, "/"), 1)
		assert.InDelta(t, 1, testutil.ToFloat64(c.Metrics().Discovery), 0)

		caps := c.Capabilities()
		assert.Equal(t, fs.server.URL, caps.RootURL())

		ep, ok := caps.Type("virtual-network")
		require.True(t, ok)
		assert.Equal(t, "/virtual-networks", ep.CreateURI)
		assert.Equal(t, "/virtual-network", ep.ResourceBase)
	})

	t.Run("retries while unavailable", func(t *testing.T) {
		t.Parallel()

		fs := newFakeServer(t)
		doc := fs.document()
		fs.sequence(http.MethodGet, "/", doc, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK)

		c := newTestClient(t, fs, nil)

		require.NoError(t, c.Connect(context.Background()))
		assert.Len(t, fs.seen(http.MethodGet, "/"), 3)
		assert.InDelta(t, 2, testutil.ToFloat64(c.Metrics().Retries.WithLabelValues("connect")), 0)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		t.Parallel()

		fs := newFakeServer(t)
		fs.sequence(http.MethodGet, "/", nil, http.StatusServiceUnavailable)

		c := newTestClient(t, fs, func(cfg *vnc.Config) { cfg.ConnectRetries = 4 })

		err := c.Connect(context.Background())
		require.ErrorIs(t, err, vnc.ErrServiceUnavailable)
		assert.Contains(t, err.Error(), "4 attempts")
		assert.Len(t, fs.seen(http.MethodGet, "/"), 4)
	})

	t.Run("other errors abort", func(t *testing.T) {
		t.Parallel()

		fs := newFakeServer(t)
		fs.reply(http.MethodGet, "/", http.StatusForbidden, nil)

		c := newTestClient(t, fs, nil)

		err := c.Connect(context.Background())
		require.ErrorIs(t, err, vnc.ErrPermissionDenied)
		assert.Len(t, fs.seen(http.MethodGet, "/"), 1)
	})

	t.Run("waits until cancelled", func(t *testing.T) {
		t.Parallel()

		fs := newFakeServer(t)
		fs.sequence(http.MethodGet, "/", nil, http.StatusServiceUnavailable)

		c := newTestClient(t, fs, func(cfg *vnc.Config) {
			cfg.WaitForConnect = true
			cfg.ConnectRetries = 1
		})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := c.Connect(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Greater(t, len(fs.seen(http.MethodGet, "/")), 1)
	})
}

func TestHomepage_RefetchesEveryCall(t *testing.T) {
	t.Parallel()

	fs := newFakeServer(t)
	c := newTestClient(t, fs, nil)

	doc, err := c.Homepage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fs.server.URL, doc.Href)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, fs.seen(http.MethodGet, "/"), 2)
}

func TestRequestServer_RequiresRootURL(t *testing.T) {
	t.Parallel()

	fs := newFakeServer(t)
	fs.reply(http.MethodGet, "/", http.StatusOK, &vnc.DiscoveryDocument{
		Links: []vnc.LinkWrapper{{Link: vnc.Link{Rel: vnc.RelAction, Name: "name-to-id", Href: "/name-to-id"}}},
	})

	c := newTestClient(t, fs, nil)

	_, err := c.FQNameToID(context.Background(), "project", []string{"default-domain", "admin"})
	require.ErrorIs(t, err, vnc.ErrNoRootURL)
	assert.Empty(t, fs.seen(http.MethodPost, "/name-to-id"))
}

func TestRequestServer_LazyDiscovery(t *testing.T) {
	t.Parallel()

	fs := newFakeServer(t)
	fs.reply(http.MethodPost, "/name-to-id", http.StatusOK, map[string]string{"uuid": "u-1"})

	c := newTestClient(t, fs, nil)

	for range make([]struct{}, 2) {
		id, err := c.FQNameToID(context.Background(), "project", []string{"default-domain", "admin"})
		require.NoError(t, err)
		assert.Equal(t, "u-1", id)
	}

	assert.Len(t, fs.seen(http.MethodGet, "/"), 1, "the document is fetched on first use only")
}
