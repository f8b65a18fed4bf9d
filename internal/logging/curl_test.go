package logging

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCommand(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set("X-Auth-Token", "abc123")
	header.Set("Content-Type", "application/json")

	tests := []struct {
		name     string
		method   string
		body     []byte
		expected string
	}{
		{
			name:     "post carries payload",
			method:   http.MethodPost,
			body:     []byte(`{"uuid":"x"}`),
			expected: `curl -X POST -H "Content-Type:application/json" -H "X-Auth-Token:$TOKEN" -d '{"uuid":"x"}' http://h:8082/id-to-fqname`,
		},
		{
			name:     "get has no payload",
			method:   http.MethodGet,
			body:     []byte(`ignored`),
			expected: `curl -X GET -H "Content-Type:application/json" -H "X-Auth-Token:$TOKEN" http://h:8082/id-to-fqname`,
		},
		{
			name:     "delete has no payload",
			method:   http.MethodDelete,
			expected: `curl -X DELETE -H "Content-Type:application/json" -H "X-Auth-Token:$TOKEN" http://h:8082/id-to-fqname`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Command(tt.method, "http://h:8082/id-to-fqname", header, tt.body))
		})
	}
}

func TestCurlLogger_Entries(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithLogger(zap.New(core))

	logger.LogRequest(http.MethodGet, "http://h/", http.Header{}, nil)
	logger.LogResponse(200, http.Header{}, []byte("{}"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "curl -X GET http://h/", entries[0].Message)
	assert.Equal(t, "RESP: 200 map[] {}", entries[1].Message)
	assert.Empty(t, logger.Path())
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()

	t.Run("bare name goes to default dir", func(t *testing.T) {
		t.Parallel()

		path, err := resolvePath("vnc-api.log", filepath.Join(base, "default"), filepath.Join(base, "fallback"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "default", "vnc-api.log"), path)
	})

	t.Run("absolute path kept", func(t *testing.T) {
		t.Parallel()

		want := filepath.Join(base, "custom", "trace.log")
		path, err := resolvePath(want, filepath.Join(base, "default"), filepath.Join(base, "fallback"))
		require.NoError(t, err)
		assert.Equal(t, want, path)
	})

	t.Run("falls back when directory cannot be created", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(base, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		path, err := resolvePath(filepath.Join(blocker, "sub", "trace.log"), filepath.Join(base, "default"), filepath.Join(base, "fallback"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "fallback", "trace.log"), path)
	})
}

func TestNew_WritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "curl.log")

	logger, err := New(path)
	require.NoError(t, err)

	logger.LogRequest(http.MethodPut, "http://h/x", http.Header{}, []byte(`{}`))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "curl -X PUT -d '{}' http://h/x")
	assert.Equal(t, path, logger.Path())
}
