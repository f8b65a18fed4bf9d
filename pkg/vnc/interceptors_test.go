package vnc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

var errRejected = errors.New("rejected")

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	t.Parallel()

	chain := vnc.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *vnc.Request) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddRequestInterceptor(func(ctx context.Context, req *vnc.Request) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	req := &vnc.Request{
		Method: "GET",
		URI:    "/virtual-networks",
	}

	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := vnc.NewInterceptorChain()
	called := false

	chain.AddResponseInterceptor(func(ctx context.Context, req *vnc.Request, resp *vnc.Response) error {
		return errRejected
	})
	chain.AddResponseInterceptor(func(ctx context.Context, req *vnc.Request, resp *vnc.Response) error {
		called = true

		return nil
	})

	err := chain.ExecuteResponseInterceptors(context.Background(), &vnc.Request{}, &vnc.Response{})
	require.ErrorIs(t, err, errRejected)
	assert.False(t, called)
}

func TestInterceptorChain_Nil(t *testing.T) {
	t.Parallel()

	var chain *vnc.InterceptorChain

	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), &vnc.Request{}))
	require.NoError(t, chain.ExecuteResponseInterceptors(context.Background(), &vnc.Request{}, &vnc.Response{}))
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := vnc.HeaderInterceptor(map[string]string{
		"X-Request-ID": "123456",
	})
	req := &vnc.Request{Method: "GET", URI: "/"}

	err := interceptor(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "123456", req.Headers.Get("X-Request-ID"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := vnc.NewZapLogger(zap.New(core))
	req := &vnc.Request{Method: "POST", URI: "/fqname-to-id"}

	require.NoError(t, vnc.LoggingInterceptor(logger)(context.Background(), req))
	require.NoError(t, vnc.LoggingResponseInterceptor(logger)(context.Background(), req, &vnc.Response{StatusCode: 200}))
	require.NoError(t, vnc.LoggingResponseInterceptor(logger)(context.Background(), req, &vnc.Response{
		StatusCode: 404,
		Error:      vnc.ErrNotFound,
	}))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, "API Request", entries[0].Message)
	assert.Equal(t, "/fqname-to-id", entries[0].ContextMap()["uri"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "resource not found", entries[2].ContextMap()["error"])
}
