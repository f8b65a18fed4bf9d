package vncclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/vnc-client/internal/auth"
	"github.com/fivetwenty-io/vnc-client/internal/client"
	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// New creates a VNC API client and connects it to the API server.
func New(ctx context.Context, config *vnc.Config) (vnc.Client, error) {
	if config == nil {
		return nil, vnc.ErrConfigRequired
	}

	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	// Settle the identity protocol before the first API call can need it.
	if ks, ok := c.Auth().(*auth.Keystone); ok && config.AuthToken == "" {
		err = ks.Discover(ctx)
		if err != nil {
			_ = c.Close()

			return nil, fmt.Errorf("discovering identity provider: %w", err)
		}
	}

	err = c.Connect(ctx)
	if err != nil {
		_ = c.Close()

		return nil, err
	}

	return c, nil
}

// NewWithHosts creates a client for the given API servers without authentication.
func NewWithHosts(ctx context.Context, hosts ...string) (vnc.Client, error) {
	return New(ctx, &vnc.Config{
		Hosts: hosts,
	})
}

// NewWithToken creates a client that sends a fixed token and never logs in.
func NewWithToken(ctx context.Context, host, token string) (vnc.Client, error) {
	return New(ctx, &vnc.Config{
		Hosts:     []string{host},
		AuthToken: token,
		Auth:      vnc.AuthConfig{Strategy: vnc.AuthKeystone},
	})
}

// NewWithPassword creates a client that logs in to keystone with a username
// and password scoped to tenant.
func NewWithPassword(ctx context.Context, host, username, password, tenant string) (vnc.Client, error) {
	return New(ctx, &vnc.Config{
		Hosts: []string{host},
		Auth: vnc.AuthConfig{
			Strategy: vnc.AuthKeystone,
			Username: username,
			Password: password,
			Tenant:   tenant,
		},
	})
}
