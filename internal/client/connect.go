package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// fetchHomepage is the discovery loader. It bypasses the homepage guard and
// the 502/503 backoff.
func (c *Client) fetchHomepage(ctx context.Context) (*vnc.DiscoveryDocument, error) {
	c.metrics.Discovery.Inc()

	resp, err := c.Do(ctx, &vnc.Request{
		Method:  http.MethodGet,
		URI:     c.cfg.BaseURL,
		NoRetry: true,
	})
	if err != nil {
		return nil, err
	}

	var doc vnc.DiscoveryDocument

	err = json.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing discovery document: %w", err)
	}

	return &doc, nil
}

// Connect fetches the discovery document. A 502/503 answer is retried up to
// ConnectRetries attempts, or forever with WaitForConnect; anything else
// aborts immediately.
func (c *Client) Connect(ctx context.Context) error {
	attempts := 0

	for {
		_, err := c.resolver.Refresh(ctx)
		if err == nil {
			return nil
		}

		if !errors.Is(err, vnc.ErrServiceUnavailable) {
			return fmt.Errorf("connecting to API server: %w", err)
		}

		attempts++

		c.logger.Warn("API server unavailable during connect", map[string]interface{}{
			"attempt": attempts,
			"error":   err.Error(),
		})

		if !c.cfg.WaitForConnect && attempts >= c.cfg.ConnectRetries {
			return fmt.Errorf("connecting to API server after %d attempts: %w", attempts, err)
		}

		c.metrics.ObserveRetry("connect")

		err = c.sleep(ctx)
		if err != nil {
			return err
		}
	}
}

// Homepage implements vnc.Client.Homepage.
func (c *Client) Homepage(ctx context.Context) (*vnc.DiscoveryDocument, error) {
	doc, err := c.resolver.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting homepage: %w", err)
	}

	return doc, nil
}

// Refresh implements vnc.Client.Refresh.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.Homepage(ctx)

	return err
}
