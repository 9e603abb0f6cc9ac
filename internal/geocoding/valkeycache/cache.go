// Package valkeycache is a Valkey-backed shared cache for geocoding results.
package valkeycache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/tacnavial/tacnavial/internal/geocoding"
)

// Cache implements geocoding.Cache on a Valkey (Redis-compatible) server.
type Cache struct {
	client valkey.Client
}

// New connects to the Valkey server at addr.
func New(addr string, dialTimeout time.Duration) (*Cache, error) {
	if dialTimeout == 0 {
		dialTimeout = 3 * time.Second
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Dialer:      net.Dialer{Timeout: dialTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get returns the value stored under key. A missing key is reported with
// ok=false and no error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	b, err := cmd.AsBytes()
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(key).Value(string(value)).Ex(ttl).Build(),
	)
	return cmd.Error()
}

// Ping checks the connection, for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}

var _ geocoding.Cache = (*Cache)(nil)
