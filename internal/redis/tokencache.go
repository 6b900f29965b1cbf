package redis

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTokenNotCached = errors.New("gateway token not cached")

// tokenKey derives the cache key from the consumer key only; the consumer
// secret never appears in cache keys or logs.
func tokenKey(consumerKey string) string {
	return "daraja:token:" + base64.RawURLEncoding.EncodeToString([]byte(consumerKey))
}

// GetGatewayToken returns a cached Daraja access token for a consumer key.
func (c *Client) GetGatewayToken(ctx context.Context, consumerKey string) (string, error) {
	val, err := c.rdb.Get(ctx, c.prefixKey(tokenKey(consumerKey))).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotCached
	}
	return val, err
}

// SetGatewayToken caches a Daraja access token until it expires.
func (c *Client) SetGatewayToken(ctx context.Context, consumerKey, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefixKey(tokenKey(consumerKey)), token, ttl).Err()
}
