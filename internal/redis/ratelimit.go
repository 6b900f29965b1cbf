package redis

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// SimpleRateLimit is a fixed window rate limiter. Fast, slightly inaccurate
// at window boundaries, which is fine for webhook abuse protection.
//
// Increment and expiry run in one script so a counter can never be created
// without its TTL; an INCR followed by a separate failed EXPIRE would leave
// the key counting forever.
func (c *Client) SimpleRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	prefixedKey := c.prefixKey("ratelimit:" + key)

	script := `
	local count = redis.call("incr", KEYS[1])
	if count == 1 then
		redis.call("expire", KEYS[1], ARGV[1])
	end
	return count
	`
	count, err := c.rdb.Eval(ctx, script, []string{prefixedKey}, int64(window.Seconds())).Int64()
	if err != nil {
		return false, err
	}

	return count <= limit, nil
}
