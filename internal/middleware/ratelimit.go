package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okoapay/c2b-console/internal/redis"
)

type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redis *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redis,
		limit:  limit,
		window: window,
	}
}

// LimitWebhooks applies a fixed-window limit keyed by the shortcode id in the
// URL. Gateways retry aggressively; the limiter fails open on Redis errors so
// an outage never drops legitimate callbacks.
func (rl *RateLimiter) LimitWebhooks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "shortcodeID")
		if key == "" {
			key = r.RemoteAddr
		}

		allowed, err := rl.redis.SimpleRateLimit(r.Context(), "webhook:"+key, rl.limit, rl.window)
		if err == nil && !allowed {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
