package middleware

import (
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/okoapay/c2b-console/internal/redis"
	"github.com/okoapay/c2b-console/internal/server"
)

type Middlewares struct {
	Global          *Global
	ContextEnhancer *ContextEnhancer
	Tracing         *Tracing
	RateLimiter     *RateLimiter
}

func NewMiddlewares(s *server.Server, redisClient *redis.Client) *Middlewares {

	var nrApp *newrelic.Application

	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobal(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracing(nrApp),
		RateLimiter:     NewRateLimiter(redisClient, s.Config.Server.WebhookRateLimit, s.Config.Server.WebhookRateLimitWindow),
	}
}
