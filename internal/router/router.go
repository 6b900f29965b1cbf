package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okoapay/c2b-console/internal/middleware"
	"github.com/okoapay/c2b-console/internal/redis"
	"github.com/okoapay/c2b-console/internal/server"
	"github.com/okoapay/c2b-console/internal/shortcode"
	"github.com/okoapay/c2b-console/internal/transaction"
	"github.com/okoapay/c2b-console/internal/webhook"
)

type Handlers struct {
	Shortcode   *shortcode.ShortcodeHandler
	Transaction *transaction.TransactionHandler
	Webhook     *webhook.WebhookHandler
}

func NewRouter(s *server.Server, redisClient *redis.Client, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	mw := middleware.NewMiddlewares(s, redisClient)

	// Apply middleware in order
	r.Use(middleware.RequestID)
	r.Use(mw.Tracing.NewRelicMiddleware())
	r.Use(mw.Tracing.EnhanceTracing)
	r.Use(mw.ContextEnhancer.EnhanceContext)
	r.Use(mw.Global.RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/shortcodes", func(r chi.Router) {
			r.Get("/", h.Shortcode.List)
			r.Post("/", h.Shortcode.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Shortcode.Get)
				r.Put("/", h.Shortcode.Update)
				r.Put("/rules", h.Shortcode.UpsertRule)
				r.Post("/register-urls", h.Shortcode.RegisterURLs)
				r.Post("/simulate", h.Shortcode.Simulate)
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.Transaction.List)
			r.Get("/export.csv", h.Transaction.ExportCSV)
		})
	})

	// Webhook routes called by Daraja; gated by the per-shortcode token in
	// the path and a per-shortcode rate limit.
	r.Route("/webhooks/c2b/{shortcodeID}/{token}", func(r chi.Router) {
		r.Use(mw.RateLimiter.LimitWebhooks)
		r.Post("/validation", h.Webhook.HandleValidation)
		r.Post("/confirmation", h.Webhook.HandleConfirmation)
	})

	return r
}
