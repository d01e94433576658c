package handler

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gobazaar/marketcore/internal/config"
	"github.com/gobazaar/marketcore/internal/middleware"
	"github.com/gobazaar/marketcore/internal/observability"
)

// NewRouter wires the public API. Everything under /api requires an
// authenticated principal; health and metrics stay open.
func NewRouter(
	orders *OrderHandler,
	messages *MessageHandler,
	db *sql.DB,
	cfg *config.Config,
) *chi.Mux {

	r := chi.NewRouter()
	r.Use(observability.MetricsMiddleware(cfg.ServiceName))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health/live", observability.HealthLiveHandler)
	r.Get("/health/ready", observability.HealthReadyHandler(db))

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.JWT([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience))

		api.Post("/orders", orders.Create)
		api.Patch("/orders/{id}", orders.UpdateStatus)
		api.Get("/orders", orders.List)

		api.Post("/messages", messages.Send)
		api.Get("/conversations", messages.ListConversations)
		api.Get("/conversations/{counterpartID}", messages.GetConversation)
	})

	return r
}
