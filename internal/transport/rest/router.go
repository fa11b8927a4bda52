package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/fylein/fyle-integrations-imports/internal/transport/middleware"
	"github.com/fylein/fyle-integrations-imports/internal/webhook"
)

// RegisterAllRoutes wires the webhook endpoint and health checks onto the
// router with the shared middleware stack.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, webhookHandler *webhook.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if webhookHandler != nil {
			webhookHandler.RegisterRoutes(r)
		}
	})
}
