// Package discernapi предоставляет маршруты для основного приложения.
package discernapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/discern-api/internal/http/handlers/agent/sendmessage"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/billing/cancel"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/billing/portal"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/billing/starttrial"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/billing/status"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/billing/subscribenow"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/discern-api/internal/http/handlers/health"
	"github.com/magabrotheeeer/discern-api/internal/http/middlewarectx"
	agentservice "github.com/magabrotheeeer/discern-api/internal/services/agent"
	authservice "github.com/magabrotheeeer/discern-api/internal/services/auth"
	billingservice "github.com/magabrotheeeer/discern-api/internal/services/billing"
	"github.com/magabrotheeeer/discern-api/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	authService *authservice.AuthService, billingService *billingservice.Service,
	webhookService *billingservice.WebhookService, agentService *agentservice.Service,
	webhookSecret string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/billing/trial", starttrial.New(logger, billingService).ServeHTTP)
			r.Post("/billing/subscribe", subscribenow.New(logger, billingService).ServeHTTP)
			r.Post("/billing/cancel", cancel.New(logger, billingService).ServeHTTP)
			r.Get("/billing/portal", portal.New(logger, billingService).ServeHTTP)
			r.Get("/billing/status", status.New(logger, billingService).ServeHTTP)
			r.Post("/agent/message", sendmessage.New(logger, agentService).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", webhook.New(logger, webhookService, webhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
