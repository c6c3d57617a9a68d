package ledger

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/admin"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/health"
	planslist "github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/plans/list"
	plansread "github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/plans/read"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/secret/recovery"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/secret/rotate"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/secret/verify"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/settings"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/subscription/gift"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/subscription/subscribe"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/middlewarectx"
	ledgerservice "github.com/magabrotheeeer/subscription-ledger/internal/services/ledger"
)

// Deps — зависимости HTTP-маршрутов.
type Deps struct {
	Service *ledgerservice.Service
	Tokens  middlewarectx.TokenParser
	Metrics prometheus.Gatherer
	Health  map[string]health.Check
	Limit   float64
	Burst   int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	svc := deps.Service

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, deps.Limit, deps.Burst))

		// Открытые конечные точки
		r.Get("/plans", planslist.New(logger, svc).ServeHTTP)
		r.Get("/plans/{tier}", plansread.New(logger, svc).ServeHTTP)
		r.Get("/settings", settings.New(logger, svc).ServeHTTP)
		r.Post("/secret/verify", verify.New(logger, svc).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))

			r.Post("/subscriptions", subscribe.New(logger, svc).ServeHTTP)
			r.Post("/subscriptions/gift", gift.New(logger, svc).ServeHTTP)

			adminHandler := admin.New(logger, svc)
			r.Put("/admin/handler", adminHandler.SetHandlerAddress)
			r.Put("/admin/recovery-fee", adminHandler.SetRecoveryFee)
			r.Put("/admin/plans/{tier}/price", adminHandler.SetPlanPrice)
			r.Put("/admin/plans/{tier}/duration", adminHandler.SetPlanDuration)

			// Только для подписчиков и владельца
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AccessGateMiddleware(logger, svc.Gate()))
				r.Get("/subscriptions/active", status.New(logger, svc).ServeHTTP)
				r.Post("/secret/recover", recovery.New(logger, svc).ServeHTTP)
				r.Put("/secret", rotate.New(logger, svc).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, deps.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
}
