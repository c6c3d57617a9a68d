// Package ledger собирает приложение леджера подписок: хранилище, кеш,
// публикацию событий, Payment Handler и HTTP-сервер.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/subscription-ledger/internal/cache"
	"github.com/magabrotheeeer/subscription-ledger/internal/config"
	"github.com/magabrotheeeer/subscription-ledger/internal/events"
	"github.com/magabrotheeeer/subscription-ledger/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-ledger/internal/metrics"
	"github.com/magabrotheeeer/subscription-ledger/internal/migrations"
	"github.com/magabrotheeeer/subscription-ledger/internal/paymenthandler"
	ledgerservice "github.com/magabrotheeeer/subscription-ledger/internal/services/ledger"
	"github.com/magabrotheeeer/subscription-ledger/internal/services/registry"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage/memory"
	"github.com/magabrotheeeer/subscription-ledger/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — собранное приложение леджера.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	service *ledgerservice.Service
	closers []io.Closer
}

// New создаёт все зависимости по конфигу и инициализирует леджер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.ledger.New"
	app := &App{logger: logger}

	repo, err := app.storage(cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publisher, err := app.publisher(cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	opts := []ledgerservice.Option{
		ledgerservice.WithMetrics(metrics.New(reg)),
	}
	checks := make(map[string]health.Check)
	if cfg.RedisConnection.Enabled {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, redisCache)
		opts = append(opts, ledgerservice.WithCache(redisCache, cfg.CacheTTL))
		checks["cache"] = redisCache.Ping
	}

	service := ledgerservice.New(
		repo,
		paymenthandler.NewClient(cfg.PaymentHandler, logger),
		registry.NewStatic(cfg.Owner, cfg.Admins),
		publisher,
		logger,
		opts...,
	)
	if err := service.Bootstrap(ctx, cfg.Owner, cfg.Ledger.Plans(), cfg.Ledger.Settings()); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.service = service
	checks["storage"] = func(ctx context.Context) error {
		_, err := service.SubscriberCount(ctx)
		return err
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Service: service,
		Tokens:  jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Metrics: reg,
		Health:  checks,
		Limit:   cfg.RateLimit,
		Burst:   cfg.RateBurst,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) storage(cfg *config.Config) (ledgerservice.Repository, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := repository.New(cfg.StorageConnectionString)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.DB)
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		if err := repository.CheckDatabaseReady(db); err != nil {
			return nil, err
		}
		a.logger.Info("using postgres storage")
		return db, nil
	default:
		a.logger.Info("using in-memory storage")
		return memory.New(), nil
	}
}

func (a *App) publisher(cfg *config.Config) (ledgerservice.EventPublisher, error) {
	if !cfg.RabbitMQ.Enabled {
		a.logger.Info("rabbitmq disabled, events are recorded in process")
		return events.NewRecorder(), nil
	}

	conn, err := rabbitmq.Connect(cfg.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn)

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.LedgerExchange, rabbitmq.GetLedgerQueues())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, ch)
	return events.NewAMQPPublisher(ch), nil
}

// Handler возвращает HTTP-обработчик приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// close освобождает ресурсы в обратном порядке их создания.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
