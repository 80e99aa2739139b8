// Package discernapi собирает основное HTTP-приложение: хранилище, кэш,
// брокер сообщений, клиентов внешних систем и маршруты.
package discernapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/discern-api/internal/agentrunner"
	"github.com/magabrotheeeer/discern-api/internal/cache"
	"github.com/magabrotheeeer/discern-api/internal/config"
	"github.com/magabrotheeeer/discern-api/internal/lib/jwt"
	"github.com/magabrotheeeer/discern-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/discern-api/internal/migrations"
	"github.com/magabrotheeeer/discern-api/internal/paymentprovider"
	agentservice "github.com/magabrotheeeer/discern-api/internal/services/agent"
	authservice "github.com/magabrotheeeer/discern-api/internal/services/auth"
	billingservice "github.com/magabrotheeeer/discern-api/internal/services/billing"
	"github.com/magabrotheeeer/discern-api/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и подключения к внешним системам.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает и настраивает приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		return nil, err
	}
	publisher := &rabbitmq.ChannelPublisher{Ch: ch}

	providerClient := paymentprovider.NewClient(cfg.Billing.APIURL, cfg.Billing.SecretKey, cfg.Billing.TimeoutBilling)
	runnerClient := agentrunner.NewClient(cfg.AgentRunner.AddressAgent, cfg.AgentRunner.TimeoutAgent)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker)
	billingService := billingservice.New(db, providerClient, cacheRedis, logger, cfg.Billing)
	webhookService := billingservice.NewWebhookService(db, db, cacheRedis, publisher, logger)
	agentService := agentservice.New(db, runnerClient, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, authService, billingService, webhookService, agentService, cfg.Billing.WebhookSecret)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
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
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.ch.Close()
		_ = a.conn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
