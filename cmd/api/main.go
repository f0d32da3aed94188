package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/hookrelay-backend/api/controllers"
	"github.com/angelmondragon/hookrelay-backend/api/routes"
	"github.com/angelmondragon/hookrelay-backend/internal/catalog"
	"github.com/angelmondragon/hookrelay-backend/internal/integrations"
	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/internal/mapping/destinations"
	"github.com/angelmondragon/hookrelay-backend/internal/signatures"
	"github.com/angelmondragon/hookrelay-backend/internal/usage"
	"github.com/angelmondragon/hookrelay-backend/internal/webhooks"
	"github.com/angelmondragon/hookrelay-backend/pkg/config"
	"github.com/angelmondragon/hookrelay-backend/pkg/db"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/metrics"
	"github.com/angelmondragon/hookrelay-backend/pkg/migrate"
	"github.com/angelmondragon/hookrelay-backend/pkg/pubsub"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue/pubsubq"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue/sqsq"
	"github.com/angelmondragon/hookrelay-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB.ForService("hookrelay-api"), logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	publisher, queuePinger, closeQueue, err := newPublisher(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap queue publisher", err)
		os.Exit(1)
	}
	defer closeQueue()

	// retries dispatch from the API process, so it carries the full mapper registry
	orchestrator, err := mapping.NewOrchestrator(
		destinations.All(mapping.NewSender(mapping.SenderOptions{Timeout: cfg.Dispatch.Timeout, UserAgent: cfg.Dispatch.UserAgent}),
			destinations.Options{TheMembersBaseURL: cfg.Dispatch.TheMembersBaseURL}),
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to build mapper registry", err)
		os.Exit(1)
	}

	integrationCatalog, err := catalog.Load()
	if err != nil {
		logg.Error(ctx, "failed to load integration catalog", err)
		os.Exit(1)
	}
	if err := integrationCatalog.Validate(orchestrator.Keys()); err != nil {
		logg.Error(ctx, "integration catalog references unregistered routes", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	integrationsRepo := integrations.NewRepository(gormDB)
	usageRepo := usage.NewRepository(gormDB)
	signaturesRepo := signatures.NewRepository(gormDB)

	integrationsService, err := integrations.NewService(integrations.ServiceParams{
		Repo:       integrationsRepo,
		Usage:      usageRepo,
		Signatures: signaturesRepo,
		Catalog:    integrationCatalog,
		Routes:     orchestrator,
		Tx:         dbClient,
		WebhookURL: cfg.Public.WebhookURL,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create integrations service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deliveryMetrics := metrics.NewDeliveryMetrics(registry)

	webhooksService, err := webhooks.NewService(webhooks.ServiceParams{
		Webhooks:   webhooks.NewRepository(gormDB),
		Rules:      integrationsRepo,
		Usage:      usageRepo,
		Signatures: signaturesRepo,
		Dispatcher: orchestrator,
		Metrics:    deliveryMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhooks service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     id,
		"queue_driver": cfg.Queue.Driver,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			redisClient,
			publisher,
			integrationsService,
			webhooksService,
			controllers.Dependency{Name: "database", Pinger: dbClient},
			controllers.Dependency{Name: "redis", Pinger: redisClient},
			controllers.Dependency{Name: "queue", Pinger: queuePinger},
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown failed", err)
		}
	}
}

// newPublisher builds the inbound publisher for the configured driver.
func newPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger) (queue.Publisher, controllers.Pinger, func(), error) {
	switch cfg.Queue.Driver {
	case config.QueueDriverSQS:
		q, err := sqsq.New(cfg.SQS)
		if err != nil {
			return nil, nil, nil, err
		}
		return q, q, func() {}, nil
	default:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		publisher, err := pubsubq.NewPublisher(client.InboundPublisher())
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		closeFn := func() {
			publisher.Stop()
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}
		return publisher, client, closeFn, nil
	}
}
