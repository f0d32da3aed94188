package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

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
	"github.com/angelmondragon/hookrelay-backend/pkg/pubsub"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue/pubsubq"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue/sqsq"
	"github.com/angelmondragon/hookrelay-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"instance":     getInstanceID(),
		"queue_driver": cfg.Queue.Driver,
	})
	logg.Info(ctx, "starting worker")

	dbClient, err := db.New(ctx, cfg.DB.ForService("hookrelay-worker"), logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	receiver, queuePinger, queueCloser, err := newReceiver(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap queue receiver", err)
		_ = redisClient.Close()
		_ = dbClient.Close()
		os.Exit(1)
	}

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deliveryMetrics := metrics.NewDeliveryMetrics(registry)

	gormDB := dbClient.DB()
	webhooksService, err := webhooks.NewService(webhooks.ServiceParams{
		Webhooks:   webhooks.NewRepository(gormDB),
		Rules:      integrations.NewRepository(gormDB),
		Usage:      usage.NewRepository(gormDB),
		Signatures: signatures.NewRepository(gormDB),
		Dispatcher: orchestrator,
		Metrics:    deliveryMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhooks service", err)
		os.Exit(1)
	}

	consumer, err := webhooks.NewConsumer(webhooks.ConsumerParams{
		Receiver:  receiver,
		Processor: webhooksService,
		Dedup:     redisClient,
		Metrics:   deliveryMetrics,
		Logger:    logg,
		Config:    cfg.Consumer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create inbound consumer", err)
		os.Exit(1)
	}

	metricsAddr := ""
	if port := os.Getenv("PORT"); port != "" {
		metricsAddr = ":" + port
	} else if cfg.App.Port != "" {
		metricsAddr = ":" + cfg.App.Port
	}

	svc, err := NewService(ServiceParams{
		Logger:   logg,
		Consumer: consumer,
		Dependencies: []dependency{
			{name: "database", pinger: dbClient},
			{name: "redis", pinger: redisClient},
			{name: "queue", pinger: queuePinger},
		},
		Gatherer:    registry,
		MetricsAddr: metricsAddr,
		Closers:     []io.Closer{queueCloser, redisClient, dbClient},
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	runErr := svc.Run(ctx)
	if err := svc.Close(); err != nil {
		logg.Error(ctx, "error closing worker dependencies", err)
	}
	if runErr != nil {
		logg.Error(ctx, "worker stopped with error", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newReceiver builds the inbound receiver for the configured driver.
func newReceiver(ctx context.Context, cfg *config.Config, logg *logger.Logger) (queue.Receiver, pinger, io.Closer, error) {
	switch cfg.Queue.Driver {
	case config.QueueDriverSQS:
		q, err := sqsq.New(cfg.SQS)
		if err != nil {
			return nil, nil, nil, err
		}
		return q, q, closerFunc(func() error { return nil }), nil
	default:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		receiver, err := pubsubq.NewReceiver(client.SubscriptionAdmin(), client.InboundSubscriptionName())
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		return receiver, client, client, nil
	}
}

func getInstanceID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	return "worker-0"
}
