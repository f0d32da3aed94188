package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

type dependency struct {
	name   string
	pinger pinger
}

type ServiceParams struct {
	Logger       *logger.Logger
	Consumer     runner
	Dependencies []dependency
	Gatherer     prometheus.Gatherer
	MetricsAddr  string
	Closers      []io.Closer
}

// Service runs the inbound consumer and a small metrics listener until the
// context is cancelled.
type Service struct {
	logg     *logger.Logger
	consumer runner
	deps     []dependency
	gatherer prometheus.Gatherer
	addr     string
	closers  []io.Closer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("consumer is required")
	}
	return &Service{
		logg:     params.Logger,
		consumer: params.Consumer,
		deps:     params.Dependencies,
		gatherer: params.Gatherer,
		addr:     params.MetricsAddr,
		closers:  params.Closers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := pingDependency(ctx, s.logg, dep.name, dep.pinger.Ping); err != nil {
			return err
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	server := s.metricsServer()
	if server != nil {
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logg.Error(ctx, "worker metrics server stopped", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	err := s.consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		return err
	}
	s.logg.Info(ctx, "worker context canceled")
	return nil
}

func (s *Service) metricsServer() *http.Server {
	if s.gatherer == nil || s.addr == "" {
		return nil
	}
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{Addr: s.addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
}

// Close releases every client, reporting all failures together.
func (s *Service) Close() error {
	var errs error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		errs = multierr.Append(errs, c.Close())
	}
	return errs
}
