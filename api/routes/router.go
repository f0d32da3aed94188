package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/hookrelay-backend/api/controllers"
	integrationcontrollers "github.com/angelmondragon/hookrelay-backend/api/controllers/integrations"
	webhookcontrollers "github.com/angelmondragon/hookrelay-backend/api/controllers/webhooks"
	"github.com/angelmondragon/hookrelay-backend/api/middleware"
	"github.com/angelmondragon/hookrelay-backend/internal/integrations"
	"github.com/angelmondragon/hookrelay-backend/pkg/config"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
	"github.com/angelmondragon/hookrelay-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	rateLimiter redis.RateLimiter,
	publisher queue.Publisher,
	integrationsService integrations.Service,
	deliveryService webhookcontrollers.DeliveryService,
	readiness ...controllers.Dependency,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Public.AllowedOrigins),
	)

	inboundPolicy := middleware.NewRateLimitPolicy(
		"inbound",
		"urlCode",
		cfg.RateLimit.InboundWindow,
		cfg.RateLimit.InboundLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.With(middleware.RateLimit(inboundPolicy, rateLimiter, logg)).
		Post("/v1/webhooks/{urlCode}", webhookcontrollers.Inbound(publisher, cfg.Dispatch.MaxInboundBodyBytes, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/", webhookcontrollers.DeliveryList(deliveryService, logg))
			r.Post("/{id}/retry", webhookcontrollers.DeliveryRetry(deliveryService, logg))
		})

		r.Route("/integrations", func(r chi.Router) {
			r.Get("/available", integrationcontrollers.Available(integrationsService, logg))
			r.Get("/", integrationcontrollers.List(integrationsService, logg))
			r.Post("/", integrationcontrollers.Create(integrationsService, logg))
			r.Get("/{id}", integrationcontrollers.Get(integrationsService, logg))
			r.Patch("/{id}", integrationcontrollers.Update(integrationsService, logg))
			r.Delete("/{id}", integrationcontrollers.Delete(integrationsService, logg))
		})
	})

	return r
}
