package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/hookrelay-backend/api/responses"
	"github.com/angelmondragon/hookrelay-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
)

const readyTimeout = 3 * time.Second

// Pinger is any dependency the readiness endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names a pinger for the readiness report.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HookRelay-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HookRelay-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{}
		failed := false
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				failed = true
				checks[dep.Name] = "down"
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": dep.Name, "error": err.Error()}), "health.dependency_down")
				}
				continue
			}
			checks[dep.Name] = "up"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
