package webhooks

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/api/middleware"
	"github.com/angelmondragon/hookrelay-backend/api/responses"
	"github.com/angelmondragon/hookrelay-backend/api/validators"
	internalwebhooks "github.com/angelmondragon/hookrelay-backend/internal/webhooks"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/pagination"
)

// DeliveryService lists and re-runs delivery records for an account.
type DeliveryService interface {
	List(ctx context.Context, accountID uuid.UUID, params internalwebhooks.ListParams) (*internalwebhooks.ListResult, error)
	Retry(ctx context.Context, accountID, webhookID uuid.UUID) (*internalwebhooks.RetryResult, error)
}

// DeliveryList returns the account's delivery records, newest first.
func DeliveryList(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		accountID := middleware.AccountIDFromContext(ctx)
		if accountID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}

		// Out-of-range values are clamped by the service; only non-numeric input is rejected.
		page, err := validators.ParseQueryNumber(r, "page", pagination.DefaultPage)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryNumber(r, "limit", pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		resp, err := svc.List(ctx, accountID, internalwebhooks.ListParams{
			Page:          page,
			Limit:         limit,
			IntegrationID: strings.TrimSpace(query.Get("integrationId")),
			Status:        strings.TrimSpace(query.Get("status")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// DeliveryRetry re-runs a past delivery as a new linked record.
func DeliveryRetry(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		accountID := middleware.AccountIDFromContext(ctx)
		if accountID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}

		webhookID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook id").
				WithDetails(map[string]any{"field": "id"}))
			return
		}

		resp, err := svc.Retry(ctx, accountID, webhookID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
