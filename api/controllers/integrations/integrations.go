package integrations

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/api/middleware"
	"github.com/angelmondragon/hookrelay-backend/api/responses"
	"github.com/angelmondragon/hookrelay-backend/api/validators"
	internalintegrations "github.com/angelmondragon/hookrelay-backend/internal/integrations"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/pagination"
)

// Available lists the catalog, optionally narrowed to one source platform.
func Available(svc internalintegrations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "integrations service unavailable"))
			return
		}
		source := validators.SanitizeString(r.URL.Query().Get("source"), 64)
		responses.WriteSuccess(w, svc.Available(source))
	}
}

// List returns the account's routing rules.
func List(svc internalintegrations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, ok := requireAccount(w, r, svc, logg)
		if !ok {
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		resp, err := svc.List(ctx, accountID, internalintegrations.ListParams{
			Status: strings.TrimSpace(query.Get("status")),
			Source: validators.SanitizeString(query.Get("source"), 64),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// Create registers a new routing rule for the account.
func Create(svc internalintegrations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, ok := requireAccount(w, r, svc, logg)
		if !ok {
			return
		}

		var input internalintegrations.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp, err := svc.Create(ctx, accountID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// Get returns one routing rule.
func Get(svc internalintegrations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, ok := requireAccount(w, r, svc, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg)
		if !ok {
			return
		}

		resp, err := svc.Get(ctx, accountID, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// Update applies a partial change to a routing rule.
func Update(svc internalintegrations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, ok := requireAccount(w, r, svc, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg)
		if !ok {
			return
		}

		var input internalintegrations.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp, err := svc.Update(ctx, accountID, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// Delete removes a routing rule.
func Delete(svc internalintegrations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, ok := requireAccount(w, r, svc, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg)
		if !ok {
			return
		}

		resp, err := svc.Delete(ctx, accountID, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func requireAccount(w http.ResponseWriter, r *http.Request, svc internalintegrations.Service, logg *logger.Logger) (uuid.UUID, bool) {
	ctx := r.Context()
	if svc == nil {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "integrations service unavailable"))
		return uuid.Nil, false
	}
	accountID := middleware.AccountIDFromContext(ctx)
	if accountID == uuid.Nil {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
		return uuid.Nil, false
	}
	return accountID, true
}

func pathID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid integration id").
			WithDetails(map[string]any{"field": "id"}))
		return uuid.Nil, false
	}
	return id, true
}
