package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/api/middleware"
	internalwebhooks "github.com/angelmondragon/hookrelay-backend/internal/webhooks"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
)

type fakeDeliveryService struct {
	listAccount  uuid.UUID
	listParams   internalwebhooks.ListParams
	retryAccount uuid.UUID
	retryID      uuid.UUID
	retryErr     error
}

func (f *fakeDeliveryService) List(ctx context.Context, accountID uuid.UUID, params internalwebhooks.ListParams) (*internalwebhooks.ListResult, error) {
	f.listAccount = accountID
	f.listParams = params
	return &internalwebhooks.ListResult{Webhooks: []internalwebhooks.WebhookDTO{}}, nil
}

func (f *fakeDeliveryService) Retry(ctx context.Context, accountID, webhookID uuid.UUID) (*internalwebhooks.RetryResult, error) {
	f.retryAccount = accountID
	f.retryID = webhookID
	if f.retryErr != nil {
		return nil, f.retryErr
	}
	return &internalwebhooks.RetryResult{Success: true, NewWebhookID: uuid.New(), RetriedAt: time.Now()}, nil
}

func deliveryRouter(svc DeliveryService, accountID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if accountID != uuid.Nil {
				req = req.WithContext(middleware.WithAccountID(req.Context(), accountID))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/v1/webhooks", DeliveryList(svc, nil))
	r.Post("/api/v1/webhooks/{id}/retry", DeliveryRetry(svc, nil))
	return r
}

func TestDeliveryListPassesQuery(t *testing.T) {
	svc := &fakeDeliveryService{}
	accountID := uuid.New()
	integrationID := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks?page=2&limit=500&status=error&integrationId="+integrationID, nil)
	rec := httptest.NewRecorder()
	deliveryRouter(svc, accountID).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.listAccount != accountID {
		t.Fatalf("expected account %s, got %s", accountID, svc.listAccount)
	}
	want := internalwebhooks.ListParams{Page: 2, Limit: 500, Status: "error", IntegrationID: integrationID}
	if svc.listParams != want {
		t.Fatalf("unexpected params %+v", svc.listParams)
	}
}

func TestDeliveryListRejectsNonNumericPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks?page=abc", nil)
	rec := httptest.NewRecorder()
	deliveryRouter(&fakeDeliveryService{}, uuid.New()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeliveryListRequiresAccount(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks", nil)
	rec := httptest.NewRecorder()
	deliveryRouter(&fakeDeliveryService{}, uuid.Nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDeliveryRetry(t *testing.T) {
	svc := &fakeDeliveryService{}
	accountID := uuid.New()
	webhookID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/"+webhookID.String()+"/retry", nil)
	rec := httptest.NewRecorder()
	deliveryRouter(svc, accountID).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.retryAccount != accountID || svc.retryID != webhookID {
		t.Fatalf("unexpected retry call %s/%s", svc.retryAccount, svc.retryID)
	}
}

func TestDeliveryRetryMapsServiceErrors(t *testing.T) {
	svc := &fakeDeliveryService{retryErr: pkgerrors.New(pkgerrors.CodeNotFound, "webhook not found").
		WithDetails(map[string]any{"reason": internalwebhooks.ReasonWebhookNotFound})}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/"+uuid.NewString()+"/retry", nil)
	rec := httptest.NewRecorder()
	deliveryRouter(svc, uuid.New()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/not-a-uuid/retry", nil)
	rec = httptest.NewRecorder()
	deliveryRouter(svc, uuid.New()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}
