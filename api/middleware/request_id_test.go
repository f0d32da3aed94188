package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
)

func serveRequestID(header, value string) string {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/code-1", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(requestIDHeader)
}

func TestRequestIDReusesCallerID(t *testing.T) {
	if got := serveRequestID(requestIDHeader, "relay-123"); got != "relay-123" {
		t.Fatalf("expected caller id reused, got %q", got)
	}
	if got := serveRequestID(upstreamRequestIDHeader, "lb:abc.1"); got != "lb:abc.1" {
		t.Fatalf("expected upstream id reused, got %q", got)
	}
}

func TestRequestIDReplacesUnsafeOrMissingIDs(t *testing.T) {
	for _, value := range []string{"", "has space", "<script>", strings.Repeat("a", maxRequestIDLen+1)} {
		got := serveRequestID(requestIDHeader, value)
		if got == "" || got == value {
			t.Fatalf("value %q: expected generated id, got %q", value, got)
		}
	}
}

func TestRecovererLogsRouteAndReturns500(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	r := chi.NewRouter()
	r.Use(Recoverer(logg))
	r.Post("/v1/webhooks/{urlCode}", func(http.ResponseWriter, *http.Request) {
		panic("mapper exploded")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/webhooks/code-7", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	logs := buf.String()
	for _, want := range []string{`"url_code":"code-7"`, `"method":"POST"`, "http.panic_recovered"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in logs, got %s", want, logs)
		}
	}
}
