package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	internalwebhooks "github.com/angelmondragon/hookrelay-backend/internal/webhooks"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
)

type fakePublisher struct {
	bodies [][]byte
	attrs  []map[string]string
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.bodies = append(f.bodies, body)
	f.attrs = append(f.attrs, attrs)
	return "msg-1", nil
}

func serveInbound(handler http.HandlerFunc, urlCode, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/v1/webhooks/{urlCode}", handler)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/"+urlCode, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}

func TestInboundEnqueuesEvent(t *testing.T) {
	publisher := &fakePublisher{}
	rec := serveInbound(Inbound(publisher, 0, nil), "code-1", `{"event":"PURCHASE_APPROVED"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data inboundResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Message != "enqueued" || resp.Data.URLCode != "code-1" || resp.Data.MessageID != "msg-1" {
		t.Fatalf("unexpected response %+v", resp.Data)
	}

	if len(publisher.bodies) != 1 {
		t.Fatalf("expected one publish, got %d", len(publisher.bodies))
	}
	var msg internalwebhooks.InboundMessage
	if err := json.Unmarshal(publisher.bodies[0], &msg); err != nil {
		t.Fatalf("decode published body: %v", err)
	}
	if msg.URLCode != "code-1" || string(msg.Payload) != `{"event":"PURCHASE_APPROVED"}` {
		t.Fatalf("unexpected published message %+v", msg)
	}
	if publisher.attrs[0][queue.AttrURLCode] != "code-1" {
		t.Fatalf("expected url code attribute, got %v", publisher.attrs[0])
	}
}

func TestInboundRejectsInvalidJSON(t *testing.T) {
	publisher := &fakePublisher{}
	for _, body := range []string{"", "not json", `{"a":`} {
		rec := serveInbound(Inbound(publisher, 0, nil), "code-1", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		if code := errorCode(t, rec); code != string(pkgerrors.CodeValidation) {
			t.Fatalf("body %q: unexpected code %s", body, code)
		}
	}
	if len(publisher.bodies) != 0 {
		t.Fatal("invalid bodies must not be published")
	}
}

func TestInboundRejectsNonObjectPayload(t *testing.T) {
	publisher := &fakePublisher{}
	for _, body := range []string{`123`, `"x"`, `[{"event":"PURCHASE_APPROVED"}]`, `null`, `true`} {
		rec := serveInbound(Inbound(publisher, 0, nil), "code-1", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		if code := errorCode(t, rec); code != string(pkgerrors.CodeValidation) {
			t.Fatalf("body %q: unexpected code %s", body, code)
		}
	}
	if len(publisher.bodies) != 0 {
		t.Fatal("non-object bodies must not be published")
	}
}

func TestInboundRejectsOversizedBody(t *testing.T) {
	publisher := &fakePublisher{}
	body := `{"blob":"` + strings.Repeat("x", 64) + `"}`
	rec := serveInbound(Inbound(publisher, 32, nil), "code-1", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(publisher.bodies) != 0 {
		t.Fatal("oversized body must not be published")
	}
}

func TestInboundPublishFailureIsDependencyError(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	rec := serveInbound(Inbound(publisher, 0, nil), "code-1", `{}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", code)
	}
}
