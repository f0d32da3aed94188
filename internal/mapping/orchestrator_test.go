package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/google/uuid"
)

type stubMapper struct {
	route    Route
	key      string
	supports func(sp, se, dp, da string) bool
	dispatch func(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*Result, error)
	calls    int
}

func (s *stubMapper) Key() string {
	if s.key != "" {
		return s.key
	}
	return s.route.Key()
}

func (s *stubMapper) Supports(sp, se, dp, da string) bool {
	if s.supports != nil {
		return s.supports(sp, se, dp, da)
	}
	return s.route.Matches(sp, se, dp, da)
}

func (s *stubMapper) MapAndDispatch(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*Result, error) {
	s.calls++
	if s.dispatch != nil {
		return s.dispatch(ctx, payload, rule)
	}
	return &Result{MappedPayload: map[string]any{"ok": true}, ResponseStatus: 200}, nil
}

func ruleFor(route Route) *models.Integration {
	return &models.Integration{
		ID:                  uuid.New(),
		SourcePlatform:      route.SourcePlatform,
		SourceEvent:         route.SourceEvent,
		DestinationPlatform: route.DestPlatform,
		DestinationAction:   route.DestAction,
	}
}

var hotmartAstro = Route{SourcePlatform: "hotmart", SourceEvent: "PURCHASE_APPROVED", DestPlatform: "astromembers", DestAction: "create_member"}

func TestNewOrchestratorRejectsDuplicateKeys(t *testing.T) {
	_, err := NewOrchestrator([]Mapper{&stubMapper{route: hotmartAstro}, &stubMapper{route: hotmartAstro}}, nil)
	if err == nil || !strings.Contains(err.Error(), "duplicate mapper key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestNewOrchestratorRejectsEmptyKey(t *testing.T) {
	if _, err := NewOrchestrator([]Mapper{&stubMapper{key: " "}}, nil); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestExecuteResolvesDeterministically(t *testing.T) {
	target := &stubMapper{route: hotmartAstro}
	other := &stubMapper{route: Route{SourcePlatform: "lastlink", SourceEvent: "abandoned.cart", DestPlatform: "hotzapp", DestAction: "create.product"}}
	orch, err := NewOrchestrator([]Mapper{other, target}, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	rule := ruleFor(hotmartAstro)
	for i := 0; i < 3; i++ {
		m, err := orch.Resolve(rule)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if m != target {
			t.Fatalf("expected the same mapper instance on every resolve")
		}
	}

	res, err := orch.Execute(context.Background(), json.RawMessage(`{}`), rule)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ResponseStatus != 200 || target.calls != 1 || other.calls != 0 {
		t.Fatalf("unexpected dispatch result=%+v target=%d other=%d", res, target.calls, other.calls)
	}
}

func TestExecuteWithoutMapperFails(t *testing.T) {
	orch, err := NewOrchestrator([]Mapper{&stubMapper{route: hotmartAstro}}, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	rule := ruleFor(Route{SourcePlatform: "hotmart", SourceEvent: "PURCHASE_APPROVED", DestPlatform: "acme", DestAction: "create_member"})
	_, err = orch.Execute(context.Background(), json.RawMessage(`{}`), rule)

	de := AsDispatchError(err)
	if de == nil || de.Code != CodeMapperNotFound {
		t.Fatalf("expected MAPPER_NOT_FOUND, got %v", err)
	}
	if !strings.Contains(de.Message, "no mapper registered for route hotmart:PURCHASE_APPROVED__acme:create_member") {
		t.Fatalf("unexpected message %q", de.Message)
	}
}

func TestExecuteRouteMismatchFails(t *testing.T) {
	liar := &stubMapper{route: hotmartAstro, supports: func(string, string, string, string) bool { return false }}
	orch, err := NewOrchestrator([]Mapper{liar}, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	_, err = orch.Execute(context.Background(), json.RawMessage(`{}`), ruleFor(hotmartAstro))
	de := AsDispatchError(err)
	if de == nil || de.Code != CodeRouteMismatch || !strings.Contains(de.Message, "mapper route mismatch") {
		t.Fatalf("expected route mismatch, got %v", err)
	}
	if liar.calls != 0 {
		t.Fatalf("mismatched mapper must not be invoked")
	}
}

func TestExecutePropagatesMapperErrors(t *testing.T) {
	boom := &DispatchError{Code: CodeDestinationHTTP, Message: "Astromembers API error: 503 - down", Status: 503}
	m := &stubMapper{route: hotmartAstro, dispatch: func(context.Context, json.RawMessage, *models.Integration) (*Result, error) {
		return nil, boom
	}}
	orch, err := NewOrchestrator([]Mapper{m}, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	_, err = orch.Execute(context.Background(), json.RawMessage(`{}`), ruleFor(hotmartAstro))
	if !errors.Is(err, boom) {
		t.Fatalf("expected mapper error to propagate unchanged, got %v", err)
	}
}

func TestKeysSorted(t *testing.T) {
	a := &stubMapper{route: Route{SourcePlatform: "b", SourceEvent: "e", DestPlatform: "d", DestAction: "a"}}
	b := &stubMapper{route: Route{SourcePlatform: "a", SourceEvent: "e", DestPlatform: "d", DestAction: "a"}}
	orch, err := NewOrchestrator([]Mapper{a, b}, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	keys := orch.Keys()
	if len(keys) != 2 || keys[0] != "a:e__d:a" || !orch.Has("b:e__d:a") {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestParseRouteKeyRoundTrip(t *testing.T) {
	key := "lastlink:purchase.confirmed__themembers:create.user"
	route, err := ParseRouteKey(key)
	if err != nil {
		t.Fatalf("ParseRouteKey: %v", err)
	}
	if route.Key() != key || route.SourceEvent != "purchase.confirmed" || route.DestAction != "create.user" {
		t.Fatalf("unexpected route %+v", route)
	}
	for _, bad := range []string{"", "a:b", "a:b__c", "a__c:d", ":b__c:d"} {
		if _, err := ParseRouteKey(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
