package catalog

import (
	"strings"
	"testing"

	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/internal/mapping/destinations"
)

func TestEmbeddedCatalogMatchesRegisteredMappers(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	orch, err := mapping.NewOrchestrator(destinations.All(nil, destinations.Options{}), nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if err := c.Validate(orch.Keys()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(c.Entries()) != len(orch.Keys()) {
		t.Fatalf("expected one catalog entry per mapper, got %d entries for %d mappers", len(c.Entries()), len(orch.Keys()))
	}
}

func TestValidateReportsMissingMapper(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = c.Validate([]string{"lastlink:purchase.confirmed__themembers:create.user"})
	if err == nil || !strings.Contains(err.Error(), "hotmart:PURCHASE_APPROVED__discord:send_message") {
		t.Fatalf("expected missing discord route, got %v", err)
	}
}

func TestFindAndRequiredFields(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, ok := c.Find(mapping.Route{SourcePlatform: "hotmart", SourceEvent: "PURCHASE_APPROVED", DestPlatform: "discord", DestAction: "send_message"})
	if !ok {
		t.Fatal("expected discord route")
	}
	if got := entry.RequiredFields(); len(got) != 1 || got[0] != "webhookUrl" {
		t.Fatalf("unexpected required fields %v", got)
	}
	if entry.SourceName != "Hotmart" || entry.DestinationName != "Discord" {
		t.Fatalf("unexpected display names %+v", entry)
	}
	if _, ok := c.Find(mapping.Route{SourcePlatform: "hotmart", SourceEvent: "nope", DestPlatform: "discord", DestAction: "send_message"}); ok {
		t.Fatal("unexpected match for unknown event")
	}
}

func TestFilterBySource(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Filter("LASTLINK"); len(got) != 1 || got[0].Platform != "lastlink" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if got := c.Filter(""); len(got) != 2 {
		t.Fatalf("expected all sources, got %d", len(got))
	}
	if got := c.Filter("kiwify"); len(got) != 0 {
		t.Fatalf("expected no sources, got %+v", got)
	}
}

func TestParseRejectsDuplicateRoutes(t *testing.T) {
	doc := `
sources:
  - platform: a
    events:
      - event: e
        destinations:
          - platform: d
            actions:
              - action: x
              - action: x
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected duplicate route error")
	}
}
