package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

// Mapper transforms one source event into one destination action and performs the call.
type Mapper interface {
	// Key returns "{sourcePlatform}:{sourceEvent}__{destPlatform}:{destAction}".
	Key() string
	// Supports must accept exactly the tuple encoded by Key.
	Supports(sourcePlatform, sourceEvent, destPlatform, destAction string) bool
	// MapAndDispatch performs exactly one outbound call. It never retries.
	MapAndDispatch(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*Result, error)
}

// Result describes a successful dispatch.
type Result struct {
	MappedPayload  any
	ResponseStatus int
	ResponseTime   time.Duration
}

// Route is the four-part routing tuple.
type Route struct {
	SourcePlatform string
	SourceEvent    string
	DestPlatform   string
	DestAction     string
}

// Key renders the tuple in registry form.
func (r Route) Key() string {
	return RouteKey(r.SourcePlatform, r.SourceEvent, r.DestPlatform, r.DestAction)
}

// Matches compares the tuple with the given parts.
func (r Route) Matches(sourcePlatform, sourceEvent, destPlatform, destAction string) bool {
	return r.SourcePlatform == sourcePlatform &&
		r.SourceEvent == sourceEvent &&
		r.DestPlatform == destPlatform &&
		r.DestAction == destAction
}

// RouteKey builds the registry key for a routing tuple.
func RouteKey(sourcePlatform, sourceEvent, destPlatform, destAction string) string {
	return fmt.Sprintf("%s:%s__%s:%s", sourcePlatform, sourceEvent, destPlatform, destAction)
}

// RouteOf extracts the routing tuple from a rule.
func RouteOf(rule *models.Integration) Route {
	if rule == nil {
		return Route{}
	}
	return Route{
		SourcePlatform: rule.SourcePlatform,
		SourceEvent:    rule.SourceEvent,
		DestPlatform:   rule.DestinationPlatform,
		DestAction:     rule.DestinationAction,
	}
}

// ParseRouteKey is the inverse of RouteKey.
func ParseRouteKey(key string) (Route, error) {
	source, dest, ok := strings.Cut(key, "__")
	if !ok {
		return Route{}, fmt.Errorf("route key %q: missing %q separator", key, "__")
	}
	sp, se, ok := strings.Cut(source, ":")
	if !ok || sp == "" || se == "" {
		return Route{}, fmt.Errorf("route key %q: invalid source %q", key, source)
	}
	dp, da, ok := strings.Cut(dest, ":")
	if !ok || dp == "" || da == "" {
		return Route{}, fmt.Errorf("route key %q: invalid destination %q", key, dest)
	}
	return Route{SourcePlatform: sp, SourceEvent: se, DestPlatform: dp, DestAction: da}, nil
}
