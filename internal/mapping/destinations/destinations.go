// Package destinations holds one mapper per supported source event and destination action.
package destinations

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
)

// Poster performs one destination call.
type Poster interface {
	Post(ctx context.Context, req mapping.Request) (*mapping.Response, error)
}

// Options carries the deployment-level settings some mappers need.
type Options struct {
	TheMembersBaseURL string
}

// All returns every mapper for registry wiring.
func All(poster Poster, opts Options) []mapping.Mapper {
	return []mapping.Mapper{
		NewLastlinkThemembersCreateUser(poster, opts.TheMembersBaseURL),
		NewLastlinkHotzappCreateProduct(poster),
		NewHotmartAstromembersCreateMember(poster),
		NewHotmartDiscordSendMessage(poster),
	}
}

type fixedRoute struct {
	route mapping.Route
}

func (f fixedRoute) Key() string {
	return f.route.Key()
}

func (f fixedRoute) Supports(sourcePlatform, sourceEvent, destPlatform, destAction string) bool {
	return f.route.Matches(sourcePlatform, sourceEvent, destPlatform, destAction)
}

func dispatched(resp *mapping.Response, body any) *mapping.Result {
	return &mapping.Result{
		MappedPayload:  body,
		ResponseStatus: resp.Status,
		ResponseTime:   resp.Latency,
	}
}

// flexID accepts identifiers sent either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(raw []byte) error {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// money renders a decimal as a JSON number with two places.
func money(d decimal.NullDecimal) json.Number {
	if !d.Valid {
		return json.Number("0.00")
	}
	return json.Number(d.Decimal.StringFixed(2))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
