package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
)

// Orchestrator resolves the mapper for a rule's routing tuple and invokes it.
// It is immutable after construction and safe for concurrent use.
type Orchestrator struct {
	mappers map[string]Mapper
	logg    *logger.Logger
}

// NewOrchestrator indexes mappers by key. Duplicate or empty keys are configuration errors.
func NewOrchestrator(mappers []Mapper, logg *logger.Logger) (*Orchestrator, error) {
	index := make(map[string]Mapper, len(mappers))
	for i, m := range mappers {
		if m == nil {
			return nil, fmt.Errorf("mapper at index %d is nil", i)
		}
		key := strings.TrimSpace(m.Key())
		if key == "" {
			return nil, fmt.Errorf("mapper %T returned an empty key", m)
		}
		if existing, ok := index[key]; ok {
			return nil, fmt.Errorf("duplicate mapper key %q (%T and %T)", key, existing, m)
		}
		index[key] = m
	}
	return &Orchestrator{mappers: index, logg: logg}, nil
}

// Keys lists the registered routes in sorted order.
func (o *Orchestrator) Keys() []string {
	keys := make([]string, 0, len(o.mappers))
	for k := range o.mappers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether a mapper is registered for key.
func (o *Orchestrator) Has(key string) bool {
	_, ok := o.mappers[key]
	return ok
}

// Resolve returns the mapper for the rule after the Supports consistency check.
func (o *Orchestrator) Resolve(rule *models.Integration) (Mapper, error) {
	route := RouteOf(rule)
	key := route.Key()

	m, ok := o.mappers[key]
	if !ok {
		return nil, &DispatchError{
			Code:    CodeMapperNotFound,
			Message: fmt.Sprintf("no mapper registered for route %s", key),
		}
	}
	if !m.Supports(route.SourcePlatform, route.SourceEvent, route.DestPlatform, route.DestAction) {
		return nil, &DispatchError{
			Code:    CodeRouteMismatch,
			Message: fmt.Sprintf("mapper route mismatch: %s does not support %s", m.Key(), key),
		}
	}
	return m, nil
}

// Execute runs the resolved mapper and returns its outcome unchanged.
func (o *Orchestrator) Execute(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*Result, error) {
	m, err := o.Resolve(rule)
	if err != nil {
		return nil, err
	}
	if o.logg != nil {
		logCtx := o.logg.WithFields(ctx, map[string]any{
			"route":          m.Key(),
			"integration_id": rule.ID.String(),
		})
		o.logg.Debug(logCtx, "mapping.dispatch")
	}
	return m.MapAndDispatch(ctx, payload, rule)
}
