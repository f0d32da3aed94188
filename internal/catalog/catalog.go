// Package catalog describes the source events and destination actions users can connect.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
)

//go:embed catalog.yaml
var embedded []byte

type Catalog struct {
	Sources []Source `yaml:"sources" json:"sources"`
}

type Source struct {
	Platform    string  `yaml:"platform" json:"platform"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Events      []Event `yaml:"events" json:"events"`
}

type Event struct {
	Event        string        `yaml:"event" json:"event"`
	Description  string        `yaml:"description" json:"description"`
	Destinations []Destination `yaml:"destinations" json:"destinations"`
}

type Destination struct {
	Platform    string   `yaml:"platform" json:"platform"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Actions     []Action `yaml:"actions" json:"actions"`
}

type Action struct {
	Action      string  `yaml:"action" json:"action"`
	Description string  `yaml:"description" json:"description"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

type Field struct {
	Name     string `yaml:"name" json:"name"`
	Label    string `yaml:"label" json:"label"`
	Required bool   `yaml:"required" json:"required"`
	Secret   bool   `yaml:"secret" json:"secret"`
}

// Entry is one fully resolved route with its display metadata.
type Entry struct {
	Route                        mapping.Route
	SourceName                   string
	SourceDescription            string
	SourceEventDescription       string
	DestinationName              string
	DestinationDescription       string
	DestinationActionDescription string
	Fields                       []Field
}

// RequiredFields lists the names of mandatory fields.
func (e Entry) RequiredFields() []string {
	out := []string{}
	for _, f := range e.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Load parses the catalog compiled into the binary.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes a catalog document and rejects duplicate routes.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := map[string]struct{}{}
	for _, e := range c.Entries() {
		key := e.Route.Key()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate route %s", key)
		}
		seen[key] = struct{}{}
	}
	return &c, nil
}

// Entries flattens the catalog into routes.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	var out []Entry
	for _, s := range c.Sources {
		for _, ev := range s.Events {
			for _, d := range ev.Destinations {
				for _, a := range d.Actions {
					out = append(out, Entry{
						Route: mapping.Route{
							SourcePlatform: s.Platform,
							SourceEvent:    ev.Event,
							DestPlatform:   d.Platform,
							DestAction:     a.Action,
						},
						SourceName:                   s.Name,
						SourceDescription:            s.Description,
						SourceEventDescription:       ev.Description,
						DestinationName:              d.Name,
						DestinationDescription:       d.Description,
						DestinationActionDescription: a.Description,
						Fields:                       a.Fields,
					})
				}
			}
		}
	}
	return out
}

// Find resolves a route.
func (c *Catalog) Find(route mapping.Route) (Entry, bool) {
	for _, e := range c.Entries() {
		if e.Route == route {
			return e, true
		}
	}
	return Entry{}, false
}

// Filter returns the sources matching platform, or the whole catalog when platform is empty.
func (c *Catalog) Filter(platform string) []Source {
	if c == nil {
		return []Source{}
	}
	platform = strings.TrimSpace(platform)
	out := []Source{}
	for _, s := range c.Sources {
		if platform == "" || strings.EqualFold(s.Platform, platform) {
			out = append(out, s)
		}
	}
	return out
}

// Validate fails when a catalog route has no registered mapper.
func (c *Catalog) Validate(keys []string) error {
	registered := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		registered[k] = struct{}{}
	}
	var missing []string
	for _, e := range c.Entries() {
		if _, ok := registered[e.Route.Key()]; !ok {
			missing = append(missing, e.Route.Key())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("catalog routes without a mapper: %s", strings.Join(missing, ", "))
	}
	return nil
}
