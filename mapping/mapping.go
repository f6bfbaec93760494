// Package mapping classifies OSM tags for rendering: geometry kind
// (polygon vs. linestring), z-order stacking scores, road detection and
// tag cleanup. The tables follow openstreetmap-carto.
package mapping

import (
	"os"
	"strings"

	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Score is one entry of the z-order table.
type Score struct {
	ZOrder int  `yaml:"z"`
	Road   bool `yaml:"roads"`
}

// Config is the serialized form of the classification tables.
type Config struct {
	PolygonKeys      []string                    `yaml:"polygon_keys"`
	PolygonValues    map[string][]string         `yaml:"polygon_values"`
	LinestringValues map[string][]string         `yaml:"linestring_values"`
	DeleteKeys       []string                    `yaml:"delete_keys"`
	DeletePrefixes   []string                    `yaml:"delete_prefixes"`
	Scores           map[string]map[string]Score `yaml:"scores"`
}

// Classifier answers tag classification queries. It is immutable after New
// and safe for concurrent use; build it once at startup and share it.
type Classifier struct {
	polygonKeys      map[string]struct{}
	polygonValues    map[string]map[string]struct{}
	linestringValues map[string]map[string]struct{}
	deleteKeys       map[string]struct{}
	deletePrefixes   []string
	scores           map[string]map[string]Score
}

// New builds a Classifier from a config.
func New(conf Config) *Classifier {
	c := &Classifier{
		polygonKeys:      make(map[string]struct{}, len(conf.PolygonKeys)),
		polygonValues:    keyValueSet(conf.PolygonValues),
		linestringValues: keyValueSet(conf.LinestringValues),
		deleteKeys:       make(map[string]struct{}, len(conf.DeleteKeys)),
		deletePrefixes:   conf.DeletePrefixes,
		scores:           conf.Scores,
	}
	for _, k := range conf.PolygonKeys {
		c.polygonKeys[k] = struct{}{}
	}
	for _, k := range conf.DeleteKeys {
		c.deleteKeys[k] = struct{}{}
	}
	return c
}

// Default returns a Classifier with the built-in tables.
func Default() *Classifier {
	return New(defaultConfig())
}

// FromFile loads classification tables from a YAML file.
func FromFile(filename string) (*Classifier, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	conf := Config{}
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return nil, errors.Wrapf(err, "parsing classification tables from %s", filename)
	}
	return New(conf), nil
}

// CleanupTags returns a copy of tags without import provenance keys, editor
// artifacts and deny-listed prefixes.
func (c *Classifier) CleanupTags(tags osm.Tags) osm.Tags {
	clean := make(osm.Tags, len(tags))
	for k, v := range tags {
		if c.dropKey(k) {
			continue
		}
		clean[k] = v
	}
	return clean
}

func (c *Classifier) dropKey(key string) bool {
	if _, ok := c.deleteKeys[key]; ok {
		return true
	}
	for _, prefix := range c.deletePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// IsPolygon reports whether tags describe an area.
func (c *Classifier) IsPolygon(tags osm.Tags) bool {
	for k, v := range tags {
		if _, ok := c.polygonKeys[k]; ok {
			return true
		}
		if vals, ok := c.polygonValues[k]; ok {
			if _, ok := vals[v]; ok {
				return true
			}
		}
	}
	return false
}

// IsLinestring reports whether tags describe a linear object. Overrides
// the polygon classification for closed ways that are semantically linear,
// a closed cliff line for example.
func (c *Classifier) IsLinestring(tags osm.Tags) bool {
	for k, v := range tags {
		if vals, ok := c.linestringValues[k]; ok {
			if _, ok := vals[v]; ok {
				return true
			}
		}
	}
	return false
}

// ZOrder sums the stacking scores of all tags present. Unknown
// combinations contribute zero.
func (c *Classifier) ZOrder(tags osm.Tags) int {
	z := 0
	for k, v := range tags {
		if vals, ok := c.scores[k]; ok {
			if s, ok := vals[v]; ok {
				z += s.ZOrder
			}
		}
	}
	return z
}

// IsRoad reports whether any tag carries a road-flagged score entry.
func (c *Classifier) IsRoad(tags osm.Tags) bool {
	for k, v := range tags {
		if vals, ok := c.scores[k]; ok {
			if s, ok := vals[v]; ok && s.Road {
				return true
			}
		}
	}
	return false
}

func keyValueSet(m map[string][]string) map[string]map[string]struct{} {
	result := make(map[string]map[string]struct{}, len(m))
	for k, vals := range m {
		set := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			set[v] = struct{}{}
		}
		result[k] = set
	}
	return result
}
