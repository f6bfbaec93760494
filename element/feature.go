package element

import (
	"time"

	osm "github.com/omniscale/go-osm"

	"github.com/ohdm/chronotile/geom"
)

// GeometryKind selects the destination table of a feature.
type GeometryKind string

const (
	PointKind   GeometryKind = "point"
	LineKind    GeometryKind = "line"
	PolygonKind GeometryKind = "polygon"
)

// Feature is a rendering-ready record with a half-open validity interval
// [ValidSince, ValidUntil). For a fixed OSMID and kind the intervals of all
// emitted features are pairwise disjoint and cover the span from the first
// version up to the extraction cutoff (or the deletion time).
type Feature struct {
	OSMID      int64
	Version    int
	Kind       GeometryKind
	Tags       osm.Tags
	Geometry   geom.Geometry
	ValidSince time.Time
	ValidUntil time.Time
	ZOrder     int
	// Road marks line features that additionally go into the road layer.
	Road bool
}

// ToRoad derives the road-layer copy of a line feature.
func (f Feature) ToRoad() Feature {
	r := f
	r.Kind = LineKind
	r.Road = true
	return r
}
