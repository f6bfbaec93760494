package slicer

import (
	"time"

	osm "github.com/omniscale/go-osm"

	"github.com/ohdm/chronotile/element"
	"github.com/ohdm/chronotile/geom"
	"github.com/ohdm/chronotile/log"
)

// WayResolver resolves the state of a member way as of a point in time:
// the latest visible, closed version with a timestamp at or before t, or
// nil when none exists.
type WayResolver interface {
	WayAsOf(osmID int64, t time.Time) (*element.WayVersion, error)
}

// SliceRelation slices a relation version chain (descending version order)
// into multipolygon features. Only multipolygon and boundary relations
// produce geometry; every version still advances the validity bound.
//
// Member ways are resolved as of the relation edit. Members without a
// resolvable closed ring are skipped; a version without any usable outer
// ring emits nothing.
func (s *Slicer) SliceRelation(chain []element.RelationVersion, resolver WayResolver) ([]element.Feature, error) {
	var features []element.Feature
	next := s.walk()
	for i := range chain {
		v := &chain[i]
		iv := next(v.Timestamp)
		if !v.Visible || iv.empty() || !v.IsMultipolygon() {
			continue
		}
		tags := s.class.CleanupTags(v.Tags)
		delete(tags, "type")
		if len(tags) == 0 {
			continue
		}

		outers, err := s.resolveRings(v.OuterMembers, v.Timestamp, resolver)
		if err != nil {
			return nil, err
		}
		if len(outers) == 0 {
			log.Debugf("skipping relation %d v%d: no usable outer ring", v.OSMID, v.Version)
			continue
		}
		inners, err := s.resolveRings(v.InnerMembers, v.Timestamp, resolver)
		if err != nil {
			return nil, err
		}

		mp, err := geom.MultiPolygon(assemblePolygons(outers, inners), s.conf.Srid)
		if err != nil {
			log.Debugf("skipping relation %d v%d: %v", v.OSMID, v.Version, err)
			continue
		}
		f := element.Feature{
			OSMID:      -v.OSMID,
			Version:    v.Version,
			Kind:       element.PolygonKind,
			Tags:       tags,
			Geometry:   mp,
			ValidSince: iv.since,
			ValidUntil: iv.until,
			ZOrder:     s.class.ZOrder(tags),
		}
		features = append(features, f)

		if s.class.IsRoad(tags) {
			roads, err := s.outerRingRoads(f, outers)
			if err != nil {
				return nil, err
			}
			features = append(features, roads...)
		}
	}
	return features, nil
}

// resolveRings resolves member ways as of t and repairs them into rings.
// Unresolvable members and irreparable rings are dropped.
func (s *Slicer) resolveRings(members []int64, t time.Time, resolver WayResolver) ([][]osm.Node, error) {
	var rings [][]osm.Node
	for _, id := range members {
		w, err := resolver.WayAsOf(id, t)
		if err != nil {
			return nil, err
		}
		if w == nil {
			continue
		}
		ring, err := geom.RepairRing(s.projectNodes(w.Nodes), s.conf.MaxRingGap)
		if err != nil {
			log.Debugf("dropping member way %d: %v", id, err)
			continue
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

// assemblePolygons groups rings into polygons: the largest outer ring takes
// all inner rings as holes, the remaining outers stay hole-less.
func assemblePolygons(outers, inners [][]osm.Node) []geom.PolygonRings {
	largest := 0
	for i, ring := range outers {
		if geom.RingArea(ring) > geom.RingArea(outers[largest]) {
			largest = i
		}
	}
	polygons := make([]geom.PolygonRings, 0, len(outers))
	for i, ring := range outers {
		p := geom.PolygonRings{Exterior: ring}
		if i == largest {
			p.Interiors = inners
		}
		polygons = append(polygons, p)
	}
	return polygons
}

// outerRingRoads derives road-layer line features from the outer rings of
// a road-classified relation, administrative boundaries for example.
func (s *Slicer) outerRingRoads(f element.Feature, outers [][]osm.Node) ([]element.Feature, error) {
	var roads []element.Feature
	for _, ring := range outers {
		line, err := geom.LineString(ring, s.conf.Srid)
		if err != nil {
			continue
		}
		r := f.ToRoad()
		r.Geometry = line
		roads = append(roads, r)
	}
	return roads, nil
}
