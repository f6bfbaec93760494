package slicer

import (
	osm "github.com/omniscale/go-osm"

	"github.com/ohdm/chronotile/element"
	"github.com/ohdm/chronotile/geom"
	"github.com/ohdm/chronotile/log"
	"github.com/ohdm/chronotile/proj"
)

// SliceWay slices a way version chain (descending version order) into line
// and polygon features. Every tagged version emits a line; a closed ring
// additionally emits a polygon unless the tags are semantically linear.
// Road-classified versions emit a road-layer copy of the line.
func (s *Slicer) SliceWay(chain []element.WayVersion) []element.Feature {
	var features []element.Feature
	next := s.walk()
	for i := range chain {
		v := &chain[i]
		iv := next(v.Timestamp)
		if !v.Visible || iv.empty() {
			continue
		}
		tags := s.class.CleanupTags(v.Tags)
		if len(tags) == 0 {
			continue
		}
		nodes := s.projectNodes(v.Nodes)

		line, err := geom.LineString(nodes, s.conf.Srid)
		if err != nil {
			log.Debugf("skipping way %d v%d: %v", v.OSMID, v.Version, err)
			continue
		}
		f := element.Feature{
			OSMID:      v.OSMID,
			Version:    v.Version,
			Kind:       element.LineKind,
			Tags:       tags,
			Geometry:   line,
			ValidSince: iv.since,
			ValidUntil: iv.until,
			ZOrder:     s.class.ZOrder(tags),
		}
		features = append(features, f)
		if s.class.IsRoad(tags) {
			features = append(features, f.ToRoad())
		}

		if v.IsClosed() && !s.class.IsLinestring(tags) {
			ring, err := geom.RepairRing(nodes, s.conf.MaxRingGap)
			if err != nil {
				log.Debugf("dropping polygon for way %d v%d: %v", v.OSMID, v.Version, err)
				continue
			}
			poly, err := geom.Polygon(ring, nil, s.conf.Srid)
			if err != nil {
				log.Debugf("dropping polygon for way %d v%d: %v", v.OSMID, v.Version, err)
				continue
			}
			p := f
			p.Kind = element.PolygonKind
			p.Geometry = poly
			features = append(features, p)
		}
	}
	return features
}

// projectNodes returns a projected copy, the chain stays untouched.
func (s *Slicer) projectNodes(nodes []osm.Node) []osm.Node {
	projected := make([]osm.Node, len(nodes))
	copy(projected, nodes)
	if s.conf.Srid == 3857 {
		proj.NodesToMerc(projected)
	}
	return projected
}
