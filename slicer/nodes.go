package slicer

import (
	"github.com/ohdm/chronotile/element"
	"github.com/ohdm/chronotile/geom"
	"github.com/ohdm/chronotile/proj"
)

// SliceNode slices a node version chain (descending version order) into
// point features. Untagged versions advance the validity bound without
// producing a feature.
func (s *Slicer) SliceNode(chain []element.NodeVersion) []element.Feature {
	var features []element.Feature
	next := s.walk()
	for _, v := range chain {
		iv := next(v.Timestamp)
		if !v.Visible || iv.empty() {
			continue
		}
		tags := s.class.CleanupTags(v.Tags)
		if len(tags) == 0 {
			continue
		}
		long, lat := v.Long, v.Lat
		if s.conf.Srid == 3857 {
			long, lat = proj.WgsToMerc(long, lat)
		}
		features = append(features, element.Feature{
			OSMID:      v.OSMID,
			Version:    v.Version,
			Kind:       element.PointKind,
			Tags:       tags,
			Geometry:   geom.Point(long, lat, s.conf.Srid),
			ValidSince: iv.since,
			ValidUntil: iv.until,
		})
	}
	return features
}
