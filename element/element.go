// Package element defines the versioned OSM records the slicers consume
// and the time-sliced features they produce.
package element

import (
	"time"

	osm "github.com/omniscale/go-osm"
)

// EntityVersion holds the fields shared by all versioned records. Versions of
// a single OSMID are totally ordered by Version; the highest version carries
// the most recent edit.
type EntityVersion struct {
	OSMID     int64
	Version   int
	Visible   bool
	Timestamp time.Time
	Tags      osm.Tags
}

// NodeVersion is one historical edit of an OSM node.
type NodeVersion struct {
	EntityVersion
	Lat  float64
	Long float64
}

// WayVersion is one historical edit of an OSM way. Refs is the ordered list
// of member node IDs, Nodes the resolved coordinates (empty for deleted
// versions).
type WayVersion struct {
	EntityVersion
	Refs  []int64
	Nodes []osm.Node
}

// IsClosed returns whether the way forms a ring (first and last node
// identical, at least four refs).
func (w *WayVersion) IsClosed() bool {
	return len(w.Refs) >= 4 && w.Refs[0] == w.Refs[len(w.Refs)-1]
}

// RelationVersion is one historical edit of an OSM relation, reduced to the
// members relevant for multipolygon reconstruction: way members with an
// inner or outer role.
type RelationVersion struct {
	EntityVersion
	Type         string
	OuterMembers []int64
	InnerMembers []int64
}

// IsMultipolygon reports whether this relation version describes an area.
func (r *RelationVersion) IsMultipolygon() bool {
	return r.Type == "multipolygon" || r.Type == "boundary"
}

// NewNodeVersion builds a NodeVersion from a parsed history element.
// visible is false for deletions; deleted versions carry no tags or
// coordinates but still terminate the previous validity interval.
func NewNodeVersion(n *osm.Node, visible bool) NodeVersion {
	nv := NodeVersion{EntityVersion: entityVersion(&n.Element, visible)}
	if visible {
		nv.Lat = n.Lat
		nv.Long = n.Long
	}
	return nv
}

// NewWayVersion builds a WayVersion from a parsed history element.
func NewWayVersion(w *osm.Way, visible bool) WayVersion {
	wv := WayVersion{EntityVersion: entityVersion(&w.Element, visible)}
	if visible {
		wv.Refs = w.Refs
		wv.Nodes = w.Nodes
	}
	return wv
}

// NewRelationVersion builds a RelationVersion from a parsed history element.
// Only way members with role inner or outer are kept.
func NewRelationVersion(r *osm.Relation, visible bool) RelationVersion {
	rv := RelationVersion{EntityVersion: entityVersion(&r.Element, visible)}
	if !visible {
		return rv
	}
	rv.Type = r.Tags["type"]
	for _, m := range r.Members {
		if m.Type != osm.WayMember {
			continue
		}
		switch m.Role {
		case "outer":
			rv.OuterMembers = append(rv.OuterMembers, m.ID)
		case "inner":
			rv.InnerMembers = append(rv.InnerMembers, m.ID)
		}
	}
	return rv
}

func entityVersion(e *osm.Element, visible bool) EntityVersion {
	ev := EntityVersion{
		OSMID:   e.ID,
		Visible: visible,
	}
	if e.Metadata != nil {
		ev.Version = int(e.Metadata.Version)
		ev.Timestamp = e.Metadata.Timestamp
	}
	if visible {
		ev.Tags = e.Tags
	}
	return ev
}
