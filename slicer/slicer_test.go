package slicer

import (
	"testing"
	"time"

	osm "github.com/omniscale/go-osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohdm/chronotile/element"
	"github.com/ohdm/chronotile/mapping"
)

var (
	t2020jan = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2020jun = time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	t2020sep = time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)
	cutoff   = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
)

func testSlicer() *Slicer {
	return New(Config{Cutoff: cutoff, Srid: 4326, MaxRingGap: 1e-6}, mapping.Default())
}

func entity(id int64, version int, visible bool, ts time.Time, tags osm.Tags) element.EntityVersion {
	return element.EntityVersion{OSMID: id, Version: version, Visible: visible, Timestamp: ts, Tags: tags}
}

func openNodes() []osm.Node {
	return []osm.Node{{Long: 13.0, Lat: 52.0}, {Long: 13.1, Lat: 52.1}}
}

func squareRefs() []int64 { return []int64{1, 2, 3, 4, 1} }

func squareNodes() []osm.Node {
	return []osm.Node{
		{Long: 0, Lat: 0}, {Long: 1, Lat: 0}, {Long: 1, Lat: 1}, {Long: 0, Lat: 1}, {Long: 0, Lat: 0},
	}
}

func TestSliceWayDeletedVersionBoundsInterval(t *testing.T) {
	s := testSlicer()
	tags := osm.Tags{"highway": "residential"}
	chain := []element.WayVersion{
		{EntityVersion: entity(7, 3, false, t2020sep, nil)},
		{EntityVersion: entity(7, 2, true, t2020jun, tags), Refs: []int64{1, 2}, Nodes: openNodes()},
		{EntityVersion: entity(7, 1, true, t2020jan, tags), Refs: []int64{1, 2}, Nodes: openNodes()},
	}

	features := s.SliceWay(chain)
	require.Len(t, features, 2)

	assert.Equal(t, 2, features[0].Version)
	assert.Equal(t, t2020jun, features[0].ValidSince)
	assert.Equal(t, t2020sep, features[0].ValidUntil)

	assert.Equal(t, 1, features[1].Version)
	assert.Equal(t, t2020jan, features[1].ValidSince)
	assert.Equal(t, t2020jun, features[1].ValidUntil)

	for _, f := range features {
		assert.Equal(t, element.LineKind, f.Kind)
		assert.Equal(t, 330, f.ZOrder)
		assert.False(t, f.Road)
	}
}

func TestSliceWayNewestVersionEndsAtCutoff(t *testing.T) {
	s := testSlicer()
	chain := []element.WayVersion{
		{EntityVersion: entity(7, 1, true, t2020jan, osm.Tags{"highway": "residential"}),
			Refs: []int64{1, 2}, Nodes: openNodes()},
	}
	features := s.SliceWay(chain)
	require.Len(t, features, 1)
	assert.Equal(t, cutoff, features[0].ValidUntil)
}

func TestSliceWayIntervalsDisjoint(t *testing.T) {
	s := testSlicer()
	tags := osm.Tags{"highway": "residential"}
	chain := []element.WayVersion{
		{EntityVersion: entity(7, 3, true, t2020sep, tags), Refs: []int64{1, 2}, Nodes: openNodes()},
		{EntityVersion: entity(7, 2, true, t2020jun, tags), Refs: []int64{1, 2}, Nodes: openNodes()},
		{EntityVersion: entity(7, 1, true, t2020jan, tags), Refs: []int64{1, 2}, Nodes: openNodes()},
	}
	features := s.SliceWay(chain)
	require.Len(t, features, 3)
	for i := 0; i < len(features)-1; i++ {
		// newest first: each interval starts where the previous ends
		assert.Equal(t, features[i].ValidSince, features[i+1].ValidUntil)
		assert.True(t, features[i].ValidUntil.After(features[i].ValidSince))
	}
}

func TestSliceWayClosedRingEmitsPolygon(t *testing.T) {
	s := testSlicer()
	chain := []element.WayVersion{
		{EntityVersion: entity(8, 1, true, t2020jan, osm.Tags{"building": "yes"}),
			Refs: squareRefs(), Nodes: squareNodes()},
	}
	features := s.SliceWay(chain)
	require.Len(t, features, 2)
	assert.Equal(t, element.LineKind, features[0].Kind)
	assert.Equal(t, element.PolygonKind, features[1].Kind)
	assert.Equal(t, features[0].ValidSince, features[1].ValidSince)
	assert.Equal(t, features[0].ValidUntil, features[1].ValidUntil)
}

func TestSliceWayLinestringTagsSuppressPolygon(t *testing.T) {
	s := testSlicer()
	chain := []element.WayVersion{
		{EntityVersion: entity(8, 1, true, t2020jan, osm.Tags{"natural": "cliff"}),
			Refs: squareRefs(), Nodes: squareNodes()},
	}
	features := s.SliceWay(chain)
	require.Len(t, features, 1)
	assert.Equal(t, element.LineKind, features[0].Kind)
}

func TestSliceWayRoadCopy(t *testing.T) {
	s := testSlicer()
	chain := []element.WayVersion{
		{EntityVersion: entity(9, 1, true, t2020jan, osm.Tags{"highway": "motorway"}),
			Refs: []int64{1, 2}, Nodes: openNodes()},
	}
	features := s.SliceWay(chain)
	require.Len(t, features, 2)
	assert.False(t, features[0].Road)
	assert.True(t, features[1].Road)
	assert.Equal(t, features[0].Geometry, features[1].Geometry)
	assert.Equal(t, 380, features[1].ZOrder)
}

func TestSliceNodeUntaggedVersionsBoundOnly(t *testing.T) {
	s := testSlicer()
	chain := []element.NodeVersion{
		// tags reduced to nothing after cleanup
		{EntityVersion: entity(3, 2, true, t2020jun, osm.Tags{"created_by": "JOSM"}), Long: 13, Lat: 52},
		{EntityVersion: entity(3, 1, true, t2020jan, osm.Tags{"amenity": "cafe"}), Long: 13, Lat: 52},
	}
	features := s.SliceNode(chain)
	require.Len(t, features, 1)
	assert.Equal(t, element.PointKind, features[0].Kind)
	assert.Equal(t, t2020jan, features[0].ValidSince)
	assert.Equal(t, t2020jun, features[0].ValidUntil)
	assert.Equal(t, osm.Tags{"amenity": "cafe"}, features[0].Tags)
}

func TestSliceNodeIdempotent(t *testing.T) {
	s := testSlicer()
	chain := []element.NodeVersion{
		{EntityVersion: entity(3, 2, true, t2020jun, osm.Tags{"amenity": "cafe"}), Long: 13, Lat: 52},
		{EntityVersion: entity(3, 1, true, t2020jan, osm.Tags{"amenity": "cafe"}), Long: 13, Lat: 52},
	}
	first := s.SliceNode(chain)
	second := s.SliceNode(chain)
	assert.Equal(t, first, second)
}

type fakeResolver map[int64]*element.WayVersion

func (r fakeResolver) WayAsOf(osmID int64, t time.Time) (*element.WayVersion, error) {
	w, ok := r[osmID]
	if !ok || w.Timestamp.After(t) {
		return nil, nil
	}
	return w, nil
}

func TestSliceRelationMultipolygon(t *testing.T) {
	s := testSlicer()
	outer := &element.WayVersion{
		EntityVersion: entity(10, 1, true, t2020jan, nil),
		Refs:          squareRefs(), Nodes: squareNodes(),
	}
	inner := &element.WayVersion{
		EntityVersion: entity(11, 1, true, t2020jan, nil),
		Refs:          squareRefs(),
		Nodes: []osm.Node{
			{Long: 0.25, Lat: 0.25}, {Long: 0.75, Lat: 0.25},
			{Long: 0.75, Lat: 0.75}, {Long: 0.25, Lat: 0.75}, {Long: 0.25, Lat: 0.25},
		},
	}
	resolver := fakeResolver{10: outer, 11: inner}

	chain := []element.RelationVersion{
		{
			EntityVersion: entity(1, 1, true, t2020jun, osm.Tags{"type": "multipolygon", "natural": "water"}),
			Type:          "multipolygon",
			OuterMembers:  []int64{10},
			InnerMembers:  []int64{11},
		},
	}
	features, err := s.SliceRelation(chain, resolver)
	require.NoError(t, err)
	require.Len(t, features, 1)

	f := features[0]
	assert.Equal(t, int64(-1), f.OSMID)
	assert.Equal(t, element.PolygonKind, f.Kind)
	assert.Equal(t, osm.Tags{"natural": "water"}, f.Tags)
	assert.Equal(t, t2020jun, f.ValidSince)
	assert.Equal(t, cutoff, f.ValidUntil)
	assert.NotEmpty(t, f.Geometry.Wkb)
}

func TestSliceRelationNoOuterRing(t *testing.T) {
	s := testSlicer()
	chain := []element.RelationVersion{
		{
			EntityVersion: entity(1, 1, true, t2020jun, osm.Tags{"type": "multipolygon", "natural": "water"}),
			Type:          "multipolygon",
			OuterMembers:  []int64{99},
		},
	}
	features, err := s.SliceRelation(chain, fakeResolver{})
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestSliceRelationNonMultipolygonSkipped(t *testing.T) {
	s := testSlicer()
	chain := []element.RelationVersion{
		{
			EntityVersion: entity(1, 1, true, t2020jun, osm.Tags{"type": "route", "route": "bus"}),
			Type:          "route",
		},
	}
	features, err := s.SliceRelation(chain, fakeResolver{})
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestSliceRelationBoundaryRoads(t *testing.T) {
	s := testSlicer()
	outer := &element.WayVersion{
		EntityVersion: entity(10, 1, true, t2020jan, nil),
		Refs:          squareRefs(), Nodes: squareNodes(),
	}
	chain := []element.RelationVersion{
		{
			EntityVersion: entity(2, 1, true, t2020jun,
				osm.Tags{"type": "boundary", "boundary": "administrative", "admin_level": "4"}),
			Type:         "boundary",
			OuterMembers: []int64{10},
		},
	}
	features, err := s.SliceRelation(chain, fakeResolver{10: outer})
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, element.PolygonKind, features[0].Kind)
	assert.Equal(t, element.LineKind, features[1].Kind)
	assert.True(t, features[1].Road)
}
