// Package geom builds EWKB geometries from node lists. It covers the
// geometry kinds the slicers emit: points, linestrings, polygons and
// multipolygons. Validity repair beyond ring fix-ups is left to the store
// (ST_MakeValid post-pass).
package geom

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"
)

const (
	wkbSridFlag         = 0x20000000
	wkbPointType        = 1
	wkbLineStringType   = 2
	wkbPolygonType      = 3
	wkbMultiPolygonType = 6
)

// ErrInvalidGeometry marks rings that cannot be repaired into a valid
// polygon and degenerate linestrings.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Geometry is an encoded geometry, ready for insertion. Wkb holds the
// hex-encoded EWKB representation PostGIS accepts directly.
type Geometry struct {
	Wkb []byte
}

// Point encodes a single coordinate.
func Point(long, lat float64, srid int) Geometry {
	buf := &bytes.Buffer{}
	writeHeader(buf, wkbPointType, srid)
	binary.Write(buf, binary.LittleEndian, long)
	binary.Write(buf, binary.LittleEndian, lat)
	return Geometry{Wkb: hexEncode(buf.Bytes())}
}

// LineString encodes the node list as a linestring. Consecutive duplicate
// nodes are dropped; fewer than two distinct nodes is an error.
func LineString(nodes []osm.Node, srid int) (Geometry, error) {
	nodes = unduplicateNodes(nodes)
	if len(nodes) < 2 {
		return Geometry{}, errors.Wrap(ErrInvalidGeometry, "linestring with fewer than two distinct nodes")
	}
	buf := &bytes.Buffer{}
	writeHeader(buf, wkbLineStringType, srid)
	writeRing(buf, nodes)
	return Geometry{Wkb: hexEncode(buf.Bytes())}, nil
}

// Polygon encodes an exterior ring plus optional interior rings. All rings
// must already be closed and repaired (see RepairRing).
func Polygon(exterior []osm.Node, interiors [][]osm.Node, srid int) (Geometry, error) {
	buf := &bytes.Buffer{}
	writeHeader(buf, wkbPolygonType, srid)
	if err := writePolygonBody(buf, exterior, interiors); err != nil {
		return Geometry{}, err
	}
	return Geometry{Wkb: hexEncode(buf.Bytes())}, nil
}

// PolygonRings groups the rings of one polygon within a multipolygon.
type PolygonRings struct {
	Exterior  []osm.Node
	Interiors [][]osm.Node
}

// MultiPolygon encodes a collection of polygons.
func MultiPolygon(polygons []PolygonRings, srid int) (Geometry, error) {
	if len(polygons) == 0 {
		return Geometry{}, errors.Wrap(ErrInvalidGeometry, "multipolygon without polygons")
	}
	buf := &bytes.Buffer{}
	writeHeader(buf, wkbMultiPolygonType, srid)
	binary.Write(buf, binary.LittleEndian, uint32(len(polygons)))
	for _, p := range polygons {
		// nested polygons carry no SRID of their own
		writeHeader(buf, wkbPolygonType, 0)
		if err := writePolygonBody(buf, p.Exterior, p.Interiors); err != nil {
			return Geometry{}, err
		}
	}
	return Geometry{Wkb: hexEncode(buf.Bytes())}, nil
}

func writePolygonBody(buf *bytes.Buffer, exterior []osm.Node, interiors [][]osm.Node) error {
	if len(exterior) < 4 {
		return errors.Wrap(ErrInvalidGeometry, "polygon ring with fewer than four nodes")
	}
	binary.Write(buf, binary.LittleEndian, uint32(1+len(interiors)))
	writeRing(buf, exterior)
	for _, ring := range interiors {
		if len(ring) < 4 {
			return errors.Wrap(ErrInvalidGeometry, "interior ring with fewer than four nodes")
		}
		writeRing(buf, ring)
	}
	return nil
}

func writeHeader(buf *bytes.Buffer, geomType uint32, srid int) {
	binary.Write(buf, binary.LittleEndian, uint8(1)) // little endian
	if srid != 0 {
		binary.Write(buf, binary.LittleEndian, geomType|wkbSridFlag)
		binary.Write(buf, binary.LittleEndian, uint32(srid))
	} else {
		binary.Write(buf, binary.LittleEndian, geomType)
	}
}

func writeRing(buf *bytes.Buffer, nodes []osm.Node) {
	binary.Write(buf, binary.LittleEndian, uint32(len(nodes)))
	for _, nd := range nodes {
		binary.Write(buf, binary.LittleEndian, nd.Long)
		binary.Write(buf, binary.LittleEndian, nd.Lat)
	}
}

func hexEncode(src []byte) []byte {
	dst := make([]byte, hex.EncodedLen(len(src)))
	hex.Encode(dst, src)
	return dst
}

func unduplicateNodes(nodes []osm.Node) []osm.Node {
	result := nodes[:0:0]
	var last osm.Node
	for i, nd := range nodes {
		if i > 0 && nd.Long == last.Long && nd.Lat == last.Lat {
			continue
		}
		result = append(result, nd)
		last = nd
	}
	return result
}
