package geom

import (
	"math"

	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"
)

// RepairRing applies the ring fix-ups a closed way needs before it can be
// encoded as a polygon: consecutive duplicates are dropped, a small endpoint
// gap is closed, and the ring is reoriented counter-clockwise. A ring that
// stays degenerate (too few nodes, zero area) is rejected with
// ErrInvalidGeometry.
func RepairRing(nodes []osm.Node, maxGap float64) ([]osm.Node, error) {
	nodes = unduplicateNodes(nodes)
	if len(nodes) < 3 {
		return nil, errors.Wrap(ErrInvalidGeometry, "ring with fewer than three distinct nodes")
	}
	if !closed(nodes) {
		start, end := nodes[0], nodes[len(nodes)-1]
		if math.Hypot(start.Lat-end.Lat, start.Long-end.Long) > maxGap {
			return nil, errors.Wrap(ErrInvalidGeometry, "ring is not closed")
		}
		nodes = append(nodes, nodes[0])
	}
	if len(nodes) < 4 {
		return nil, errors.Wrap(ErrInvalidGeometry, "ring with fewer than four nodes")
	}
	area := signedArea(nodes)
	if area == 0 {
		return nil, errors.Wrap(ErrInvalidGeometry, "ring with zero area")
	}
	if area < 0 {
		reverseNodes(nodes)
	}
	return nodes, nil
}

// RingArea returns the absolute planar area of a closed ring.
func RingArea(nodes []osm.Node) float64 {
	return math.Abs(signedArea(nodes))
}

func closed(nodes []osm.Node) bool {
	first, last := nodes[0], nodes[len(nodes)-1]
	return first.Long == last.Long && first.Lat == last.Lat
}

// signedArea is positive for counter-clockwise rings (shoelace formula).
func signedArea(nodes []osm.Node) float64 {
	var sum float64
	for i := 0; i < len(nodes)-1; i++ {
		a, b := nodes[i], nodes[i+1]
		sum += a.Long*b.Lat - b.Long*a.Lat
	}
	return sum / 2
}

func reverseNodes(nodes []osm.Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
