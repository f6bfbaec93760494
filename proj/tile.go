package proj

import (
	"fmt"
	"math"
)

// MaxZoom is the highest zoom level tiles can be requested for.
const MaxZoom = 19

// ZoomOutOfRangeError is returned for zoom levels outside [0, MaxZoom].
type ZoomOutOfRangeError struct {
	Zoom int
}

func (e *ZoomOutOfRangeError) Error() string {
	return fmt.Sprintf("zoom %d out of range [0, %d]", e.Zoom, MaxZoom)
}

// CoordinateOutOfRangeError is returned for tile coordinates outside
// [0, 2^zoom].
type CoordinateOutOfRangeError struct {
	Zoom, X, Y int
}

func (e *CoordinateOutOfRangeError) Error() string {
	return fmt.Sprintf("tile coordinate %d/%d out of range [0, %d] at zoom %d",
		e.X, e.Y, 1<<uint(e.Zoom), e.Zoom)
}

// BBox is an axis-aligned bounding box. Coordinates are WGS84 or Web
// Mercator depending on how it was obtained.
type BBox struct {
	MinLong, MinLat float64
	MaxLong, MaxLat float64
}

// ToMerc forward-projects a geographic bbox into Web Mercator.
func (b BBox) ToMerc() BBox {
	minX, minY := WgsToMerc(b.MinLong, b.MinLat)
	maxX, maxY := WgsToMerc(b.MaxLong, b.MaxLat)
	return BBox{MinLong: minX, MinLat: minY, MaxLong: maxX, MaxLat: maxY}
}

// TileBBox returns the geographic bounding box of a slippy-map tile. The
// south-west corner comes from tile coordinate (x, y+1), the north-east
// corner from (x+1, y). Out-of-range input fails, it is never clamped.
func TileBBox(zoom, x, y int) (BBox, error) {
	if zoom < 0 || zoom > MaxZoom {
		return BBox{}, &ZoomOutOfRangeError{Zoom: zoom}
	}
	max := 1 << uint(zoom)
	if x < 0 || x > max || y < 0 || y > max {
		return BBox{}, &CoordinateOutOfRangeError{Zoom: zoom, X: x, Y: y}
	}
	return BBox{
		MinLong: tileToLong(float64(x), zoom),
		MinLat:  tileToLat(float64(y+1), zoom),
		MaxLong: tileToLong(float64(x+1), zoom),
		MaxLat:  tileToLat(float64(y), zoom),
	}, nil
}

func tileToLong(x float64, zoom int) float64 {
	return 360*x/math.Exp2(float64(zoom)) - 180
}

func tileToLat(y float64, zoom int) float64 {
	return math.Atan(math.Sinh(math.Pi-math.Pi*y/math.Exp2(float64(zoom-1)))) * 180 / math.Pi
}
