// Package render produces tile images for a map state at a given date.
package render

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ohdm/chronotile/proj"
)

// ErrNoValidityDate marks render requests without a map date. Every tile
// shows the map as of one day; a dateless request cannot be rendered.
var ErrNoValidityDate = errors.New("render request without a validity date")

// Request identifies one tile rendering job.
type Request struct {
	Date time.Time
	Zoom int
	X    int
	Y    int
	// BBox is the tile extent in webmercator.
	BBox proj.BBox
}

// Renderer turns a request into an encoded tile image.
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}
