package postgis

import (
	"github.com/pkg/errors"

	"github.com/ohdm/chronotile/element"
)

// insertBuffer routes features to the COPY transaction of their table.
// Road features go to both the line and the roads table.
type insertBuffer struct {
	point   *tableTx
	line    *tableTx
	roads   *tableTx
	polygon *tableTx
}

func newInsertBuffer(pg *PostGIS) (*insertBuffer, error) {
	ib := &insertBuffer{
		point:   newTableTx(pg, pg.Tables["point"]),
		line:    newTableTx(pg, pg.Tables["line"]),
		roads:   newTableTx(pg, pg.Tables["roads"]),
		polygon: newTableTx(pg, pg.Tables["polygon"]),
	}
	for _, tt := range ib.all() {
		if err := tt.Begin(); err != nil {
			ib.Abort()
			return nil, err
		}
	}
	return ib, nil
}

func (ib *insertBuffer) all() []*tableTx {
	return []*tableTx{ib.point, ib.line, ib.roads, ib.polygon}
}

func (ib *insertBuffer) Insert(f element.Feature) error {
	switch f.Kind {
	case element.PointKind:
		return ib.point.Insert(ib.point.Spec.Row(f))
	case element.LineKind:
		if f.Road {
			return ib.roads.Insert(ib.roads.Spec.Row(f))
		}
		return ib.line.Insert(ib.line.Spec.Row(f))
	case element.PolygonKind:
		return ib.polygon.Insert(ib.polygon.Spec.Row(f))
	}
	return errors.Errorf("unknown geometry kind %q for osm_id %d", f.Kind, f.OSMID)
}

func (ib *insertBuffer) Close() error {
	var firstErr error
	for _, tt := range ib.all() {
		if err := tt.Commit(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (ib *insertBuffer) Abort() {
	for _, tt := range ib.all() {
		tt.Rollback()
	}
}
