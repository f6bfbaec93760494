package postgis

import (
	"fmt"
	"strings"

	pq "github.com/lib/pq"
	osm "github.com/omniscale/go-osm"

	"github.com/ohdm/chronotile/element"
)

// TableSpec describes one feature table. Well-known tag keys are extracted
// into typed columns; everything else lands in the tags hstore column.
type TableSpec struct {
	Name         string
	Schema       string
	TagColumns   []string
	HasZOrder    bool
	HasWayArea   bool
	GeometryType string
	Srid         int
}

func pointTableSpec(schema string, srid int) *TableSpec {
	return &TableSpec{
		Name:         "planet_osm_point",
		Schema:       schema,
		TagColumns:   pointTagColumns,
		GeometryType: "POINT",
		Srid:         srid,
	}
}

func lineTableSpec(schema string, srid int) *TableSpec {
	return &TableSpec{
		Name:         "planet_osm_line",
		Schema:       schema,
		TagColumns:   wayTagColumns,
		HasZOrder:    true,
		GeometryType: "LINESTRING",
		Srid:         srid,
	}
}

func roadsTableSpec(schema string, srid int) *TableSpec {
	return &TableSpec{
		Name:         "planet_osm_roads",
		Schema:       schema,
		TagColumns:   wayTagColumns,
		HasZOrder:    true,
		GeometryType: "LINESTRING",
		Srid:         srid,
	}
}

func polygonTableSpec(schema string, srid int) *TableSpec {
	return &TableSpec{
		Name:         "planet_osm_polygon",
		Schema:       schema,
		TagColumns:   wayTagColumns,
		HasZOrder:    true,
		HasWayArea:   true,
		GeometryType: "GEOMETRY", // multipolygon support
		Srid:         srid,
	}
}

// Columns returns the insert column list in row order.
func (spec *TableSpec) Columns() []string {
	cols := []string{"osm_id", "version"}
	cols = append(cols, spec.TagColumns...)
	if spec.HasZOrder {
		cols = append(cols, "z_order")
	}
	if spec.HasWayArea {
		cols = append(cols, "way_area")
	}
	cols = append(cols, "tags", "way", "valid_since", "valid_until")
	return cols
}

// Row builds the insert row for a feature, matching Columns.
func (spec *TableSpec) Row(f element.Feature) []interface{} {
	row := []interface{}{f.OSMID, f.Version}
	rest := make(osm.Tags, len(f.Tags))
	for k, v := range f.Tags {
		rest[k] = v
	}
	for _, col := range spec.TagColumns {
		key := strings.ReplaceAll(col, "_", ":")
		if v, ok := rest[key]; ok {
			row = append(row, v)
			delete(rest, key)
			continue
		}
		if v, ok := rest[col]; ok {
			row = append(row, v)
			delete(rest, col)
			continue
		}
		row = append(row, nil)
	}
	if spec.HasZOrder {
		row = append(row, f.ZOrder)
	}
	if spec.HasWayArea {
		// filled by the ST_Area post-pass
		row = append(row, nil)
	}
	row = append(row, hstoreString(rest), string(f.Geometry.Wkb), f.ValidSince, f.ValidUntil)
	return row
}

func (spec *TableSpec) CreateTableSQL() string {
	cols := []string{
		`"id" BIGSERIAL PRIMARY KEY`,
		`"osm_id" BIGINT`,
		`"version" INT`,
	}
	for _, col := range spec.TagColumns {
		cols = append(cols, fmt.Sprintf(`"%s" TEXT`, col))
	}
	if spec.HasZOrder {
		cols = append(cols, `"z_order" INT`)
	}
	if spec.HasWayArea {
		cols = append(cols, `"way_area" REAL`)
	}
	cols = append(cols,
		`"tags" HSTORE`,
		fmt.Sprintf(`"way" geometry(%s, %d)`, spec.GeometryType, spec.Srid),
		`"valid_since" TIMESTAMPTZ`,
		`"valid_until" TIMESTAMPTZ`,
	)
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s"."%s" (%s)`,
		spec.Schema, spec.Name, strings.Join(cols, ", "))
}

func (spec *TableSpec) CopySQL() string {
	return pq.CopyInSchema(spec.Schema, spec.Name, spec.Columns()...)
}

func (spec *TableSpec) DeleteSQL() string {
	return fmt.Sprintf(`DELETE FROM "%s"."%s" WHERE "osm_id" = $1`, spec.Schema, spec.Name)
}

// hstoreString renders tags as an hstore literal.
func hstoreString(tags osm.Tags) string {
	kv := make([]string, 0, len(tags))
	for k, v := range tags {
		kv = append(kv, `"`+hstoreEscape(k)+`"=>"`+hstoreEscape(v)+`"`)
	}
	return strings.Join(kv, ", ")
}

func hstoreEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`)
}

// Tag keys extracted into typed columns, the openstreetmap-carto schema.
var pointTagColumns = []string{
	"access", "addr_housename", "addr_housenumber", "admin_level", "aerialway",
	"aeroway", "amenity", "barrier", "boundary", "building", "highway",
	"historic", "junction", "landuse", "layer", "leisure", "lock", "man_made",
	"military", "name", "natural", "oneway", "place", "power", "railway",
	"ref", "religion", "shop", "tourism", "water", "waterway",
}

var wayTagColumns = []string{
	"access", "addr_housename", "addr_housenumber", "addr_interpolation",
	"admin_level", "aerialway", "aeroway", "amenity", "barrier", "bicycle",
	"bridge", "boundary", "building", "construction", "covered", "foot",
	"highway", "historic", "horse", "junction", "landuse", "layer", "leisure",
	"lock", "man_made", "military", "name", "natural", "oneway", "place",
	"power", "railway", "ref", "religion", "route", "service", "shop",
	"surface", "tourism", "tracktype", "tunnel", "water", "waterway",
}
