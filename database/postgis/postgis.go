// Package postgis writes time-sliced features into PostGIS tables.
package postgis

import (
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ohdm/chronotile/database"
	"github.com/ohdm/chronotile/log"
)

type SQLError struct {
	query         string
	originalError error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s", e.originalError.Error(), e.query)
}

type SQLInsertError struct {
	SQLError
	data interface{}
}

func (e *SQLInsertError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s (%+v)", e.originalError.Error(), e.query, e.data)
}

type Config struct {
	// ConnectionParams is a lib/pq connection string
	// ("host=localhost dbname=ohdm ...").
	ConnectionParams string
	Schema           string
	Srid             int
}

type PostGIS struct {
	Db     *sql.DB
	Config Config
	Tables map[string]*TableSpec
}

// Open connects to the database. Tables are not touched until Init.
func Open(conf Config) (*PostGIS, error) {
	if conf.Schema == "" {
		conf.Schema = "public"
	}
	if conf.Srid == 0 {
		conf.Srid = 3857
	}

	db, err := sql.Open("postgres", conf.ConnectionParams)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to database")
	}

	pg := &PostGIS{
		Db:     db,
		Config: conf,
		Tables: map[string]*TableSpec{
			"point":   pointTableSpec(conf.Schema, conf.Srid),
			"line":    lineTableSpec(conf.Schema, conf.Srid),
			"roads":   roadsTableSpec(conf.Schema, conf.Srid),
			"polygon": polygonTableSpec(conf.Schema, conf.Srid),
		},
	}
	return pg, nil
}

func (pg *PostGIS) Close() error {
	return pg.Db.Close()
}

func (pg *PostGIS) createSchema(schema string) error {
	if schema == "public" {
		return nil
	}
	sql := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, schema)
	if _, err := pg.Db.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

func (pg *PostGIS) createExtensions() error {
	for _, ext := range []string{"postgis", "hstore"} {
		sql := fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS "%s"`, ext)
		if _, err := pg.Db.Exec(sql); err != nil {
			return &SQLError{sql, err}
		}
	}
	return nil
}

// Init creates extensions, schema and tables, drops existing data.
func (pg *PostGIS) Init() error {
	if err := pg.createExtensions(); err != nil {
		return err
	}
	if err := pg.createSchema(pg.Config.Schema); err != nil {
		return err
	}

	tx, err := pg.Db.Begin()
	if err != nil {
		return err
	}
	defer rollbackIfTx(&tx)
	for _, spec := range pg.Tables {
		sql := fmt.Sprintf(`DROP TABLE IF EXISTS "%s"."%s"`, spec.Schema, spec.Name)
		if _, err := tx.Exec(sql); err != nil {
			return &SQLError{sql, err}
		}
		sql = spec.CreateTableSQL()
		if _, err := tx.Exec(sql); err != nil {
			return &SQLError{sql, err}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	tx = nil
	return nil
}

// NewInserter starts a bulk COPY transaction per table and returns an
// inserter that routes features by geometry kind.
func (pg *PostGIS) NewInserter() (database.Inserter, error) {
	return newInsertBuffer(pg)
}

// Finish runs the geometry post-passes and creates the indices.
func (pg *PostGIS) Finish() error {
	if err := pg.makeValid(); err != nil {
		return err
	}
	if err := pg.setWayAreas(); err != nil {
		return err
	}

	defer log.StopStep(log.StartStep("Creating geometry indices"))

	worker := runtime.GOMAXPROCS(0)
	if worker < 1 {
		worker = 1
	}

	p := newWorkerPool(worker, len(pg.Tables))
	for _, tbl := range pg.Tables {
		table := tbl
		p.in <- func() error {
			return pg.createIndices(table)
		}
	}
	return p.wait()
}

// makeValid repairs self-intersecting polygons that survived ring repair.
func (pg *PostGIS) makeValid() error {
	spec := pg.Tables["polygon"]
	defer log.StopStep(log.StartStep("Validating geometries in %s", spec.Name))

	sql := fmt.Sprintf(
		`UPDATE "%s"."%s" SET way = ST_CollectionExtract(ST_MakeValid(way), 3) WHERE NOT ST_IsValid(way)`,
		spec.Schema, spec.Name)
	if _, err := pg.Db.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

// setWayAreas fills the way_area column used for rendering order.
func (pg *PostGIS) setWayAreas() error {
	spec := pg.Tables["polygon"]
	defer log.StopStep(log.StartStep("Computing way areas in %s", spec.Name))

	sql := fmt.Sprintf(
		`UPDATE "%s"."%s" SET way_area = ST_Area(way) WHERE way_area IS NULL`,
		spec.Schema, spec.Name)
	if _, err := pg.Db.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

func (pg *PostGIS) createIndices(spec *TableSpec) error {
	step := log.StartStep("Creating geometry index on %s", spec.Name)
	sql := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_geom" ON "%s"."%s" USING GIST ("way")`,
		spec.Name, spec.Schema, spec.Name)
	_, err := pg.Db.Exec(sql)
	log.StopStep(step)
	if err != nil {
		return &SQLError{sql, err}
	}

	step = log.StartStep("Creating validity index on %s", spec.Name)
	sql = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_validity" ON "%s"."%s" USING BTREE ("valid_since", "valid_until")`,
		spec.Name, spec.Schema, spec.Name)
	_, err = pg.Db.Exec(sql)
	log.StopStep(step)
	if err != nil {
		return &SQLError{sql, err}
	}

	step = log.StartStep("Creating OSM id index on %s", spec.Name)
	sql = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_osm_id_idx" ON "%s"."%s" USING BTREE ("osm_id")`,
		spec.Name, spec.Schema, spec.Name)
	_, err = pg.Db.Exec(sql)
	log.StopStep(step)
	if err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

// FeatureDateRange returns the earliest valid_since and latest valid_until
// over all feature tables. Used to bound prerender sweeps.
func (pg *PostGIS) FeatureDateRange() (time.Time, time.Time, error) {
	var minSince, maxUntil time.Time
	for _, spec := range pg.Tables {
		q := fmt.Sprintf(`SELECT MIN(valid_since), MAX(valid_until) FROM "%s"."%s"`,
			spec.Schema, spec.Name)
		row := pg.Db.QueryRow(q)
		var since, until sql.NullTime
		if err := row.Scan(&since, &until); err != nil {
			return time.Time{}, time.Time{}, &SQLError{q, err}
		}
		if since.Valid && (minSince.IsZero() || since.Time.Before(minSince)) {
			minSince = since.Time
		}
		if until.Valid && until.Time.After(maxUntil) {
			maxUntil = until.Time
		}
	}
	if minSince.IsZero() {
		return time.Time{}, time.Time{}, errors.New("no features imported")
	}
	return minSince, maxUntil, nil
}

func rollbackIfTx(tx **sql.Tx) {
	if *tx != nil {
		if err := (*tx).Rollback(); err != nil {
			log.Fatal("rollback failed: ", err)
		}
	}
}
