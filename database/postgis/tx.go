package postgis

import (
	"database/sql"
	"fmt"
	"sync"
)

// tableTx wraps a bulk COPY transaction for a single table. Rows are fed
// through a channel so multiple inserters can share one COPY stmt.
type tableTx struct {
	Pg         *PostGIS
	Tx         *sql.Tx
	Spec       *TableSpec
	InsertStmt *sql.Stmt
	InsertSql  string
	wg         *sync.WaitGroup
	rows       chan []interface{}
	err        error
}

func newTableTx(pg *PostGIS, spec *TableSpec) *tableTx {
	return &tableTx{
		Pg:   pg,
		Spec: spec,
		wg:   &sync.WaitGroup{},
		rows: make(chan []interface{}, 64),
	}
}

func (tt *tableTx) Begin() error {
	tx, err := tt.Pg.Db.Begin()
	if err != nil {
		return err
	}
	tt.Tx = tx

	truncate := fmt.Sprintf(`TRUNCATE TABLE "%s"."%s" RESTART IDENTITY`,
		tt.Spec.Schema, tt.Spec.Name)
	if _, err := tx.Exec(truncate); err != nil {
		return &SQLError{truncate, err}
	}

	tt.InsertSql = tt.Spec.CopySQL()
	stmt, err := tt.Tx.Prepare(tt.InsertSql)
	if err != nil {
		return &SQLError{tt.InsertSql, err}
	}
	tt.InsertStmt = stmt

	tt.wg.Add(1)
	go tt.loop()
	return nil
}

func (tt *tableTx) Insert(row []interface{}) error {
	tt.rows <- row
	return nil
}

func (tt *tableTx) loop() {
	for row := range tt.rows {
		if tt.err != nil {
			continue
		}
		if _, err := tt.InsertStmt.Exec(row...); err != nil {
			tt.err = &SQLInsertError{SQLError{tt.InsertSql, err}, row}
		}
	}
	tt.wg.Done()
}

func (tt *tableTx) end() {
	close(tt.rows)
	tt.wg.Wait()
}

func (tt *tableTx) Commit() error {
	tt.end()
	if tt.err != nil {
		tt.Rollback()
		return tt.err
	}
	// flush the COPY stmt
	if _, err := tt.InsertStmt.Exec(); err != nil {
		tt.Rollback()
		return &SQLError{tt.InsertSql, err}
	}
	if err := tt.Tx.Commit(); err != nil {
		return err
	}
	tt.Tx = nil
	return nil
}

func (tt *tableTx) Rollback() {
	rollbackIfTx(&tt.Tx)
}
