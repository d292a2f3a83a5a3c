// Package fixtures provides one demo implementation of each
// internal/xexternal collaborator interface, backed by a real
// database/sql connection (the go-sql-driver/mysql driver), in the manner
// of the teacher's internal/storage/sqlite package: a concrete engine
// struct, a schema bootstrapped on New, and test_helpers-style
// constructors for tests. It is never imported by internal/pred,
// internal/regu, or internal/sqcache, nor by cmd/qxenginectl; only this
// package's own tests use it.
package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// Engine is the demo backend: one *sql.DB plus the bookkeeping the
// CursorEngine and XASLRuntime implementations need. It satisfies
// xexternal.HeapReader, xexternal.CursorEngine, xexternal.ValueDescriptor,
// and xexternal.XASLRuntime.
type Engine struct {
	db *sql.DB

	scans    scanRegistry
	xaslExec xaslRegistry
}

// New opens dsn (a go-sql-driver/mysql data source name) and bootstraps the
// demo schema, mirroring the teacher's sqlite.New(ctx, dbPath) shape.
func New(ctx context.Context, dsn string) (*Engine, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("fixtures: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("fixtures: ping: %w", err)
	}

	e := &Engine{db: db}
	if err := e.bootstrap(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

// Close releases the underlying connection pool.
func (e *Engine) Close() error { return e.db.Close() }

const schemaDDL = `
CREATE TABLE IF NOT EXISTS heap_objects (
	page_id BIGINT NOT NULL,
	slot_id INT NOT NULL,
	vol_id  SMALLINT NOT NULL,
	record  TEXT NOT NULL,
	PRIMARY KEY (vol_id, page_id, slot_id)
)`

func (e *Engine) bootstrap(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("fixtures: bootstrap schema: %w", err)
	}
	return nil
}

// PutObject inserts or replaces one heap object's record, a test/demo-only
// seam for populating the fixture (there is no corresponding operation in
// xexternal.HeapReader, which only reads).
func (e *Engine) PutObject(ctx context.Context, oid xexternal.OID, record string) error {
	_, err := e.db.ExecContext(ctx,
		`REPLACE INTO heap_objects (page_id, slot_id, vol_id, record) VALUES (?, ?, ?, ?)`,
		oid.PageID, oid.SlotID, oid.VolID, record)
	if err != nil {
		return fmt.Errorf("fixtures: PutObject: %w", err)
	}
	return nil
}

// decodeRecord parses the fixture's demo row encoding: comma-separated
// "attrID:value" pairs. Real heap records are binary-packed and
// domain-typed; this stands in for that packing since the core only ever
// treats a record as an opaque []byte handed to HeapReader.
func decodeRecord(record []byte) map[int]*regu.DBValue {
	out := make(map[int]*regu.DBValue)
	for _, field := range strings.Split(string(record), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.SplitN(field, ":", 2)
		if len(parts) != 2 {
			continue
		}
		attrID, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		if parts[1] == "NULL" {
			out[attrID] = &regu.DBValue{IsNull: true}
			continue
		}
		out[attrID] = &regu.DBValue{Data: parts[1]}
	}
	return out
}
