package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// listTable is the xexternal.ListID this fixture hands back: a materialized
// cursor is just a real MySQL table name, the demo's stand-in for a CUBRID
// list file.
type listTable string

// scanRegistry tracks open *sql.Rows under a ScanID, the way a real cursor
// engine tracks open scan descriptors.
type scanRegistry struct {
	mu     sync.Mutex
	next   atomic.Int64
	active map[xexternal.ScanID]*sql.Rows
}

func (r *scanRegistry) put(rows *sql.Rows) xexternal.ScanID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		r.active = make(map[xexternal.ScanID]*sql.Rows)
	}
	id := xexternal.ScanID(r.next.Add(1))
	r.active[id] = rows
	return id
}

func (r *scanRegistry) get(id xexternal.ScanID) (*sql.Rows, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, ok := r.active[id]
	return rows, ok
}

func (r *scanRegistry) remove(id xexternal.ScanID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// MaterializeList creates a new list table named name (a test/demo-only
// seam: real subquery execution populates a list via the XASL runtime, not
// a direct INSERT) holding the given rows, one VARCHAR column per value
// formatted with Cast(..., "VARCHAR").
func (e *Engine) MaterializeList(ctx context.Context, name string, columns int, rows [][]*regu.DBValue) (xexternal.ListID, error) {
	var cols []string
	for i := 0; i < columns; i++ {
		cols = append(cols, fmt.Sprintf("c%d VARCHAR(255)", i))
	}
	ddl := fmt.Sprintf("CREATE TEMPORARY TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("fixtures: MaterializeList: create: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", columns), ",")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders)
	for _, row := range rows {
		args := make([]any, columns)
		for i, v := range row {
			formatted, _ := e.Cast(v, "VARCHAR")
			if formatted.IsNull {
				args[i] = nil
			} else {
				args[i] = fmt.Sprint(formatted.Data)
			}
		}
		if _, err := e.db.ExecContext(ctx, insert, args...); err != nil {
			return nil, fmt.Errorf("fixtures: MaterializeList: insert: %w", err)
		}
	}

	return listTable(name), nil
}

// ListOpenScan mirrors list_open_scan: opens a forward cursor over list's
// backing table.
func (e *Engine) ListOpenScan(ctx context.Context, list xexternal.ListID) (xexternal.ScanID, error) {
	table, ok := list.(listTable)
	if !ok {
		return 0, fmt.Errorf("fixtures: ListOpenScan: unexpected ListID type %T", list)
	}
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", quoteIdent(string(table))))
	if err != nil {
		return 0, fmt.Errorf("fixtures: ListOpenScan: %w", err)
	}
	return e.scans.put(rows), nil
}

// ListNext mirrors list_next; ok is false once the scan is exhausted.
func (e *Engine) ListNext(ctx context.Context, scan xexternal.ScanID) (xexternal.Tuple, bool, error) {
	rows, found := e.scans.get(scan)
	if !found {
		return xexternal.Tuple{}, false, fmt.Errorf("fixtures: ListNext: unknown scan %d", scan)
	}
	if !rows.Next() {
		return xexternal.Tuple{}, false, rows.Err()
	}

	cols, err := rows.Columns()
	if err != nil {
		return xexternal.Tuple{}, false, fmt.Errorf("fixtures: ListNext: columns: %w", err)
	}
	raw := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return xexternal.Tuple{}, false, fmt.Errorf("fixtures: ListNext: scan: %w", err)
	}

	values := make([]*regu.DBValue, len(cols))
	for i, r := range raw {
		if !r.Valid {
			values[i] = &regu.DBValue{IsNull: true}
			continue
		}
		values[i] = &regu.DBValue{Data: r.String}
	}
	return xexternal.Tuple{Values: values}, true, nil
}

// ListCloseScan mirrors list_close_scan.
func (e *Engine) ListCloseScan(ctx context.Context, scan xexternal.ScanID) error {
	rows, found := e.scans.get(scan)
	if !found {
		return nil
	}
	e.scans.remove(scan)
	return rows.Close()
}

// ListSort mirrors list_sort: materializes a new table ordered by sortKey
// (1-based column positions, matching CUBRID's SORT_LIST convention),
// leaving the source list untouched unless allFlag requests it replace it.
func (e *Engine) ListSort(ctx context.Context, list xexternal.ListID, sortKey []int, allFlag bool) (xexternal.ListID, error) {
	table, ok := list.(listTable)
	if !ok {
		return nil, fmt.Errorf("fixtures: ListSort: unexpected ListID type %T", list)
	}

	var order []string
	for _, k := range sortKey {
		order = append(order, fmt.Sprintf("c%d", k-1))
	}
	orderBy := ""
	if len(order) > 0 {
		orderBy = " ORDER BY " + strings.Join(order, ", ")
	}

	sorted := listTable(string(table) + "_sorted")
	ddl := fmt.Sprintf("CREATE TEMPORARY TABLE %s AS SELECT * FROM %s%s",
		quoteIdent(string(sorted)), quoteIdent(string(table)), orderBy)
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("fixtures: ListSort: %w", err)
	}

	if allFlag {
		if _, err := e.db.ExecContext(ctx, fmt.Sprintf("DROP TEMPORARY TABLE %s", quoteIdent(string(table)))); err != nil {
			return nil, fmt.Errorf("fixtures: ListSort: drop source: %w", err)
		}
	}
	return sorted, nil
}

// TupleLocateValue mirrors tuple_locate_value.
func (e *Engine) TupleLocateValue(t xexternal.Tuple, column int) (*regu.DBValue, error) {
	if column < 0 || column >= len(t.Values) {
		return nil, fmt.Errorf("fixtures: TupleLocateValue: column %d out of range (%d values)", column, len(t.Values))
	}
	return t.Values[column], nil
}

// quoteIdent backtick-quotes a demo identifier. Names come only from this
// package's own callers (never user input), so this guards against
// accidental collision with reserved words, not injection.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}
