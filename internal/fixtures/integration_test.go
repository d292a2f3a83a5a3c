//go:build integration

package fixtures

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// newIntegrationEngine spins up a throwaway MySQL container and returns an
// Engine wired to it, the fixture package's one seam for its heap-reader
// and cursor-engine tests against a real SQL backend.
func newIntegrationEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()

	ctr, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("qxengine"),
		mysql.WithUsername("qxengine"),
		mysql.WithPassword("qxengine"),
	)
	if err != nil {
		t.Fatalf("mysql.Run: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		t.Fatalf("ConnectionString: %v", err)
	}

	e, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// TestHeapReaderRoundTrip exercises the Storage/Heap collaborator end to
// end against a real MySQL backend: a written object is readable back
// through AttrInfoRead/AttrValueLocate/IsObjectNotNull exactly as the core
// would call them during EvalDataFilter.
func TestHeapReaderRoundTrip(t *testing.T) {
	e := newIntegrationEngine(t)
	ctx := context.Background()

	oid := xexternal.OID{PageID: 1, SlotID: 2, VolID: 0}
	if err := e.PutObject(ctx, oid, "0:alice,1:30"); err != nil {
		t.Fatalf("PutObject: %v", err)
	}

	notNull, err := e.IsObjectNotNull(ctx, oid)
	if err != nil {
		t.Fatalf("IsObjectNotNull: %v", err)
	}
	if !notNull {
		t.Fatal("expected the written object to be reported not-null")
	}

	record, err := e.GetRecord(ctx, oid)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	var cache map[int]*regu.DBValue
	if err := e.AttrInfoRead(ctx, oid, record, &cache); err != nil {
		t.Fatalf("AttrInfoRead: %v", err)
	}

	name, err := e.AttrValueLocate(&cache, 0)
	if err != nil {
		t.Fatalf("AttrValueLocate: %v", err)
	}
	if name.Data != "alice" {
		t.Fatalf("attr 0 = %v, want alice", name.Data)
	}

	missing := xexternal.OID{PageID: 99, SlotID: 99, VolID: 0}
	notNull, err = e.IsObjectNotNull(ctx, missing)
	if err != nil {
		t.Fatalf("IsObjectNotNull(missing): %v", err)
	}
	if notNull {
		t.Fatal("expected a never-written object to be reported null")
	}
}

// TestCursorEngineMaterializeScanSort exercises the Cursor Engine
// collaborator: a materialized list can be scanned in full and re-sorted
// into a second list, matching the ORDER BY path a correlated subquery's
// result list would take before handing rows to the predicate evaluator.
func TestCursorEngineMaterializeScanSort(t *testing.T) {
	e := newIntegrationEngine(t)
	ctx := context.Background()

	rows := [][]*regu.DBValue{
		{{Data: "3"}},
		{{Data: "1"}},
		{{Data: "2"}},
	}
	list, err := e.MaterializeList(ctx, "t_cursor_test", 1, rows)
	if err != nil {
		t.Fatalf("MaterializeList: %v", err)
	}

	sorted, err := e.ListSort(ctx, list, []int{1}, false)
	if err != nil {
		t.Fatalf("ListSort: %v", err)
	}

	scan, err := e.ListOpenScan(ctx, sorted)
	if err != nil {
		t.Fatalf("ListOpenScan: %v", err)
	}
	defer e.ListCloseScan(ctx, scan)

	var got []string
	for {
		tuple, ok, err := e.ListNext(ctx, scan)
		if err != nil {
			t.Fatalf("ListNext: %v", err)
		}
		if !ok {
			break
		}
		v, err := e.TupleLocateValue(tuple, 0)
		if err != nil {
			t.Fatalf("TupleLocateValue: %v", err)
		}
		got = append(got, v.Data.(string))
	}

	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
