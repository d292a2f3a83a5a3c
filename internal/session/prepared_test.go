package session

import (
	"context"
	"errors"
	"testing"

	"github.com/cubrid/qxengine/internal/qxerr"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// failFinder fails the test if FindBySHA1 is ever called; it grounds the
// alias-print-NULL quirk: session_get_prepared_statement never searches the
// XASL cache when a statement has no alias print.
type failFinder struct{ t *testing.T }

func (f failFinder) FindBySHA1(ctx context.Context, sum xexternal.SHA1Hash) (xexternal.XASLCacheEntry, bool, error) {
	f.t.Fatal("FindBySHA1 should not be called for a statement with an empty AliasPrint")
	return nil, false, nil
}

type stubFinder struct {
	entry xexternal.XASLCacheEntry
	found bool
}

func (s stubFinder) FindBySHA1(ctx context.Context, sum xexternal.SHA1Hash) (xexternal.XASLCacheEntry, bool, error) {
	return s.entry, s.found, nil
}

func TestGetPreparedStatementSkipsXASLLookupWithoutAliasPrint(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	stmt := &PreparedStatement{Name: "s1", Info: []byte("info")}
	if err := m.CreatePreparedStatement(id, stmt); err != nil {
		t.Fatalf("CreatePreparedStatement: %v", err)
	}

	got, entry, err := m.GetPreparedStatement(context.Background(), id, failFinder{t}, "S1")
	if err != nil {
		t.Fatalf("GetPreparedStatement: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil XASL entry without alias print, got %v", entry)
	}
	if got.Name != "s1" {
		t.Fatalf("got statement %q, want s1", got.Name)
	}
}

func TestGetPreparedStatementResolvesXASLWithAliasPrint(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	stmt := &PreparedStatement{Name: "s1", AliasPrint: "select 1", SHA1: xexternal.SHA1Hash{1, 2, 3, 4, 5}}
	if err := m.CreatePreparedStatement(id, stmt); err != nil {
		t.Fatalf("CreatePreparedStatement: %v", err)
	}

	finder := stubFinder{entry: "cached-xasl", found: true}
	_, entry, err := m.GetPreparedStatement(context.Background(), id, finder, "s1")
	if err != nil {
		t.Fatalf("GetPreparedStatement: %v", err)
	}
	if entry != "cached-xasl" {
		t.Fatalf("entry = %v, want cached-xasl", entry)
	}
}

func TestCreatePreparedStatementReplacesSameName(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.CreatePreparedStatement(id, &PreparedStatement{Name: "s1", Info: []byte("v1")}); err != nil {
		t.Fatalf("create v1: %v", err)
	}
	if err := m.CreatePreparedStatement(id, &PreparedStatement{Name: "S1", Info: []byte("v2")}); err != nil {
		t.Fatalf("create v2: %v", err)
	}

	st, err := m.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(st.Statements) != 1 {
		t.Fatalf("len(Statements) = %d, want 1 (same-name replace)", len(st.Statements))
	}
	if string(st.Statements[0].Info) != "v2" {
		t.Fatalf("Info = %q, want v2", st.Statements[0].Info)
	}
}

func TestCreatePreparedStatementCapEnforced(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	for i := 0; i < MaxPreparedStatements; i++ {
		name := string(rune('a' + i))
		if err := m.CreatePreparedStatement(id, &PreparedStatement{Name: name}); err != nil {
			t.Fatalf("create[%d]: %v", i, err)
		}
	}

	err := m.CreatePreparedStatement(id, &PreparedStatement{Name: "one_too_many"})
	if !errors.Is(err, qxerr.ErrTooManyStatements) {
		t.Fatalf("got %v, want TooManyStatements", err)
	}
}

func TestGetPreparedStatementNotFound(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	_, _, err := m.GetPreparedStatement(context.Background(), id, failFinder{t}, "nope")
	if !errors.Is(err, qxerr.ErrPreparedNameNotFound) {
		t.Fatalf("got %v, want PreparedNameNotFound", err)
	}
}

func TestDeletePreparedStatementUnknownNameIsNotAnError(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if err := m.DeletePreparedStatement(id, "nope"); err != nil {
		t.Fatalf("DeletePreparedStatement of unknown name should succeed silently, got %v", err)
	}
}
