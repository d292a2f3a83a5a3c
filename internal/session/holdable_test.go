package session

import (
	"context"
	"testing"
)

func TestStoreLoadRemoveHoldableQuery(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	before := NumHoldableCursors()

	stored, err := m.StoreHoldableQuery(id, &HoldableQuery{QueryID: 7, NumTmp: 1})
	if err != nil {
		t.Fatalf("StoreHoldableQuery: %v", err)
	}
	if !stored {
		t.Fatal("expected first store to report stored=true")
	}
	if NumHoldableCursors() != before+1 {
		t.Fatalf("NumHoldableCursors = %d, want %d", NumHoldableCursors(), before+1)
	}

	// Storing the same query id again is a dedup no-op.
	stored, err = m.StoreHoldableQuery(id, &HoldableQuery{QueryID: 7})
	if err != nil {
		t.Fatalf("StoreHoldableQuery dedup: %v", err)
	}
	if stored {
		t.Fatal("storing the same query id twice should not report stored=true")
	}
	if NumHoldableCursors() != before+1 {
		t.Fatal("dedup store should not increment the global counter")
	}

	q, err := m.LoadHoldableQuery(id, 7)
	if err != nil {
		t.Fatalf("LoadHoldableQuery: %v", err)
	}
	if q == nil || q.QueryID != 7 {
		t.Fatalf("LoadHoldableQuery = %v, want query id 7", q)
	}

	removed, err := m.RemoveHoldableQuery(id, 7)
	if err != nil {
		t.Fatalf("RemoveHoldableQuery: %v", err)
	}
	if removed == nil {
		t.Fatal("expected a removed entry")
	}
	if NumHoldableCursors() != before {
		t.Fatalf("NumHoldableCursors after remove = %d, want %d", NumHoldableCursors(), before)
	}

	if q, _ := m.LoadHoldableQuery(id, 7); q != nil {
		t.Fatal("query should be gone after RemoveHoldableQuery")
	}
}

func TestClearHoldableQueryDoesNotTouchGlobalCounter(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	if _, err := m.StoreHoldableQuery(id, &HoldableQuery{QueryID: 1}); err != nil {
		t.Fatalf("StoreHoldableQuery: %v", err)
	}
	before := NumHoldableCursors()

	if err := m.ClearHoldableQuery(id, 1); err != nil {
		t.Fatalf("ClearHoldableQuery: %v", err)
	}
	if NumHoldableCursors() != before {
		t.Fatal("ClearHoldableQuery should not decrement the global counter (caller owns the files)")
	}
	if q, _ := m.LoadHoldableQuery(id, 1); q != nil {
		t.Fatal("query should be gone after ClearHoldableQuery")
	}
}

func TestRemoveAllHoldableQueries(t *testing.T) {
	m := newTestManager()
	id, _ := m.Create(context.Background())

	for i := int64(0); i < 3; i++ {
		if _, err := m.StoreHoldableQuery(id, &HoldableQuery{QueryID: i}); err != nil {
			t.Fatalf("StoreHoldableQuery[%d]: %v", i, err)
		}
	}

	all, err := m.RemoveAllHoldableQueries(id)
	if err != nil {
		t.Fatalf("RemoveAllHoldableQueries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}

	st, err := m.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(st.Holdable) != 0 {
		t.Fatal("Holdable should be empty after RemoveAllHoldableQueries")
	}
}
